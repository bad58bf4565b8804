package storefront

import "time"

// Timer is a pending delayed callback.
type Timer interface {
	// Stop cancels the callback. It reports false when the callback already
	// ran or was stopped before; calling it again is harmless.
	Stop() bool
}

// Scheduler runs a callback after a delay on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules callbacks with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
