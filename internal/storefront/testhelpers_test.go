package storefront

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/catalog"
)

type fakeTimer struct {
	sched   *fakeScheduler
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler records timers and fires them only when the test asks.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{sched: s, delay: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireAll runs every pending callback, as if the delay elapsed.
func (s *fakeScheduler) fireAll() int {
	timers := s.pending()
	for _, t := range timers {
		s.mu.Lock()
		t.fired = true
		s.mu.Unlock()
		t.fn()
	}
	return len(timers)
}

// fireStale runs callbacks even for stopped timers, mimicking a timer that
// had already started firing when Stop was called.
func (s *fakeScheduler) fireStale() {
	s.mu.Lock()
	timers := append([]*fakeTimer(nil), s.timers...)
	s.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func mustProduct(t *testing.T, cat *catalog.Catalog, id int) catalog.Product {
	t.Helper()
	p, err := cat.Product(id)
	require.NoError(t, err)
	return p
}

func newTestController(sched Scheduler, now func() time.Time) *Controller {
	return NewController(ControllerConfig{
		HeroBanners:   5,
		CarouselItems: 6,
		MenuOpenDelay: 2 * time.Second,
		Scheduler:     sched,
		Now:           now,
	})
}
