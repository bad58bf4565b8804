package storefront

import (
	"fmt"
	"time"
)

// MenuState is the departments menu disclosure state.
type MenuState int

const (
	MenuClosed MenuState = iota
	MenuPendingOpen
	MenuOpen
)

var menuStateNames = map[MenuState]string{
	MenuClosed:      "closed",
	MenuPendingOpen: "pending_open",
	MenuOpen:        "open",
}

func (s MenuState) String() string {
	if name, ok := menuStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MenuState(%d)", int(s))
}

// MarshalText renders the state as its snake_case name.
func (s MenuState) MarshalText() ([]byte, error) {
	name, ok := menuStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown menu state %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText parses a snake_case state name.
func (s *MenuState) UnmarshalText(b []byte) error {
	for state, name := range menuStateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown menu state %q", string(b))
}

// menu is the hover state machine. Every transition bumps gen so a timer
// callback scheduled before the transition is recognised as stale. Callers
// hold the controller lock.
type menu struct {
	state        MenuState
	gen          uint64
	timer        Timer
	hoverStarted time.Time
}

// enter handles hover-enter. It returns the generation to arm a timer for,
// or ok=false when no timer is needed.
func (m *menu) enter(now time.Time) (gen uint64, ok bool) {
	if m.state == MenuOpen {
		return 0, false
	}
	m.cancel()
	m.state = MenuPendingOpen
	m.hoverStarted = now
	return m.gen, true
}

func (m *menu) leave() bool {
	changed := m.state != MenuClosed
	m.cancel()
	m.state = MenuClosed
	m.hoverStarted = time.Time{}
	return changed
}

// fire applies a timer expiry. It reports whether the menu opened.
func (m *menu) fire(gen uint64) bool {
	if m.state != MenuPendingOpen || gen != m.gen {
		return false
	}
	m.timer = nil
	m.state = MenuOpen
	m.hoverStarted = time.Time{}
	return true
}

// cancel stops any pending timer. Safe to call repeatedly.
func (m *menu) cancel() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}
