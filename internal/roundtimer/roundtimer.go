package roundtimer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the timer's lifecycle position. Fired and Cancelled are
// terminal; a timer reaches exactly one of them.
type State int

const (
	Idle State = iota
	Armed
	Fired
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Armed:
		return "ARMED"
	case Fired:
		return "FIRED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Timer fires an end-of-round callback exactly once, on timeout or not
// at all when cancelled first. The fire/cancel race is resolved by a
// single mutex-guarded state transition: whichever side moves the timer
// out of Armed first wins, the other becomes a no-op.
type Timer struct {
	mu    sync.Mutex
	state State
	stop  clockwork.Timer
	clock clockwork.Clock
}

// New creates an idle timer on the given clock. Tests pass a
// clockwork.FakeClock to drive firing deterministically.
func New(clock clockwork.Clock) *Timer {
	return &Timer{clock: clock}
}

// Arm transitions Idle -> Armed and schedules onFire after d. Returns
// false when the timer is not Idle.
func (t *Timer) Arm(d time.Duration, onFire func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Idle {
		log.Error().
			Str("state", t.state.String()).
			Msg("arm rejected: timer not idle")
		return false
	}
	t.state = Armed
	t.stop = t.clock.AfterFunc(d, func() {
		if t.tryTransition(Fired) {
			onFire()
		}
	})
	return true
}

// Cancel transitions Armed -> Cancelled and suppresses a pending fire.
// Returns false when the fire already won the race (or the timer was
// never armed), which callers treat as a silent no-op.
func (t *Timer) Cancel() bool {
	return t.tryTransition(Cancelled)
}

// State returns the timer's current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) tryTransition(to State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Armed {
		return false
	}
	t.state = to
	if to == Cancelled && t.stop != nil {
		t.stop.Stop()
	}
	return true
}
