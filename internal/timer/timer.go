// Package timer implements the manual countdown timer.
package timer

import (
	"fmt"
	"time"

	ierrors "github.com/tessro/interlude/internal/errors"
)

// State is the timer's lifecycle state.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
	Expired State = "expired"
	Stopped State = "stopped"
)

// DefaultDuration is the countdown length when none is configured.
const DefaultDuration = 30 * time.Minute

// Step is how much one tick takes off the countdown.
const Step = time.Second

// Snapshot is a point-in-time view of the timer.
type Snapshot struct {
	State     State         `json:"state"`
	Remaining time.Duration `json:"remaining"`
	Duration  time.Duration `json:"duration"`
}

// Timer is the countdown state machine. It does no scheduling of its own:
// the owner calls Tick once per second while the timer runs and starts a
// playback cycle whenever Tick reports expiry. It is not safe for
// concurrent use.
type Timer struct {
	state     State
	duration  time.Duration
	remaining time.Duration
}

// New returns an idle timer.
func New(duration time.Duration) *Timer {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Timer{state: Idle, duration: duration, remaining: duration}
}

// State returns the current state.
func (t *Timer) State() State { return t.state }

// Snapshot returns the current state, remaining time and duration.
func (t *Timer) Snapshot() Snapshot {
	return Snapshot{State: t.state, Remaining: t.remaining, Duration: t.duration}
}

// Start begins counting down. It is valid from Idle and Stopped, and only
// when there is something to play.
func (t *Timer) Start(hasSelection bool) error {
	if !hasSelection {
		return ierrors.Configuration("start timer", ierrors.ErrEmptySelection)
	}
	switch t.state {
	case Idle, Stopped:
	default:
		return ierrors.Configuration("start timer", fmt.Errorf("%w: timer is %s", ierrors.ErrInvalidState, t.state))
	}
	if t.remaining <= 0 {
		t.remaining = t.duration
	}
	t.state = Running
	return nil
}

// Tick takes one step off the countdown. When the countdown reaches zero
// the timer enters Expired and Tick returns true; the caller then starts a
// cycle and calls Rearm. Ticks outside Running are ignored.
func (t *Timer) Tick() bool {
	if t.state != Running {
		return false
	}
	t.remaining -= Step
	if t.remaining > 0 {
		return false
	}
	t.state = Expired
	return true
}

// Rearm resets the countdown after an expiry and resumes Running.
func (t *Timer) Rearm() {
	if t.state != Expired {
		return
	}
	t.remaining = t.duration
	t.state = Running
}

// Stop pauses a running countdown, keeping the remaining time.
func (t *Timer) Stop() error {
	if t.state != Running {
		return ierrors.Configuration("stop timer", fmt.Errorf("%w: timer is %s", ierrors.ErrInvalidState, t.state))
	}
	t.state = Stopped
	return nil
}

// FullStop returns to Idle from any state and resets the countdown.
func (t *Timer) FullStop() {
	t.state = Idle
	t.remaining = t.duration
}

// SetDuration changes the countdown length. An idle timer picks it up
// immediately; otherwise the remaining time is capped at d and the new
// length applies from the next rearm.
func (t *Timer) SetDuration(d time.Duration) error {
	if d <= 0 {
		return ierrors.Configuration("set timer duration", fmt.Errorf("duration must be positive, got %s", d))
	}
	t.duration = d
	if t.state == Idle || t.remaining > d {
		t.remaining = d
	}
	return nil
}
