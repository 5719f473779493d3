// Package tail follows a running daemon and reports what changes.
package tail

import (
	"context"
	"time"

	"github.com/tessro/interlude/internal/engine"
	"github.com/tessro/interlude/internal/playback"
	"github.com/tessro/interlude/internal/timer"
)

// EventType represents the type of engine event.
type EventType int

const (
	EventTimerChange EventType = iota
	EventTimerExpired
	EventBurstStart
	EventBurstPlaying
	EventBurstEnd
	EventSlotChange
	EventCheck
	EventSettingsChange
)

// Event represents an observed change in the daemon's status.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *engine.Status
	Current   *engine.Status
}

// Source reports the daemon's status.
type Source interface {
	Status(ctx context.Context) (engine.Status, error)
}

// Watcher polls a source for status changes and emits events.
type Watcher struct {
	source   Source
	interval time.Duration
	events   chan Event
	done     chan struct{}
	now      func() time.Time
}

// NewWatcher creates a new status watcher.
func NewWatcher(source Source, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = time.Second
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Events returns the channel of events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start polls until ctx is cancelled or Stop is called. Poll errors are
// skipped; the next poll tries again.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	var prev *engine.Status
	if st, err := w.source.Status(ctx); err == nil {
		prev = &st
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			st, err := w.source.Status(ctx)
			if err != nil {
				continue
			}
			curr := &st

			for _, e := range diffStatus(prev, curr, w.now()) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diffStatus compares two snapshots and returns detected events.
func diffStatus(prev, curr *engine.Status, now time.Time) []Event {
	if curr == nil || prev == nil {
		return nil
	}

	var events []Event
	emit := func(t EventType) {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
	}

	if prev.Timer.State != curr.Timer.State {
		if curr.Timer.State == timer.Expired {
			emit(EventTimerExpired)
		} else {
			emit(EventTimerChange)
		}
	}

	pc, cc := prev.Cycle, curr.Cycle
	switch {
	case cycleID(pc) != cycleID(cc):
		if pc != nil {
			emit(EventBurstEnd)
		}
		if cc != nil {
			emit(EventBurstStart)
			if cc.Playing {
				emit(EventBurstPlaying)
			}
		}
	case cc != nil && !pc.Playing && cc.Playing:
		emit(EventBurstPlaying)
	}

	if prev.Resolution != curr.Resolution {
		emit(EventSlotChange)
	}

	if checkTime(prev) != checkTime(curr) && curr.LastCheck != nil {
		emit(EventCheck)
	}

	if prev.Settings != curr.Settings {
		emit(EventSettingsChange)
	}

	return events
}

func cycleID(c *playback.Cycle) uint64 {
	if c == nil {
		return 0
	}
	return c.ID
}

func checkTime(st *engine.Status) time.Time {
	if st.LastCheck == nil {
		return time.Time{}
	}
	return st.LastCheck.At
}
