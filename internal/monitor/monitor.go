// Package monitor decides, once per poll, whether the schedule wants a
// scheduled playback cycle right now.
package monitor

import (
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/schedule"
)

// DefaultInterval is how often the schedule is polled.
const DefaultInterval = time.Minute

// Action is the outcome of a check.
type Action string

const (
	// Skip means the timer or a cycle owns playback.
	Skip Action = "skip"
	// Quiet means the schedule does not fire now.
	Quiet Action = "quiet"
	// Wait means the schedule fires but the cadence window is still open.
	Wait Action = "wait"
	// NoPlaylists means the schedule fires but nothing is selected.
	NoPlaylists Action = "no-playlists"
	// Fire means a scheduled cycle should start.
	Fire Action = "fire"
)

// Inputs is what a check looks at.
type Inputs struct {
	Now          time.Time
	TimerRunning bool
	InFlight     bool
	Store        *schedule.Store
	Playlists    []core.Playlist
}

// Decision is the result of a check.
type Decision struct {
	Action     Action
	Reason     string
	Resolution schedule.Resolution
}

// Monitor holds the cadence anchor and the last-seen configuration hash.
// It is not safe for concurrent use.
type Monitor struct {
	mode    core.TimingMode
	cadence time.Duration

	anchor  time.Time
	firing  bool
	hash    uint64
	hasHash bool

	logger zerolog.Logger
}

// New returns a monitor that fires at most once per cadence inside a
// firing window.
func New(mode core.TimingMode, cadence time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{mode: mode, cadence: cadence, logger: logger}
}

// SetCadence updates the timing mode and cadence.
func (m *Monitor) SetCadence(mode core.TimingMode, cadence time.Duration) {
	m.mode = mode
	m.cadence = cadence
}

// Anchor returns the time the current cadence window started.
func (m *Monitor) Anchor() time.Time { return m.anchor }

// Check evaluates the schedule at in.Now.
func (m *Monitor) Check(in Inputs) Decision {
	switch {
	case in.TimerRunning:
		return Decision{Action: Skip, Reason: "manual timer running"}
	case in.InFlight:
		return Decision{Action: Skip, Reason: "cycle in flight"}
	}

	res := schedule.ResolveAt(in.Store, in.Now)
	if !res.Fires {
		m.firing = false
		return Decision{Action: Quiet, Reason: "schedule " + string(res.Source), Resolution: res}
	}

	entering := !m.firing
	m.firing = true
	if !entering && !m.anchor.IsZero() && in.Now.Sub(m.anchor) < m.cadence {
		return Decision{Action: Wait, Reason: "cadence window open", Resolution: res}
	}

	if len(in.Playlists) == 0 {
		m.anchor = in.Now
		return Decision{Action: NoPlaylists, Reason: "no scheduled playlists", Resolution: res}
	}
	return Decision{Action: Fire, Resolution: res}
}

// Dispatched records that a scheduled cycle started at t.
func (m *Monitor) Dispatched(t time.Time) {
	if m.mode != core.TimingEnd {
		m.anchor = t
	}
}

// Finished records that a scheduled cycle completed or failed at t.
func (m *Monitor) Finished(t time.Time) {
	if m.mode == core.TimingEnd {
		m.anchor = t
	}
}

// Reset forgets the anchor and firing state.
func (m *Monitor) Reset() {
	m.anchor = time.Time{}
	m.firing = false
}

type watched struct {
	Store     *schedule.Store
	Playlists []core.Playlist
}

// Changed reports whether the schedule or the scheduled playlists differ
// from the last call. The first call always reports a change.
func (m *Monitor) Changed(store *schedule.Store, playlists []core.Playlist) bool {
	h, err := hashstructure.Hash(watched{Store: store, Playlists: playlists}, hashstructure.FormatV2, nil)
	if err != nil {
		m.logger.Warn().Err(err).Msg("hash schedule configuration")
		return true
	}
	if m.hasHash && h == m.hash {
		return false
	}
	m.hash = h
	m.hasHash = true
	return true
}
