package engine

import (
	"fmt"
	"time"

	"github.com/tessro/interlude/internal/config"
	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/playback"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/state"
	"github.com/tessro/interlude/internal/timer"
)

// Status is a snapshot of the engine for display.
type Status struct {
	Now            time.Time           `json:"now"`
	Timer          timer.Snapshot      `json:"timer"`
	InFlight       bool                `json:"inFlight"`
	Cycle          *playback.Cycle     `json:"cycle,omitempty"`
	Resolution     schedule.Resolution `json:"resolution"`
	LastCheck      *CheckReport        `json:"lastCheck,omitempty"`
	MonitorEnabled bool                `json:"monitorEnabled"`
	Settings       state.Settings      `json:"settings"`
}

// SettingsPatch changes some playback settings. Nil fields are left alone.
type SettingsPatch struct {
	TimerDuration *time.Duration   `json:"timerDuration,omitempty"`
	PlayDuration  *time.Duration   `json:"playDuration,omitempty"`
	TimingMode    *core.TimingMode `json:"timingMode,omitempty"`
}

// StartTimer starts or resumes the manual timer.
func (e *Engine) StartTimer() error {
	var err error
	if derr := e.do(func() {
		if err = e.timer.Start(e.sel.HasManual()); err != nil {
			return
		}
		e.tick.stop()
		e.tick = e.startTask(e.opts.TickInterval, e.onTick)
		e.logger.Info().Dur("remaining", e.timer.Snapshot().Remaining).Msg("timer started")
	}); derr != nil {
		return derr
	}
	return err
}

// StopTimer pauses the manual timer.
func (e *Engine) StopTimer() error {
	var err error
	if derr := e.do(func() {
		if err = e.timer.Stop(); err != nil {
			return
		}
		e.tick.stop()
		e.tick = nil
		e.logger.Info().Dur("remaining", e.timer.Snapshot().Remaining).Msg("timer stopped")
	}); derr != nil {
		return derr
	}
	return err
}

// ResetTimer fully stops the timer and abandons any cycle in flight.
func (e *Engine) ResetTimer() error {
	return e.do(func() {
		e.timer.FullStop()
		e.tick.stop()
		e.tick = nil
		e.cancelCycle()
		e.logger.Info().Msg("timer reset")
	})
}

// Timer returns the timer state.
func (e *Engine) Timer() (timer.Snapshot, error) {
	var snap timer.Snapshot
	err := e.do(func() { snap = e.timer.Snapshot() })
	return snap, err
}

// Settings returns the playback settings.
func (e *Engine) Settings() (state.Settings, error) {
	var s state.Settings
	err := e.do(func() { s = e.settings })
	return s, err
}

// UpdateSettings validates and applies a settings change.
func (e *Engine) UpdateSettings(p SettingsPatch) (state.Settings, error) {
	var (
		out state.Settings
		err error
	)
	if derr := e.do(func() {
		next := e.settings
		if p.TimerDuration != nil {
			if *p.TimerDuration < time.Second {
				err = ierrors.Configuration("update settings", fmt.Errorf("timer duration must be at least 1s, got %s", *p.TimerDuration))
				return
			}
			next.TimerDurationMinutes = p.TimerDuration.Minutes()
		}
		if p.PlayDuration != nil {
			if err = checkPlayDuration(*p.PlayDuration); err != nil {
				return
			}
			next.PlayDurationSeconds = p.PlayDuration.Seconds()
		}
		if p.TimingMode != nil {
			mode, perr := core.ParseTimingMode(string(*p.TimingMode))
			if perr != nil {
				err = ierrors.Configuration("update settings", perr)
				return
			}
			next.PlaybackTimingMode = mode
		}
		e.applySettings(next)
		e.persist()
		out = e.settings
	}); derr != nil {
		return state.Settings{}, derr
	}
	return out, err
}

// checkPlayDuration holds bursts to the whole-second range the config
// file accepts.
func checkPlayDuration(d time.Duration) error {
	lo := config.MinPlaySeconds * time.Second
	hi := config.MaxPlaySeconds * time.Second
	switch {
	case d%time.Second != 0:
		return ierrors.Configuration("update settings", fmt.Errorf("play duration must be whole seconds, got %s", d))
	case d < lo || d > hi:
		return ierrors.Configuration("update settings", fmt.Errorf("play duration must be between %s and %s, got %s", lo, hi, d))
	}
	return nil
}

func (e *Engine) applySettings(s state.Settings) {
	e.settings = s
	_ = e.timer.SetDuration(s.TimerDuration())
	e.ctrl.SetSettings(playback.Settings{PlayDuration: s.PlayDuration(), DeviceID: e.opts.DeviceID})
	e.monitor.SetCadence(s.PlaybackTimingMode, s.TimerDuration())
}

// Schedule returns a copy of the schedule store.
func (e *Engine) Schedule() (*schedule.Store, error) {
	var s *schedule.Store
	err := e.do(func() { s = e.store.Clone() })
	return s, err
}

// mutate runs fn on the loop and, when it succeeds, persists and
// re-checks the schedule.
func (e *Engine) mutate(fn func() error) error {
	var err error
	if derr := e.do(func() {
		if err = fn(); err == nil {
			e.changed()
		}
	}); derr != nil {
		return derr
	}
	return err
}

// SetBaseDay replaces the base schedule of a weekday.
func (e *Engine) SetBaseDay(day schedule.Day, sched schedule.DaySchedule) error {
	return e.mutate(func() error { return e.store.SetBasePattern(day, sched) })
}

// SetOverride replaces the schedule of one date.
func (e *Engine) SetOverride(date string, sched schedule.DaySchedule) error {
	d, err := schedule.ParseDate(date, e.opts.Location)
	if err != nil {
		return err
	}
	return e.mutate(func() error {
		e.store.SetOverride(d, sched)
		return nil
	})
}

// ClearOverride removes a date override. It reports whether one existed.
func (e *Engine) ClearOverride(date string) (bool, error) {
	d, err := schedule.ParseDate(date, e.opts.Location)
	if err != nil {
		return false, err
	}
	var existed bool
	err = e.mutate(func() error {
		existed = e.store.ClearOverride(d)
		return nil
	})
	return existed, err
}

// Block silences a date.
func (e *Engine) Block(date string) error {
	d, err := schedule.ParseDate(date, e.opts.Location)
	if err != nil {
		return err
	}
	return e.mutate(func() error {
		e.store.Block(d)
		return nil
	})
}

// Unblock lifts a block. It reports whether the date was blocked.
func (e *Engine) Unblock(date string) (bool, error) {
	d, err := schedule.ParseDate(date, e.opts.Location)
	if err != nil {
		return false, err
	}
	var was bool
	err = e.mutate(func() error {
		was = e.store.Unblock(d)
		return nil
	})
	return was, err
}

// Effective resolves a whole date. An empty date means today.
func (e *Engine) Effective(date string) (schedule.EffectiveSchedule, error) {
	var eff schedule.EffectiveSchedule
	d := time.Time{}
	if date != "" {
		parsed, err := schedule.ParseDate(date, e.opts.Location)
		if err != nil {
			return eff, err
		}
		d = parsed
	}
	err := e.do(func() {
		if d.IsZero() {
			d = e.now()
		}
		eff = schedule.Effective(e.store, d)
	})
	return eff, err
}

// Migrate folds any remaining legacy schedule maps into the store.
func (e *Engine) Migrate() (schedule.MigrationReport, error) {
	var report schedule.MigrationReport
	err := e.mutate(func() error {
		report = e.store.Migrate(&e.legacy)
		return nil
	})
	return report, err
}

// Selections returns a copy of the current selections.
func (e *Engine) Selections() (position.Selections, error) {
	var s position.Selections
	err := e.do(func() { s = e.sel.Clone() })
	return s, err
}

// AddTrack appends a track to the manual selection.
func (e *Engine) AddTrack(t core.Track) (position.SelectedTrack, error) {
	var st position.SelectedTrack
	err := e.mutate(func() error {
		var err error
		st, err = e.sel.AddTrack(t)
		return err
	})
	return st, err
}

// RemoveTrack removes a manual selection entry.
func (e *Engine) RemoveTrack(selectionID string) error {
	return e.mutate(func() error { return e.sel.RemoveTrack(selectionID) })
}

// AddPlaylist appends a playlist to a list.
func (e *Engine) AddPlaylist(list position.PlaylistList, p core.Playlist) error {
	return e.mutate(func() error { return e.sel.AddPlaylist(list, p) })
}

// RemovePlaylist removes a playlist from a list.
func (e *Engine) RemovePlaylist(list position.PlaylistList, playlistID string) error {
	return e.mutate(func() error { return e.sel.RemovePlaylist(list, playlistID) })
}

// Cursors returns a copy of the position cursor.
func (e *Engine) Cursors() (position.Cursor, error) {
	var c position.Cursor
	err := e.do(func() { c = e.tracker.Cursor() })
	return c, err
}

// Status returns a snapshot for display.
func (e *Engine) Status() (Status, error) {
	var st Status
	err := e.do(func() {
		now := e.now()
		st = Status{
			Now:            now,
			Timer:          e.timer.Snapshot(),
			InFlight:       e.ctrl.InFlight(),
			Resolution:     schedule.ResolveAt(e.store, now),
			MonitorEnabled: e.opts.MonitorEnabled,
			Settings:       e.settings,
		}
		if c, ok := e.ctrl.Current(); ok {
			st.Cycle = &c
		}
		if e.lastCheck != nil {
			lc := *e.lastCheck
			st.LastCheck = &lc
		}
	})
	return st, err
}

// Reset stops everything and discards all settings, selections,
// schedules and cursors.
func (e *Engine) Reset() error {
	return e.do(func() {
		e.timer.FullStop()
		e.tick.stop()
		e.tick = nil
		e.cancelCycle()

		e.store = schedule.NewStore()
		e.legacy = schedule.Legacy{}
		*e.sel = position.Selections{MaxTracks: e.opts.MaxTracks}
		e.tracker.Reset()
		e.monitor.Reset()
		e.lastCheck = nil
		e.applySettings(e.opts.defaultSettings())

		e.logger.Warn().Msg("all local state reset")
		e.changed()
	})
}
