// Package engine owns interlude's runtime state and runs it on a single
// event loop. The manual timer tick, the schedule poll and the end of
// each burst all post work into that loop, so the timer, the schedule
// monitor and the playback controller never race each other.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/monitor"
	"github.com/tessro/interlude/internal/playback"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/state"
	"github.com/tessro/interlude/internal/store"
	"github.com/tessro/interlude/internal/telemetry"
	"github.com/tessro/interlude/internal/timer"
)

// ErrStopped is returned by API calls made after the engine has stopped.
var ErrStopped = errors.New("engine stopped")

// Options configures an Engine.
type Options struct {
	// Settings for a fresh record. A saved record keeps its own values;
	// UpdateSettings is the only way to change them.
	TimerDuration time.Duration
	PlayDuration  time.Duration
	TimingMode    core.TimingMode

	MaxTracks       int
	DeviceID        string
	TickInterval    time.Duration
	MonitorInterval time.Duration
	MonitorEnabled  bool
	StateKey        string
	Location        *time.Location
	Now             func() time.Time
}

func (o *Options) applyDefaults() {
	if o.TimerDuration <= 0 {
		o.TimerDuration = timer.DefaultDuration
	}
	if o.PlayDuration <= 0 {
		o.PlayDuration = playback.DefaultPlayDuration
	}
	if o.TimingMode == "" {
		o.TimingMode = core.TimingStart
	}
	if o.MaxTracks <= 0 {
		o.MaxTracks = position.DefaultMaxTracks
	}
	if o.TickInterval <= 0 {
		o.TickInterval = timer.Step
	}
	if o.MonitorInterval <= 0 {
		o.MonitorInterval = monitor.DefaultInterval
	}
	if o.StateKey == "" {
		o.StateKey = state.DefaultKey
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

func (o Options) defaultSettings() state.Settings {
	return state.Settings{
		TimerDurationMinutes: o.TimerDuration.Minutes(),
		PlayDurationSeconds:  o.PlayDuration.Seconds(),
		PlaybackTimingMode:   o.TimingMode,
	}
}

// CheckReport describes the most recent schedule check.
type CheckReport struct {
	At         time.Time           `json:"at"`
	Action     monitor.Action      `json:"action"`
	Reason     string              `json:"reason,omitempty"`
	Resolution schedule.Resolution `json:"resolution"`
}

// Engine is the process-wide controller.
type Engine struct {
	opts     Options
	svc      core.MusicService
	kv       store.KV
	notifier core.Notifier
	metrics  *telemetry.Metrics
	logger   zerolog.Logger

	calls   chan func()
	saves   chan *state.Record
	stopped chan struct{}
	running atomic.Bool

	// Owned by the loop goroutine.
	ctx       context.Context
	store     *schedule.Store
	legacy    schedule.Legacy
	sel       *position.Selections
	tracker   *position.Tracker
	timer     *timer.Timer
	monitor   *monitor.Monitor
	ctrl      *playback.Controller
	settings  state.Settings
	tick      *task
	poll      *task
	lastCheck *CheckReport
}

// New returns an engine. Nothing runs until Run is called.
func New(
	svc core.MusicService,
	kv store.KV,
	notifier core.Notifier,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
	opts Options,
) *Engine {
	opts.applyDefaults()
	return &Engine{
		opts:     opts,
		svc:      svc,
		kv:       kv,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With().Str("component", "engine").Logger(),
		calls:    make(chan func(), 64),
		saves:    make(chan *state.Record, 1),
		stopped:  make(chan struct{}),
	}
}

func (e *Engine) now() time.Time {
	return e.opts.Now().In(e.opts.Location)
}

// Run loads the saved state and runs the event loop until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine already running")
	}

	rec, err := state.Load(ctx, e.kv, e.opts.StateKey)
	if err != nil {
		close(e.stopped)
		return ierrors.WithSuggestion(err, "Run 'interlude reset --local' to discard the saved state")
	}
	e.ctx = ctx
	e.build(rec)

	quit := make(chan struct{})
	persisted := make(chan struct{})
	go e.persistLoop(quit, persisted)

	if !e.legacy.Empty() {
		report := e.store.Migrate(&e.legacy)
		e.logger.Info().
			Strs("base_days", report.BaseDays).
			Strs("overrides", report.Overrides).
			Strs("skipped", report.Skipped).
			Msg("migrated legacy schedule")
		e.persist()
	}

	e.monitor.Changed(e.store, e.sel.ScheduledPlaylists)
	if e.opts.MonitorEnabled {
		e.poll = e.startTask(e.opts.MonitorInterval, e.check)
		e.check()
	}

	e.logger.Info().
		Dur("timer", e.settings.TimerDuration()).
		Dur("play", e.settings.PlayDuration()).
		Str("mode", string(e.settings.PlaybackTimingMode)).
		Bool("monitor", e.opts.MonitorEnabled).
		Msg("engine started")

	for {
		select {
		case fn := <-e.calls:
			fn()
		case <-ctx.Done():
			e.shutdown()
			close(e.stopped)
			close(quit)
			<-persisted
			e.logger.Info().Msg("engine stopped")
			return nil
		}
	}
}

func (e *Engine) build(rec *state.Record) {
	if rec == nil {
		rec = state.New(e.opts.defaultSettings())
	}
	e.settings = e.completeSettings(rec.Settings)
	e.store = &rec.Store
	e.store.Normalize()
	e.legacy = rec.Legacy

	sel := rec.Selections
	sel.MaxTracks = e.opts.MaxTracks
	e.sel = &sel
	e.tracker = position.NewTracker(rec.Cursor, e.logger)

	e.timer = timer.New(e.settings.TimerDuration())
	e.monitor = monitor.New(e.settings.PlaybackTimingMode, e.settings.TimerDuration(), e.logger)
	e.ctrl = playback.New(e.svc, e.tracker, e.sel, e.notifier, loopRunner{e},
		playback.Settings{PlayDuration: e.settings.PlayDuration(), DeviceID: e.opts.DeviceID},
		e.logger,
		playback.WithClock(e.now),
		playback.WithHooks(playback.Hooks{Dispatched: e.dispatched, Finished: e.finished}),
	)
}

// completeSettings fills settings the record lacks from the options.
// Values the record already holds are kept.
func (e *Engine) completeSettings(s state.Settings) state.Settings {
	d := e.opts.defaultSettings()
	if s.TimerDurationMinutes <= 0 {
		s.TimerDurationMinutes = d.TimerDurationMinutes
	}
	if s.PlayDurationSeconds <= 0 {
		s.PlayDurationSeconds = d.PlayDurationSeconds
	}
	if _, err := core.ParseTimingMode(string(s.PlaybackTimingMode)); err != nil || s.PlaybackTimingMode == "" {
		s.PlaybackTimingMode = d.PlaybackTimingMode
	}
	return s
}

func (e *Engine) shutdown() {
	e.tick.stop()
	e.poll.stop()
	e.cancelCycle()
	e.persist()
}

// post queues fn for the loop. It gives up once the loop has stopped.
func (e *Engine) post(fn func()) {
	select {
	case e.calls <- fn:
	case <-e.stopped:
	}
}

// do runs fn on the loop and waits for it.
func (e *Engine) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case e.calls <- func() { defer close(ran); fn() }:
	case <-e.stopped:
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-e.stopped:
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// loopRunner gives the playback controller access to the loop.
type loopRunner struct{ e *Engine }

func (r loopRunner) Go(fn func())   { go fn() }
func (r loopRunner) Post(fn func()) { r.e.post(fn) }

func (r loopRunner) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// task is a cancellable periodic job that runs on the loop.
type task struct {
	cancel  context.CancelFunc
	stopped bool
}

func (e *Engine) startTask(every time.Duration, fn func()) *task {
	ctx, cancel := context.WithCancel(e.ctx)
	t := &task{cancel: cancel}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.post(func() {
					// A tick queued before stop must not run.
					if !t.stopped {
						fn()
					}
				})
			}
		}
	}()
	return t
}

func (t *task) stop() {
	if t == nil || t.stopped {
		return
	}
	t.stopped = true
	t.cancel()
}

func (e *Engine) onTick() {
	if e.timer.State() != timer.Running {
		return
	}
	// In end mode the countdown waits for the burst to finish.
	if e.settings.PlaybackTimingMode == core.TimingEnd && e.ctrl.InFlight() {
		return
	}
	if !e.timer.Tick() {
		return
	}

	e.metrics.TimerExpired()
	e.logger.Debug().Msg("timer expired")
	if err := e.ctrl.PlayManual(e.ctx); err != nil {
		e.logger.Warn().Err(err).Msg("manual cycle not started")
		if errors.Is(err, ierrors.ErrCycleInFlight) {
			e.notifier.Notify("Burst skipped", "A playback cycle was still running when the timer expired.")
		}
	}
	e.timer.Rearm()
}

func (e *Engine) check() {
	now := e.now()
	d := e.monitor.Check(monitor.Inputs{
		Now:          now,
		TimerRunning: e.timer.State() == timer.Running,
		InFlight:     e.ctrl.InFlight(),
		Store:        e.store,
		Playlists:    e.sel.ScheduledPlaylists,
	})
	e.lastCheck = &CheckReport{At: now, Action: d.Action, Reason: d.Reason, Resolution: d.Resolution}
	e.metrics.Check(string(d.Action))

	level := zerolog.DebugLevel
	if d.Action == monitor.Fire || d.Action == monitor.NoPlaylists {
		level = zerolog.InfoLevel
	}
	e.logger.WithLevel(level).
		Str("action", string(d.Action)).
		Str("reason", d.Reason).
		Str("slot", d.Resolution.Slot).
		Str("source", string(d.Resolution.Source)).
		Msg("schedule check")

	switch d.Action {
	case monitor.Fire:
		if err := e.ctrl.PlayScheduled(e.ctx); err != nil {
			e.logger.Warn().Err(err).Msg("scheduled cycle not started")
		}
	case monitor.NoPlaylists:
		e.notifier.Notify("No playlists configured", "The schedule is active but no scheduled playlists are selected.")
	}
}

func (e *Engine) dispatched(c playback.Cycle) {
	e.metrics.CycleStarted()
	if c.Kind == playback.Scheduled {
		e.monitor.Dispatched(c.StartedAt)
	}
}

func (e *Engine) finished(c playback.Cycle, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	e.metrics.CycleFinished(string(c.Kind), result, e.now().Sub(c.StartedAt).Seconds())
	if c.Kind == playback.Scheduled {
		e.monitor.Finished(e.now())
	}
	if err == nil {
		e.persist()
	}
}

func (e *Engine) cancelCycle() {
	if c, ok := e.ctrl.Current(); ok {
		e.metrics.CycleCancelled(string(c.Kind))
	}
	e.ctrl.Cancel()
}

// changed persists the state and re-checks the schedule if its
// configuration moved.
func (e *Engine) changed() {
	e.persist()
	if e.monitor.Changed(e.store, e.sel.ScheduledPlaylists) && e.opts.MonitorEnabled {
		e.check()
	}
}

func (e *Engine) record() *state.Record {
	return &state.Record{
		Store:      *e.store.Clone(),
		Legacy:     e.legacy,
		Selections: e.sel.Clone(),
		Cursor:     e.tracker.Cursor(),
		Settings:   e.settings,
	}
}

// persist hands the current state to the writer, replacing any record
// it has not picked up yet.
func (e *Engine) persist() {
	rec := e.record()
	for {
		select {
		case e.saves <- rec:
			return
		default:
		}
		select {
		case <-e.saves:
		default:
		}
	}
}

func (e *Engine) persistLoop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case rec := <-e.saves:
			e.save(rec)
		case <-quit:
			select {
			case rec := <-e.saves:
				e.save(rec)
			default:
			}
			return
		}
	}
}

func (e *Engine) save(rec *state.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := state.Save(ctx, e.kv, e.opts.StateKey, rec); err != nil {
		e.metrics.PersistFailed()
		e.logger.Error().Err(err).Msg("persist state")
	}
}
