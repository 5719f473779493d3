// Package playback runs playback cycles: pick what to play from the
// position tracker, play it on the music service, and write the new
// position back once the burst's play window has elapsed.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/position"
)

// DefaultPlayDuration is the length of a burst when none is configured.
const DefaultPlayDuration = 30 * time.Second

// Kind says which path started a cycle.
type Kind string

const (
	Manual    Kind = "manual"
	Scheduled Kind = "scheduled"
)

// Runner lets the controller leave and re-enter its owner's goroutine.
// Go runs blocking work elsewhere; Post runs fn back on the owner's
// goroutine; AfterFunc runs fn on some goroutine after d and returns a
// function that cancels it.
type Runner interface {
	Go(fn func())
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// Cycle describes the burst in flight.
type Cycle struct {
	ID         uint64                `json:"id"`
	Kind       Kind                  `json:"kind"`
	List       position.PlaylistList `json:"list,omitempty"`
	Playlist   *core.Playlist        `json:"playlist,omitempty"`
	Track      core.Track            `json:"track"`
	PositionMs int                   `json:"positionMs"`
	StartedAt  time.Time             `json:"startedAt"`
	Playing    bool                  `json:"playing"`

	trackPick position.TrackPick
	listPick  position.PlaylistPick
	entryPick position.PlaylistTrackPick
	source    func() int
}

// Settings are the controller's tunables.
type Settings struct {
	PlayDuration time.Duration
	DeviceID     string
}

// Hooks lets the owner observe cycle boundaries. All hooks run on the
// owner's goroutine.
type Hooks struct {
	Dispatched func(c Cycle)
	Finished   func(c Cycle, err error)
}

// Controller runs at most one cycle at a time. Every method must be called
// on the owner's goroutine, the same one Runner.Post delivers to.
type Controller struct {
	svc       core.MusicService
	tracker   *position.Tracker
	selection *position.Selections
	notifier  core.Notifier
	runner    Runner
	hooks     Hooks
	settings  Settings
	now       func() time.Time
	logger    zerolog.Logger

	gen    uint64
	flight *Cycle
	cancel context.CancelFunc
	stop   func() bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithHooks sets the cycle boundary hooks.
func WithHooks(h Hooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller over the given tracker and selections, which it
// reads and writes in place.
func New(
	svc core.MusicService,
	tracker *position.Tracker,
	selection *position.Selections,
	notifier core.Notifier,
	runner Runner,
	settings Settings,
	logger zerolog.Logger,
	opts ...Option,
) *Controller {
	if settings.PlayDuration <= 0 {
		settings.PlayDuration = DefaultPlayDuration
	}
	c := &Controller{
		svc:       svc,
		tracker:   tracker,
		selection: selection,
		notifier:  notifier,
		runner:    runner,
		settings:  settings,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSettings replaces the tunables. A cycle in flight keeps its play
// window.
func (c *Controller) SetSettings(s Settings) {
	if s.PlayDuration <= 0 {
		s.PlayDuration = DefaultPlayDuration
	}
	c.settings = s
}

// Settings returns the current tunables.
func (c *Controller) Settings() Settings { return c.settings }

// InFlight reports whether a cycle is running.
func (c *Controller) InFlight() bool { return c.flight != nil }

// Current returns a copy of the cycle in flight.
func (c *Controller) Current() (Cycle, bool) {
	if c.flight == nil {
		return Cycle{}, false
	}
	return *c.flight, true
}

// PlayManual starts a manual cycle. Selected tracks are played in
// rotation; with no tracks selected the manual playlists are used.
func (c *Controller) PlayManual(ctx context.Context) error {
	if c.flight != nil {
		return ierrors.Configuration("manual cycle", ierrors.ErrCycleInFlight)
	}
	switch {
	case len(c.selection.Tracks) > 0:
		return c.startTrack(ctx)
	case len(c.selection.ManualPlaylists) > 0:
		return c.startPlaylist(ctx, Manual, position.ManualPlaylists)
	}
	err := ierrors.Configuration("manual cycle", ierrors.ErrEmptySelection)
	c.notifier.Notify("Nothing to play", "Select tracks or playlists to use the timer.")
	return err
}

// PlayScheduled starts a scheduled cycle over the scheduled playlists.
func (c *Controller) PlayScheduled(ctx context.Context) error {
	if c.flight != nil {
		return ierrors.Configuration("scheduled cycle", ierrors.ErrCycleInFlight)
	}
	if len(c.selection.ScheduledPlaylists) == 0 {
		c.notifier.Notify("No playlists configured", "Add scheduled playlists to use the schedule.")
		return ierrors.Configuration("scheduled cycle", ierrors.ErrEmptySelection)
	}
	return c.startPlaylist(ctx, Scheduled, position.ScheduledPlaylists)
}

// Cancel abandons the cycle in flight. Its completion, if still pending,
// will do no bookkeeping.
func (c *Controller) Cancel() {
	c.gen++
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.flight != nil {
		c.logger.Info().Uint64("cycle", c.flight.ID).Str("kind", string(c.flight.Kind)).Msg("cycle cancelled")
		c.flight = nil
	}
}

func (c *Controller) begin(ctx context.Context, cy *Cycle) context.Context {
	c.gen++
	cy.ID = c.gen
	cy.StartedAt = c.now()
	c.flight = cy
	cctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if c.hooks.Dispatched != nil {
		c.hooks.Dispatched(*cy)
	}
	return cctx
}

func (c *Controller) startTrack(ctx context.Context) error {
	pick, err := c.tracker.NextTrack(c.selection.Tracks)
	if err != nil {
		return err
	}
	cy := &Cycle{
		Kind:       Manual,
		Track:      pick.Entry.Track,
		PositionMs: pick.PositionMs,
		trackPick:  pick,
		source:     func() int { return len(c.selection.Tracks) },
	}
	cctx := c.begin(ctx, cy)
	c.play(cctx, cy.ID, core.PlayRequest{
		TrackURI:   cy.Track.URI,
		PositionMs: cy.PositionMs,
		DeviceID:   c.settings.DeviceID,
	})
	return nil
}

func (c *Controller) startPlaylist(ctx context.Context, kind Kind, list position.PlaylistList) error {
	pick, err := c.tracker.NextPlaylist(list, c.selection.Playlists(list))
	if err != nil {
		return err
	}
	pl := pick.Playlist
	cy := &Cycle{
		Kind:     kind,
		List:     list,
		Playlist: &pl,
		listPick: pick,
		source:   func() int { return len(c.selection.Playlists(list)) },
	}
	cctx := c.begin(ctx, cy)
	id := cy.ID

	c.runner.Go(func() {
		tracks, err := c.svc.PlaylistTracks(cctx, pl.ID)
		c.runner.Post(func() { c.fetched(cctx, id, tracks, err) })
	})
	return nil
}

func (c *Controller) fetched(ctx context.Context, id uint64, tracks []core.Track, err error) {
	if id != c.gen || c.flight == nil {
		return
	}
	cy := c.flight
	if err != nil {
		c.fail(ierrors.ServiceCall("fetch playlist tracks", err))
		return
	}
	entry, err := c.tracker.NextPlaylistTrack(cy.Playlist.ID, tracks)
	if err != nil {
		c.fail(ierrors.ServiceCall("fetch playlist tracks", err))
		return
	}
	cy.entryPick = entry
	cy.Track = entry.Track
	cy.PositionMs = entry.PositionMs

	c.play(ctx, id, core.PlayRequest{
		TrackURI:   entry.Track.URI,
		ContextURI: cy.Playlist.URI,
		PositionMs: entry.PositionMs,
		DeviceID:   c.settings.DeviceID,
	})
}

func (c *Controller) play(ctx context.Context, id uint64, req core.PlayRequest) {
	c.runner.Go(func() {
		err := c.svc.Play(ctx, req)
		c.runner.Post(func() { c.played(id, err) })
	})
}

func (c *Controller) played(id uint64, err error) {
	if id != c.gen || c.flight == nil {
		return
	}
	cy := c.flight
	if err != nil {
		c.fail(ierrors.ServiceCall("play", err))
		return
	}
	cy.Playing = true
	if cy.Kind == Manual && cy.Playlist == nil {
		c.tracker.TrackAccepted(cy.trackPick.Index, cy.source())
	}

	window := c.settings.PlayDuration
	c.logger.Info().
		Uint64("cycle", id).
		Str("kind", string(cy.Kind)).
		Str("track", cy.Track.Label()).
		Int("position_ms", cy.PositionMs).
		Dur("window", window).
		Msg("burst started")

	c.stop = c.runner.AfterFunc(window, func() {
		c.runner.Post(func() { c.complete(id, window) })
	})
}

func (c *Controller) complete(id uint64, window time.Duration) {
	if id != c.gen || c.flight == nil {
		return
	}
	cy := c.flight
	c.stop = nil

	if cy.Playlist == nil {
		c.tracker.TrackPlayed(cy.Track.URI, window)
	} else {
		rolled := c.tracker.PlaylistTrackPlayed(cy.Playlist.ID, cy.entryPick, window)
		c.tracker.PlaylistCompleted(cy.List, cy.listPick.Index, cy.source())
		if rolled {
			c.logger.Debug().Str("playlist", cy.Playlist.ID).Str("track", cy.Track.URI).Msg("track finished, playlist moves on")
		}
	}

	c.pause()
	c.finish(nil)
}

// pause stops the device after a burst. A failure is reported but does
// not undo the bookkeeping.
func (c *Controller) pause() {
	device := c.settings.DeviceID
	c.runner.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.svc.Pause(ctx, device); err != nil {
			c.runner.Post(func() {
				c.logger.Warn().Err(err).Msg("pause after burst")
				c.notifier.Notify("Playback failed", fmt.Sprintf("Could not pause after the burst: %v", err))
			})
		}
	})
}

func (c *Controller) fail(err error) {
	cy := c.flight
	c.logger.Warn().Err(err).Uint64("cycle", cy.ID).Str("kind", string(cy.Kind)).Msg("cycle failed")
	if !errors.Is(err, context.Canceled) {
		c.notifier.Notify("Playback failed", err.Error())
	}
	c.finish(err)
}

func (c *Controller) finish(err error) {
	cy := *c.flight
	c.flight = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if err == nil {
		c.logger.Info().Uint64("cycle", cy.ID).Str("kind", string(cy.Kind)).Msg("burst finished")
	}
	if c.hooks.Finished != nil {
		c.hooks.Finished(cy, err)
	}
}
