// Package server exposes the engine over a small JSON control API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/engine"
	"github.com/tessro/interlude/internal/notify"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/state"
	"github.com/tessro/interlude/internal/telemetry"
	"github.com/tessro/interlude/internal/timer"
)

// Engine is the part of the engine the control API drives.
type Engine interface {
	StartTimer() error
	StopTimer() error
	ResetTimer() error
	Timer() (timer.Snapshot, error)
	UpdateSettings(p engine.SettingsPatch) (state.Settings, error)

	Schedule() (*schedule.Store, error)
	SetBaseDay(day schedule.Day, sched schedule.DaySchedule) error
	SetOverride(date string, sched schedule.DaySchedule) error
	ClearOverride(date string) (bool, error)
	Block(date string) error
	Unblock(date string) (bool, error)
	Effective(date string) (schedule.EffectiveSchedule, error)
	Migrate() (schedule.MigrationReport, error)

	Selections() (position.Selections, error)
	AddTrack(t core.Track) (position.SelectedTrack, error)
	RemoveTrack(selectionID string) error
	AddPlaylist(list position.PlaylistList, p core.Playlist) error
	RemovePlaylist(list position.PlaylistList, playlistID string) error
	Cursors() (position.Cursor, error)

	Status() (engine.Status, error)
	Reset() error
}

// Catalog resolves user references to catalog objects.
type Catalog interface {
	LookupTrack(ctx context.Context, ref string) (core.Track, error)
	LookupPlaylist(ctx context.Context, ref string) (core.Playlist, error)
}

// Server serves the control API.
type Server struct {
	engine  Engine
	catalog Catalog
	notes   *notify.Buffer
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// New creates a control API server. catalog, notes and metrics may be nil.
func New(e Engine, catalog Catalog, notes *notify.Buffer, metrics *telemetry.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		engine:  e,
		catalog: catalog,
		notes:   notes,
		metrics: metrics,
		logger:  logger.With().Str("component", "server").Logger(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/notifications", s.handleNotifications)
	r.Post("/reset", s.handleReset)
	r.Get("/cursors", s.handleCursors)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/timer", func(r chi.Router) {
		r.Get("/", s.handleTimer)
		r.Post("/start", s.handleTimerStart)
		r.Post("/stop", s.handleTimerStop)
		r.Post("/full-stop", s.handleTimerFullStop)
		r.Put("/settings", s.handleTimerSettings)
	})

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", s.handleSchedule)
		r.Put("/base/{day}", s.handleSetBaseDay)
		r.Put("/overrides/{date}", s.handleSetOverride)
		r.Delete("/overrides/{date}", s.handleClearOverride)
		r.Put("/blocked/{date}", s.handleBlock)
		r.Delete("/blocked/{date}", s.handleUnblock)
		r.Get("/effective", s.handleEffective)
		r.Get("/effective/{date}", s.handleEffective)
		r.Post("/migrate", s.handleMigrate)
	})

	r.Route("/selections", func(r chi.Router) {
		r.Get("/tracks", s.handleListTracks)
		r.Post("/tracks", s.handleAddTrack)
		r.Delete("/tracks/{selectionID}", s.handleRemoveTrack)
		r.Get("/playlists/{list}", s.handleListPlaylists)
		r.Post("/playlists/{list}", s.handleAddPlaylist)
		r.Delete("/playlists/{list}/{id}", s.handleRemovePlaylist)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("control API listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
