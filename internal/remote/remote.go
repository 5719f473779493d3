// Package remote is the control API client used by CLI commands.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/engine"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/notify"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/server"
	"github.com/tessro/interlude/internal/state"
	"github.com/tessro/interlude/internal/timer"
)

// Client talks to a running daemon.
type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

// New returns a client for the daemon listening on addr (host:port or a
// full URL).
func New(addr string, logger zerolog.Logger) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Error is a failure reported by the daemon.
type Error struct {
	Status int
	Body   server.ErrorResponse
}

func (e *Error) Error() string {
	return e.Body.Error
}

// Unwrap lets callers use the usual checks on daemon errors.
func (e *Error) Unwrap() error {
	switch e.Body.Code {
	case server.CodeConfiguration:
		return &ierrors.ConfigurationError{Op: "daemon", Err: errors.New(e.Body.Error)}
	case server.CodeService:
		return &ierrors.ServiceCallFailure{Op: "daemon", Err: errors.New(e.Body.Error)}
	case server.CodeConflict:
		if strings.Contains(e.Body.Error, ierrors.ErrCycleInFlight.Error()) {
			return ierrors.ErrCycleInFlight
		}
		return ierrors.ErrInvalidState
	case server.CodeNotFound:
		return ierrors.ErrSelectionNotFound
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("daemon request")
	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		var opErr *net.OpError
		if errors.As(err, &opErr) || errors.As(err, &netErr) {
			return ierrors.WithSuggestion(
				fmt.Errorf("%w at %s: %v", ierrors.ErrDaemonUnreachable, c.base, err),
				ierrors.GetSuggestion(ierrors.ErrDaemonUnreachable),
			)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("daemon response")

	if resp.StatusCode >= 400 {
		e := &Error{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, &e.Body); jerr != nil || e.Body.Error == "" {
			e.Body.Error = fmt.Sprintf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		if e.Body.Suggestion != "" {
			return ierrors.WithSuggestion(e, e.Body.Suggestion)
		}
		return e
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Status returns the engine status.
func (c *Client) Status(ctx context.Context) (engine.Status, error) {
	var st engine.Status
	err := c.call(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

// Notifications returns recent notifications, oldest first.
func (c *Client) Notifications(ctx context.Context) ([]notify.Notification, error) {
	var out []notify.Notification
	err := c.call(ctx, http.MethodGet, "/notifications", nil, &out)
	return out, err
}

// Reset discards all local state held by the daemon.
func (c *Client) Reset(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/reset", nil, nil)
}

// Cursors returns the position cursor.
func (c *Client) Cursors(ctx context.Context) (position.Cursor, error) {
	var cur position.Cursor
	err := c.call(ctx, http.MethodGet, "/cursors", nil, &cur)
	return cur, err
}

// Timer returns the timer state.
func (c *Client) Timer(ctx context.Context) (timer.Snapshot, error) {
	var snap timer.Snapshot
	err := c.call(ctx, http.MethodGet, "/timer", nil, &snap)
	return snap, err
}

func (c *Client) timerAction(ctx context.Context, action string) (timer.Snapshot, error) {
	var snap timer.Snapshot
	err := c.call(ctx, http.MethodPost, "/timer/"+action, nil, &snap)
	return snap, err
}

// StartTimer starts or resumes the timer.
func (c *Client) StartTimer(ctx context.Context) (timer.Snapshot, error) {
	return c.timerAction(ctx, "start")
}

// StopTimer pauses the timer.
func (c *Client) StopTimer(ctx context.Context) (timer.Snapshot, error) {
	return c.timerAction(ctx, "stop")
}

// FullStopTimer resets the timer to idle.
func (c *Client) FullStopTimer(ctx context.Context) (timer.Snapshot, error) {
	return c.timerAction(ctx, "full-stop")
}

// UpdateSettings changes playback settings.
func (c *Client) UpdateSettings(ctx context.Context, req server.SettingsRequest) (state.Settings, error) {
	var s state.Settings
	err := c.call(ctx, http.MethodPut, "/timer/settings", req, &s)
	return s, err
}

// Schedule returns the schedule store.
func (c *Client) Schedule(ctx context.Context) (*schedule.Store, error) {
	var s schedule.Store
	if err := c.call(ctx, http.MethodGet, "/schedule", nil, &s); err != nil {
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

// SetBaseDay replaces the base schedule of a weekday.
func (c *Client) SetBaseDay(ctx context.Context, day schedule.Day, req server.DayRequest) error {
	return c.call(ctx, http.MethodPut, "/schedule/base/"+url.PathEscape(day.String()), req, nil)
}

// SetOverride replaces the schedule of one date.
func (c *Client) SetOverride(ctx context.Context, date string, req server.DayRequest) error {
	return c.call(ctx, http.MethodPut, "/schedule/overrides/"+url.PathEscape(date), req, nil)
}

// ClearOverride removes a date override.
func (c *Client) ClearOverride(ctx context.Context, date string) (bool, error) {
	var r server.RemovedResponse
	err := c.call(ctx, http.MethodDelete, "/schedule/overrides/"+url.PathEscape(date), nil, &r)
	return r.Removed, err
}

// Block silences a date.
func (c *Client) Block(ctx context.Context, date string) error {
	return c.call(ctx, http.MethodPut, "/schedule/blocked/"+url.PathEscape(date), nil, nil)
}

// Unblock lifts a block.
func (c *Client) Unblock(ctx context.Context, date string) (bool, error) {
	var r server.RemovedResponse
	err := c.call(ctx, http.MethodDelete, "/schedule/blocked/"+url.PathEscape(date), nil, &r)
	return r.Removed, err
}

// Effective resolves a date. An empty date means today.
func (c *Client) Effective(ctx context.Context, date string) (schedule.EffectiveSchedule, error) {
	path := "/schedule/effective"
	if date != "" {
		path += "/" + url.PathEscape(date)
	}
	var eff schedule.EffectiveSchedule
	err := c.call(ctx, http.MethodGet, path, nil, &eff)
	return eff, err
}

// Migrate folds legacy schedule maps into the store.
func (c *Client) Migrate(ctx context.Context) (schedule.MigrationReport, error) {
	var r schedule.MigrationReport
	err := c.call(ctx, http.MethodPost, "/schedule/migrate", nil, &r)
	return r, err
}

// Tracks lists the manual track selection.
func (c *Client) Tracks(ctx context.Context) ([]position.SelectedTrack, error) {
	var out []position.SelectedTrack
	err := c.call(ctx, http.MethodGet, "/selections/tracks", nil, &out)
	return out, err
}

// AddTrack adds a track by URI, link or ID.
func (c *Client) AddTrack(ctx context.Context, ref string) (position.SelectedTrack, error) {
	var st position.SelectedTrack
	err := c.call(ctx, http.MethodPost, "/selections/tracks", server.TrackRequest{Ref: ref}, &st)
	return st, err
}

// RemoveTrack removes a manual selection entry.
func (c *Client) RemoveTrack(ctx context.Context, selectionID string) error {
	return c.call(ctx, http.MethodDelete, "/selections/tracks/"+url.PathEscape(selectionID), nil, nil)
}

// Playlists lists one playlist selection.
func (c *Client) Playlists(ctx context.Context, list position.PlaylistList) ([]core.Playlist, error) {
	var out []core.Playlist
	err := c.call(ctx, http.MethodGet, "/selections/playlists/"+string(list), nil, &out)
	return out, err
}

// AddPlaylist adds a playlist by URI, link or ID.
func (c *Client) AddPlaylist(ctx context.Context, list position.PlaylistList, ref string) (core.Playlist, error) {
	var pl core.Playlist
	err := c.call(ctx, http.MethodPost, "/selections/playlists/"+string(list), server.PlaylistRequest{Ref: ref}, &pl)
	return pl, err
}

// RemovePlaylist removes a playlist from a selection.
func (c *Client) RemovePlaylist(ctx context.Context, list position.PlaylistList, id string) error {
	return c.call(ctx, http.MethodDelete, "/selections/playlists/"+string(list)+"/"+url.PathEscape(id), nil, nil)
}
