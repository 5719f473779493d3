package remote

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/engine"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/notify"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/server"
	"github.com/tessro/interlude/internal/store"
	"github.com/tessro/interlude/internal/timer"
)

type nopService struct{}

func (nopService) Play(context.Context, core.PlayRequest) error { return nil }
func (nopService) PlaylistTracks(context.Context, string) ([]core.Track, error) {
	return nil, nil
}
func (nopService) Devices(context.Context) ([]core.Device, error) { return nil, nil }
func (nopService) Pause(context.Context, string) error            { return nil }

type catalog struct{}

func (catalog) LookupTrack(_ context.Context, ref string) (core.Track, error) {
	return core.Track{ID: ref, URI: "spotify:track:" + ref, Title: ref}, nil
}

func (catalog) LookupPlaylist(_ context.Context, ref string) (core.Playlist, error) {
	return core.Playlist{ID: ref, URI: "spotify:playlist:" + ref, Name: ref}, nil
}

func newClient(t *testing.T) *Client {
	t.Helper()
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC) // a Tuesday
	notes := notify.NewBuffer(5)
	eng := engine.New(nopService{}, store.NewMemoryStore(), notes, nil, zerolog.Nop(), engine.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := httptest.NewServer(server.New(eng, catalog{}, notes, nil, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return New(srv.URL, zerolog.Nop())
}

func TestUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(addr, zerolog.Nop()).Status(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ierrors.ErrDaemonUnreachable), err.Error())
	assert.Contains(t, ierrors.GetSuggestion(err), "interlude run")
}

func TestErrorMapping(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.StartTimer(ctx)
	require.Error(t, err)
	assert.True(t, ierrors.IsConfiguration(err))
	assert.Contains(t, ierrors.GetSuggestion(err), "interlude tracks add")

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusBadRequest, rerr.Status)

	err = c.RemoveTrack(ctx, "nope")
	assert.True(t, errors.Is(err, ierrors.ErrSelectionNotFound), err)
}

func TestRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	st, err := c.AddTrack(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "spotify:track:t1", st.Track.URI)

	tracks, err := c.Tracks(ctx)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)

	snap, err := c.StartTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, timer.Running, snap.State)
	snap, err = c.FullStopTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, timer.Idle, snap.State)

	settings, err := c.UpdateSettings(ctx, server.SettingsRequest{PlayDuration: "20s"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, settings.PlayDurationSeconds)

	require.NoError(t, c.SetBaseDay(ctx, schedule.Tuesday, server.DayRequest{Slots: []string{"12:00"}}))
	sched, err := c.Schedule(ctx)
	require.NoError(t, err)
	assert.True(t, sched.Base[schedule.Tuesday].Fires("12:00"))

	require.NoError(t, c.Block(ctx, "2026-03-03"))
	eff, err := c.Effective(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, schedule.SourceBlocked, eff.Source)
	removed, err := c.Unblock(ctx, "2026-03-03")
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, c.SetOverride(ctx, "2026-03-04", server.DayRequest{WholeDay: true}))
	removed, err = c.ClearOverride(ctx, "2026-03-04")
	require.NoError(t, err)
	assert.True(t, removed)

	pl, err := c.AddPlaylist(ctx, position.ScheduledPlaylists, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", pl.ID)
	pls, err := c.Playlists(ctx, position.ScheduledPlaylists)
	require.NoError(t, err)
	assert.Len(t, pls, 1)
	require.NoError(t, c.RemovePlaylist(ctx, position.ScheduledPlaylists, "p1"))

	report, err := c.Migrate(ctx)
	require.NoError(t, err)
	assert.False(t, report.Changed())

	_, err = c.Cursors(ctx)
	require.NoError(t, err)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12:00", status.Resolution.Slot)

	require.NoError(t, c.Reset(ctx))
	tracks, err = c.Tracks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tracks)

	_, err = c.Notifications(ctx)
	require.NoError(t, err)
}

