package position

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
)

func newTracker() *Tracker {
	return NewTracker(NewCursor(), zerolog.Nop())
}

func TestManualRotationWrapsAround(t *testing.T) {
	var s Selections
	for i := 0; i < 3; i++ {
		_, err := s.AddTrack(track(i))
		require.NoError(t, err)
	}
	tr := newTracker()

	var got []int
	for i := 0; i < 7; i++ {
		pick, err := tr.NextTrack(s.Tracks)
		require.NoError(t, err)
		got = append(got, pick.Index)
		tr.TrackAccepted(pick.Index, len(s.Tracks))
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, got)
}

func TestManualOffsetsAccumulate(t *testing.T) {
	var s Selections
	_, err := s.AddTrack(track(1))
	require.NoError(t, err)
	tr := newTracker()

	for i := 0; i < 3; i++ {
		pick, err := tr.NextTrack(s.Tracks)
		require.NoError(t, err)
		assert.Equal(t, i*30000, pick.PositionMs)
		tr.TrackAccepted(pick.Index, len(s.Tracks))
		tr.TrackPlayed(pick.Entry.Track.URI, 30*time.Second)
	}
	assert.Equal(t, 90000, tr.Cursor().TrackOffsets["spotify:track:t1"])
}

func TestNextTrackEmptySelection(t *testing.T) {
	_, err := newTracker().NextTrack(nil)
	assert.ErrorIs(t, err, ierrors.ErrEmptySelection)
	assert.True(t, ierrors.IsConfiguration(err))
}

func TestStaleIndexRebasedAfterShrink(t *testing.T) {
	var s Selections
	for i := 0; i < 5; i++ {
		_, err := s.AddTrack(track(i))
		require.NoError(t, err)
	}
	c := NewCursor()
	c.TrackRotationIndex = 4
	tr := NewTracker(c, zerolog.Nop())

	require.NoError(t, s.RemoveTrack(s.Tracks[4].SelectionID))
	require.NoError(t, s.RemoveTrack(s.Tracks[3].SelectionID))
	require.NoError(t, s.RemoveTrack(s.Tracks[2].SelectionID))

	pick, err := tr.NextTrack(s.Tracks)
	require.NoError(t, err)
	assert.Equal(t, 0, pick.Index)
	assert.Equal(t, s.Tracks[0].SelectionID, pick.Entry.SelectionID)
}

func TestScheduledOffsetRollsOver(t *testing.T) {
	tr := newTracker()
	tracks := []core.Track{
		{ID: "a", URI: "spotify:track:a", Duration: 90 * time.Second},
		{ID: "b", URI: "spotify:track:b", Duration: 90 * time.Second},
	}

	var positions []int
	var rolled []bool
	for i := 0; i < 3; i++ {
		pick, err := tr.NextPlaylistTrack("pl", tracks)
		require.NoError(t, err)
		assert.Equal(t, "a", pick.Track.ID)
		positions = append(positions, pick.PositionMs)
		rolled = append(rolled, tr.PlaylistTrackPlayed("pl", pick, 30*time.Second))
	}

	assert.Equal(t, []int{0, 30000, 60000}, positions)
	assert.Equal(t, []bool{false, false, true}, rolled)

	c := tr.Cursor()
	assert.Equal(t, 1, c.PlaylistOffsets["pl"])
	assert.Equal(t, 0, c.TrackOffsets["spotify:track:a"])

	pick, err := tr.NextPlaylistTrack("pl", tracks)
	require.NoError(t, err)
	assert.Equal(t, "b", pick.Track.ID)
	assert.Equal(t, 0, pick.PositionMs)
}

func TestScheduledOffsetDefaultsDuration(t *testing.T) {
	tr := newTracker()
	tracks := []core.Track{{ID: "a", URI: "spotify:track:a"}}

	pick, err := tr.NextPlaylistTrack("pl", tracks)
	require.NoError(t, err)
	assert.False(t, tr.PlaylistTrackPlayed("pl", pick, 170*time.Second))

	pick, err = tr.NextPlaylistTrack("pl", tracks)
	require.NoError(t, err)
	assert.Equal(t, 170000, pick.PositionMs)
	assert.True(t, tr.PlaylistTrackPlayed("pl", pick, 10*time.Second))

	// A single-track playlist wraps back onto itself.
	assert.Equal(t, 0, tr.Cursor().PlaylistOffsets["pl"])
}

func TestPlaylistRotationAdvances(t *testing.T) {
	tr := newTracker()
	pls := []core.Playlist{playlist("a"), playlist("b")}

	var got []string
	for i := 0; i < 3; i++ {
		pick, err := tr.NextPlaylist(ScheduledPlaylists, pls)
		require.NoError(t, err)
		got = append(got, pick.Playlist.ID)
		tr.PlaylistCompleted(ScheduledPlaylists, pick.Index, len(pls))
	}
	assert.Equal(t, []string{"a", "b", "a"}, got)
	assert.Equal(t, 0, tr.Cursor().ManualPlaylistRotationIndex, "manual rotation untouched")
}

func TestStalePlaylistIndexRebasedAfterShrink(t *testing.T) {
	var s Selections
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.AddPlaylist(ScheduledPlaylists, playlist(id)))
	}
	c := NewCursor()
	c.PlaylistRotationIndex = 4
	tr := NewTracker(c, zerolog.Nop())

	for _, id := range []string{"e", "d", "c"} {
		require.NoError(t, s.RemovePlaylist(ScheduledPlaylists, id))
	}
	pls := s.Playlists(ScheduledPlaylists)
	require.Len(t, pls, 2)

	pick, err := tr.NextPlaylist(ScheduledPlaylists, pls)
	require.NoError(t, err)
	assert.Equal(t, 0, pick.Index)
	assert.Equal(t, "a", pick.Playlist.ID)

	tr.PlaylistCompleted(ScheduledPlaylists, pick.Index, len(pls))
	assert.Equal(t, 1, tr.Cursor().PlaylistRotationIndex)
}

func TestNextPlaylistEmpty(t *testing.T) {
	_, err := newTracker().NextPlaylist(ScheduledPlaylists, nil)
	assert.ErrorIs(t, err, ierrors.ErrEmptySelection)
}

func TestNewTrackerSanitizes(t *testing.T) {
	tr := NewTracker(Cursor{TrackRotationIndex: -3, TrackOffsets: map[string]int{"x": -5}}, zerolog.Nop())
	c := tr.Cursor()
	assert.Equal(t, 0, c.TrackRotationIndex)
	assert.Equal(t, 0, c.TrackOffsets["x"])
	assert.NotNil(t, c.PlaylistOffsets)
}

func TestCursorCloneIsDeep(t *testing.T) {
	tr := newTracker()
	tr.TrackPlayed("u", time.Second)
	c := tr.Cursor()
	c.TrackOffsets["u"] = 99
	assert.Equal(t, 1000, tr.Cursor().TrackOffsets["u"])
}
