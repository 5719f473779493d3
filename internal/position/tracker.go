package position

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
)

// DefaultTrackDuration is assumed when the catalog does not report a length.
const DefaultTrackDuration = 180 * time.Second

// Tracker owns the position cursor. It reads the cursor to pick what to
// play next and writes it back when a burst completes. It is not safe for
// concurrent use.
type Tracker struct {
	c      Cursor
	logger zerolog.Logger
}

// NewTracker returns a tracker starting from c.
func NewTracker(c Cursor, logger zerolog.Logger) *Tracker {
	c = c.Clone()
	c.sanitize()
	return &Tracker{c: c, logger: logger}
}

// Cursor returns a copy of the current cursor.
func (t *Tracker) Cursor() Cursor {
	return t.c.Clone()
}

// Reset clears every rotation index and offset.
func (t *Tracker) Reset() {
	t.c = NewCursor()
}

func (t *Tracker) rotationIndex(list PlaylistList) *int {
	if list == ScheduledPlaylists {
		return &t.c.PlaylistRotationIndex
	}
	return &t.c.ManualPlaylistRotationIndex
}

func (t *Tracker) pick(name string, idx, n int) int {
	r, stale := rebase(idx, n)
	if stale {
		t.logger.Debug().
			Err(ierrors.ErrStaleCursor).
			Str("cursor", name).
			Int("stored", idx).
			Int("length", n).
			Int("effective", r).
			Msg("rebased rotation index")
	}
	return r
}

// TrackPick is the next manual track and where to start it.
type TrackPick struct {
	Index      int
	Entry      SelectedTrack
	PositionMs int
}

// NextTrack picks the track the manual rotation points at.
func (t *Tracker) NextTrack(tracks []SelectedTrack) (TrackPick, error) {
	if len(tracks) == 0 {
		return TrackPick{}, ierrors.Configuration("pick track", ierrors.ErrEmptySelection)
	}
	idx := t.pick("trackRotationIndex", t.c.TrackRotationIndex, len(tracks))
	entry := tracks[idx]
	return TrackPick{
		Index:      idx,
		Entry:      entry,
		PositionMs: t.c.TrackOffsets[entry.Track.URI],
	}, nil
}

// TrackAccepted advances the manual rotation past the track at index.
func (t *Tracker) TrackAccepted(index, length int) {
	if length <= 0 {
		t.c.TrackRotationIndex = 0
		return
	}
	t.c.TrackRotationIndex = (index + 1) % length
}

// TrackPlayed records that uri played for played.
func (t *Tracker) TrackPlayed(uri string, played time.Duration) {
	t.c.TrackOffsets[uri] += int(played / time.Millisecond)
}

// PlaylistPick is the next playlist of a list in rotation.
type PlaylistPick struct {
	List     PlaylistList
	Index    int
	Playlist core.Playlist
}

// NextPlaylist picks the playlist the rotation of list points at.
func (t *Tracker) NextPlaylist(list PlaylistList, playlists []core.Playlist) (PlaylistPick, error) {
	if len(playlists) == 0 {
		return PlaylistPick{}, ierrors.Configuration("pick playlist",
			fmt.Errorf("%w: no %s playlists", ierrors.ErrEmptySelection, list))
	}
	idx := t.pick(string(list)+"PlaylistRotationIndex", *t.rotationIndex(list), len(playlists))
	return PlaylistPick{List: list, Index: idx, Playlist: playlists[idx]}, nil
}

// PlaylistTrackPick is the track chosen inside a playlist.
type PlaylistTrackPick struct {
	Index      int
	Length     int
	Track      core.Track
	PositionMs int
}

// NextPlaylistTrack picks the track the playlist's offset points at.
func (t *Tracker) NextPlaylistTrack(playlistID string, tracks []core.Track) (PlaylistTrackPick, error) {
	if len(tracks) == 0 {
		return PlaylistTrackPick{}, fmt.Errorf("playlist %s has no tracks", playlistID)
	}
	idx := t.pick("playlistPositions["+playlistID+"]", t.c.PlaylistOffsets[playlistID], len(tracks))
	track := tracks[idx]
	return PlaylistTrackPick{
		Index:      idx,
		Length:     len(tracks),
		Track:      track,
		PositionMs: t.c.TrackOffsets[track.URI],
	}, nil
}

// PlaylistTrackPlayed records that the picked track of playlistID played
// for played. When the track has been played to its end the playlist moves
// on to its next track and the track offset starts over. It reports
// whether the playlist moved on.
func (t *Tracker) PlaylistTrackPlayed(playlistID string, pick PlaylistTrackPick, played time.Duration) bool {
	duration := pick.Track.DurationMs()
	if duration <= 0 {
		duration = int(DefaultTrackDuration / time.Millisecond)
	}
	offset := t.c.TrackOffsets[pick.Track.URI] + int(played/time.Millisecond)
	if offset >= duration {
		next := pick.Index + 1
		if pick.Length > 0 {
			next %= pick.Length
		}
		t.c.PlaylistOffsets[playlistID] = next
		t.c.TrackOffsets[pick.Track.URI] = 0
		return true
	}
	t.c.TrackOffsets[pick.Track.URI] = offset
	return false
}

// PlaylistCompleted advances the rotation of list past the playlist at
// index.
func (t *Tracker) PlaylistCompleted(list PlaylistList, index, length int) {
	p := t.rotationIndex(list)
	if length <= 0 {
		*p = 0
		return
	}
	*p = (index + 1) % length
}
