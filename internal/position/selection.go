package position

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
)

// DefaultMaxTracks bounds the manual track selection when no limit is set.
const DefaultMaxTracks = 10

// newSelectionID generates synthetic selection identifiers.
var newSelectionID = uuid.NewString

// SelectedTrack is one entry of the manual track selection. The same
// catalog track may be selected more than once; SelectionID tells the
// entries apart.
type SelectedTrack struct {
	SelectionID string     `json:"selectionId"`
	Track       core.Track `json:"track"`
}

// PlaylistList names one of the two playlist selections.
type PlaylistList string

const (
	// ManualPlaylists is the ad-hoc list used by the manual timer.
	ManualPlaylists PlaylistList = "manual"
	// ScheduledPlaylists is the list rotated by the schedule monitor.
	ScheduledPlaylists PlaylistList = "scheduled"
)

// ParsePlaylistList validates a list name.
func ParsePlaylistList(s string) (PlaylistList, error) {
	switch PlaylistList(s) {
	case ManualPlaylists, ScheduledPlaylists:
		return PlaylistList(s), nil
	}
	return "", fmt.Errorf("unknown playlist list %q (must be manual or scheduled)", s)
}

// Selections holds the user's track and playlist choices. Entries keep
// their insertion order and are never reordered automatically.
type Selections struct {
	Tracks             []SelectedTrack `json:"manualTrackSelection"`
	ManualPlaylists    []core.Playlist `json:"manualPlaylistSelection"`
	ScheduledPlaylists []core.Playlist `json:"scheduledPlaylistSelection"`

	MaxTracks int `json:"-"`
}

func (s *Selections) maxTracks() int {
	if s.MaxTracks <= 0 {
		return DefaultMaxTracks
	}
	return s.MaxTracks
}

// AddTrack appends a track under a fresh selection ID.
func (s *Selections) AddTrack(t core.Track) (SelectedTrack, error) {
	if t.URI == "" {
		return SelectedTrack{}, ierrors.Configuration("add track", fmt.Errorf("track has no uri"))
	}
	if len(s.Tracks) >= s.maxTracks() {
		return SelectedTrack{}, ierrors.Configuration("add track",
			fmt.Errorf("%w: at most %d tracks", ierrors.ErrSelectionFull, s.maxTracks()))
	}
	entry := SelectedTrack{SelectionID: newSelectionID(), Track: t}
	s.Tracks = append(s.Tracks, entry)
	return entry, nil
}

// RemoveTrack removes the entry with the given selection ID.
func (s *Selections) RemoveTrack(selectionID string) error {
	for i, st := range s.Tracks {
		if st.SelectionID == selectionID {
			s.Tracks = append(s.Tracks[:i:i], s.Tracks[i+1:]...)
			return nil
		}
	}
	return ierrors.Configuration("remove track", fmt.Errorf("%w: %s", ierrors.ErrSelectionNotFound, selectionID))
}

// Playlists returns the named playlist list.
func (s *Selections) Playlists(list PlaylistList) []core.Playlist {
	if list == ScheduledPlaylists {
		return s.ScheduledPlaylists
	}
	return s.ManualPlaylists
}

func (s *Selections) setPlaylists(list PlaylistList, pls []core.Playlist) {
	if list == ScheduledPlaylists {
		s.ScheduledPlaylists = pls
		return
	}
	s.ManualPlaylists = pls
}

// AddPlaylist appends a playlist to the named list. Duplicates are rejected.
func (s *Selections) AddPlaylist(list PlaylistList, p core.Playlist) error {
	if p.ID == "" {
		return ierrors.Configuration("add playlist", fmt.Errorf("playlist has no id"))
	}
	current := s.Playlists(list)
	for _, existing := range current {
		if existing.ID == p.ID {
			return ierrors.Configuration("add playlist", fmt.Errorf("%w: %s", ierrors.ErrDuplicatePlaylist, p.Label()))
		}
	}
	s.setPlaylists(list, append(current, p))
	return nil
}

// RemovePlaylist removes a playlist from the named list.
func (s *Selections) RemovePlaylist(list PlaylistList, playlistID string) error {
	current := s.Playlists(list)
	for i, p := range current {
		if p.ID == playlistID {
			s.setPlaylists(list, append(current[:i:i], current[i+1:]...))
			return nil
		}
	}
	return ierrors.Configuration("remove playlist", fmt.Errorf("%w: %s", ierrors.ErrSelectionNotFound, playlistID))
}

// HasManual reports whether the manual timer has anything to play.
func (s *Selections) HasManual() bool {
	return len(s.Tracks) > 0 || len(s.ManualPlaylists) > 0
}

// Clone returns a copy that shares no slices with s.
func (s *Selections) Clone() Selections {
	return Selections{
		Tracks:             append([]SelectedTrack(nil), s.Tracks...),
		ManualPlaylists:    append([]core.Playlist(nil), s.ManualPlaylists...),
		ScheduledPlaylists: append([]core.Playlist(nil), s.ScheduledPlaylists...),
		MaxTracks:          s.MaxTracks,
	}
}
