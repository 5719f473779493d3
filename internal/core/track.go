package core

import "time"

// Track represents a playable catalog track.
type Track struct {
	ID       string        `json:"id"`
	URI      string        `json:"uri"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist,omitempty"`
	Album    string        `json:"album,omitempty"`
	Duration time.Duration `json:"duration"`
}

// DurationMs returns the track length in milliseconds, or 0 when unknown.
func (t Track) DurationMs() int {
	return int(t.Duration / time.Millisecond)
}

// Label returns a short human-readable description of the track.
func (t Track) Label() string {
	switch {
	case t.Title == "":
		return t.URI
	case t.Artist == "":
		return t.Title
	default:
		return t.Title + " - " + t.Artist
	}
}

// Playlist represents a catalog playlist.
type Playlist struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Name       string `json:"name"`
	Owner      string `json:"owner,omitempty"`
	TrackCount int    `json:"track_count,omitempty"`
}

// Label returns a short human-readable description of the playlist.
func (p Playlist) Label() string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name
}
