package core

import "context"

// PlayRequest describes a single play call.
//
// When ContextURI is set the track is played inside that context (a
// playlist), so the device keeps playing the context after the burst.
// Otherwise TrackURI is played on its own.
type PlayRequest struct {
	TrackURI   string
	ContextURI string
	PositionMs int
	DeviceID   string
}

// MusicService is the playback API consumed by the engine.
type MusicService interface {
	Play(ctx context.Context, req PlayRequest) error
	PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error)
	Devices(ctx context.Context) ([]Device, error)
	Pause(ctx context.Context, deviceID string) error
}

// Notifier receives user-facing notifications. Notify must not block.
type Notifier interface {
	Notify(title, body string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, body string)

// Notify calls f(title, body).
func (f NotifierFunc) Notify(title, body string) {
	f(title, body)
}
