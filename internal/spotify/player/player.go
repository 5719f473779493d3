package player

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/spotify/client"
)

// Player implements core.MusicService for Spotify.
type Player struct {
	client *client.Client
}

// New creates a new Spotify player.
func New(c *client.Client) *Player {
	return &Player{client: c}
}

// Play starts a burst. With a context URI the track is addressed inside the
// playlist so the device carries on with the playlist afterwards.
func (p *Player) Play(ctx context.Context, req core.PlayRequest) error {
	opts := &client.PlayOptions{PositionMS: req.PositionMs}
	if req.ContextURI != "" {
		opts.ContextURI = req.ContextURI
		if req.TrackURI != "" {
			opts.Offset = &client.PlayOffset{URI: req.TrackURI}
		}
	} else {
		opts.URIs = []string{req.TrackURI}
	}
	return p.client.Play(ctx, req.DeviceID, opts)
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context, deviceID string) error {
	return p.client.Pause(ctx, deviceID)
}

// PlaylistTracks returns the playable tracks of a playlist in order.
func (p *Player) PlaylistTracks(ctx context.Context, playlistID string) ([]core.Track, error) {
	tracks, err := p.client.GetPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	result := make([]core.Track, 0, len(tracks))
	for i := range tracks {
		if tracks[i].IsPlayable != nil && !*tracks[i].IsPlayable {
			continue
		}
		result = append(result, *convertTrack(&tracks[i]))
	}
	return result, nil
}

// Devices returns the user's available playback devices.
func (p *Player) Devices(ctx context.Context) ([]core.Device, error) {
	devices, err := p.client.GetDevices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]core.Device, len(devices))
	for i, d := range devices {
		result[i] = *convertDevice(&d)
	}
	return result, nil
}

// LookupTrack resolves a track URI, link or ID against the catalog.
func (p *Player) LookupTrack(ctx context.Context, ref string) (core.Track, error) {
	id, err := client.ParseID(client.KindTrack, ref)
	if err != nil {
		return core.Track{}, err
	}
	t, err := p.client.GetTrack(ctx, id)
	if err != nil {
		return core.Track{}, fmt.Errorf("look up track %s: %w", id, err)
	}
	return *convertTrack(t), nil
}

// LookupPlaylist resolves a playlist URI, link or ID against the catalog.
func (p *Player) LookupPlaylist(ctx context.Context, ref string) (core.Playlist, error) {
	id, err := client.ParseID(client.KindPlaylist, ref)
	if err != nil {
		return core.Playlist{}, err
	}
	pl, err := p.client.GetPlaylist(ctx, id)
	if err != nil {
		return core.Playlist{}, fmt.Errorf("look up playlist %s: %w", id, err)
	}
	return convertPlaylist(pl), nil
}

// CheckPremium fails unless the signed-in account can control playback.
func (p *Player) CheckPremium(ctx context.Context) (*client.User, error) {
	user, err := p.client.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsPremium() {
		return user, fmt.Errorf("account %s is on the %s plan: %w", user.ID, user.Product, ierrors.ErrPremiumRequired)
	}
	return user, nil
}

// FindDevice returns the device whose ID or name matches, ignoring case.
func FindDevice(devices []core.Device, query string) (core.Device, error) {
	for _, d := range devices {
		if d.ID == query {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name, query) {
			return d, nil
		}
	}
	return core.Device{}, fmt.Errorf("%w: %s", ierrors.ErrDeviceNotFound, query)
}

// convertTrack converts a Spotify track to a core track.
func convertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return &core.Track{
		ID:       t.ID,
		URI:      t.URI,
		Title:    t.Name,
		Artist:   strings.Join(artists, ", "),
		Album:    t.Album.Name,
		Duration: time.Duration(t.DurationMS) * time.Millisecond,
	}
}

func convertPlaylist(p *client.Playlist) core.Playlist {
	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}
	return core.Playlist{
		ID:         p.ID,
		URI:        p.URI,
		Name:       p.Name,
		Owner:      owner,
		TrackCount: p.Tracks.Total,
	}
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceTypeOther
	// Map Spotify device types to core types
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone":
		deviceType = core.DeviceTypePhone
	case "Speaker", "AVR", "CastAudio":
		deviceType = core.DeviceTypeSpeaker
	case "TV", "CastVideo":
		deviceType = core.DeviceTypeTV
	}

	return &core.Device{
		ID:           d.ID,
		Name:         d.Name,
		Type:         deviceType,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
		Volume:       d.VolumePercent,
	}
}

// Ensure Player implements core.MusicService
var _ core.MusicService = (*Player)(nil)
