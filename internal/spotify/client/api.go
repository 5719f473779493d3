package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// playlistPageSize is the largest page the playlist items endpoint serves.
const playlistPageSize = 100

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDevices returns the user's available playback devices.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp DevicesResponse
	if err := c.Get(ctx, "/me/player/devices", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetTrack returns a track by ID.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	var track Track
	if err := c.Get(ctx, "/tracks/"+url.PathEscape(id), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// GetPlaylist returns a playlist's metadata by ID.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	path := BuildURL("/playlists/"+url.PathEscape(id), map[string]string{
		"fields": "id,name,uri,owner(id,display_name),tracks(total)",
	})
	var pl Playlist
	if err := c.Get(ctx, path, &pl); err != nil {
		return nil, err
	}
	return &pl, nil
}

// GetPlaylistTracks returns every playable track of a playlist in order,
// following pagination. Local files, episodes and removed tracks are
// skipped.
func (c *Client) GetPlaylistTracks(ctx context.Context, id string) ([]Track, error) {
	path := BuildURL("/playlists/"+url.PathEscape(id)+"/tracks", map[string]string{
		"limit":            strconv.Itoa(playlistPageSize),
		"additional_types": "track",
	})

	var tracks []Track
	for path != "" {
		var page PlaylistTracksPage
		if err := c.Get(ctx, path, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil || item.IsLocal || item.Track.ID == "" {
				continue
			}
			if item.Track.Type != "" && item.Track.Type != "track" {
				continue
			}
			tracks = append(tracks, *item.Track)
		}

		if page.Next == "" {
			break
		}
		next, err := c.relative(page.Next)
		if err != nil {
			return nil, err
		}
		if next == path {
			return nil, fmt.Errorf("playlist %s: pagination did not advance", id)
		}
		path = next
	}
	return tracks, nil
}
