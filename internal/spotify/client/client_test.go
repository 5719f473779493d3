package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ierrors "github.com/tessro/interlude/internal/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.Client(), WithBaseURL(srv.URL))
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{
			name:   "no params",
			path:   "/me",
			params: nil,
			want:   "/me",
		},
		{
			name:   "empty params",
			path:   "/me",
			params: map[string]string{},
			want:   "/me",
		},
		{
			name:   "single param",
			path:   "/me/player/play",
			params: map[string]string{"device_id": "abc"},
			want:   "/me/player/play?device_id=abc",
		},
		{
			name:   "multiple params are sorted",
			path:   "/playlists/x/tracks",
			params: map[string]string{"offset": "100", "limit": "100"},
			want:   "/playlists/x/tracks?limit=100&offset=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{}
	err.ErrorInfo.Status = 401
	err.ErrorInfo.Message = "Invalid access token"

	expected := "Spotify API error 401: Invalid access token"
	if got := err.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
	if !errors.Is(err, ierrors.ErrNotAuthenticated) {
		t.Error("401 should unwrap to ErrNotAuthenticated")
	}
}

func TestAPIErrorSentinels(t *testing.T) {
	tests := []struct {
		status int
		reason string
		path   string
		want   error
	}{
		{404, "", "/me/player/play", ierrors.ErrNoActiveDevice},
		{403, "PREMIUM_REQUIRED", "/me/player/play", ierrors.ErrPremiumRequired},
		{429, "", "/tracks/x", ierrors.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := &APIError{Path: tt.path}
			err.ErrorInfo.Status = tt.status
			err.ErrorInfo.Reason = tt.reason
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}
		})
	}

	notFound := &APIError{Path: "/tracks/x"}
	notFound.ErrorInfo.Status = 404
	if IsNoActiveDeviceError(notFound) {
		t.Error("404 outside the player should not be a device error")
	}
}

func TestRequestDecodesErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`)
	})

	err := c.Play(context.Background(), "", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Play() error = %v, want *APIError", err)
	}
	if apiErr.ErrorInfo.Reason != "NO_ACTIVE_DEVICE" {
		t.Errorf("Reason = %q", apiErr.ErrorInfo.Reason)
	}
	if !IsNoActiveDeviceError(err) {
		t.Error("IsNoActiveDeviceError() = false, want true")
	}
}

func TestRequestPlainErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.GetCurrentUser(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502: upstream exploded") {
		t.Errorf("GetCurrentUser() error = %v", err)
	}
}

func TestPlaySendsBody(t *testing.T) {
	var gotPath, gotQuery string
	var got PlayOptions
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Play(context.Background(), "dev1", &PlayOptions{
		ContextURI: "spotify:playlist:p1",
		Offset:     &PlayOffset{URI: "spotify:track:t1"},
		PositionMS: 30000,
	})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if gotPath != "/me/player/play" || gotQuery != "device_id=dev1" {
		t.Errorf("request = %s?%s", gotPath, gotQuery)
	}
	if got.ContextURI != "spotify:playlist:p1" || got.Offset == nil || got.Offset.URI != "spotify:track:t1" || got.PositionMS != 30000 {
		t.Errorf("body = %+v", got)
	}
}

func TestPause(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.Pause(context.Background(), ""); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if gotPath != "/me/player/pause" {
		t.Errorf("path = %s", gotPath)
	}
}

func TestGetPlaylistTracksPaginates(t *testing.T) {
	var srvURL string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/p1/tracks" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "" {
			fmt.Fprintf(w, `{"items":[
				{"track":{"id":"a","uri":"spotify:track:a","type":"track","duration_ms":1000}},
				{"is_local":true,"track":{"id":"","uri":"spotify:local:x","type":"track"}},
				{"track":null}
			],"next":"%s/playlists/p1/tracks?limit=100&offset=100"}`, srvURL)
			return
		}
		_, _ = io.WriteString(w, `{"items":[
			{"track":{"id":"e","uri":"spotify:episode:e","type":"episode"}},
			{"track":{"id":"b","uri":"spotify:track:b","type":"track","duration_ms":2000}}
		],"next":null}`)
	})
	srvURL = c.baseURL

	tracks, err := c.GetPlaylistTracks(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPlaylistTracks() error = %v", err)
	}
	if len(tracks) != 2 || tracks[0].ID != "a" || tracks[1].ID != "b" {
		t.Fatalf("tracks = %+v", tracks)
	}
	if tracks[1].DurationMS != 2000 {
		t.Errorf("DurationMS = %d", tracks[1].DurationMS)
	}
}

func TestGetDevices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"devices":[{"id":"d1","name":"Kitchen","type":"Speaker","is_active":true}]}`)
	})

	devices, err := c.GetDevices(context.Background())
	if err != nil {
		t.Fatalf("GetDevices() error = %v", err)
	}
	if len(devices) != 1 || devices[0].Name != "Kitchen" || !devices[0].IsActive {
		t.Errorf("devices = %+v", devices)
	}
}
