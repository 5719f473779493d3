package auth

import (
	"net/url"
	"strings"
	"testing"
)

func TestAuthURL(t *testing.T) {
	pkce := &PKCE{
		Verifier: "test_verifier_test_verifier_test_verifier_0123",
		State:    "test_state",
	}

	cfg := NewConfig("test_client_id", "http://localhost:8888/callback")
	cfg.Scopes = []string{"user-read-private", "playlist-read-private"}

	authURL := cfg.AuthURL(pkce)

	// Parse the URL
	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("AuthURL() produced invalid URL: %v", err)
	}

	// Verify base URL
	if u.Scheme != "https" || u.Host != "accounts.spotify.com" || u.Path != "/authorize" {
		t.Errorf("AuthURL() base URL = %s://%s%s, want https://accounts.spotify.com/authorize",
			u.Scheme, u.Host, u.Path)
	}

	q := u.Query()

	tests := []struct {
		param string
		want  string
	}{
		{"client_id", "test_client_id"},
		{"response_type", "code"},
		{"redirect_uri", "http://localhost:8888/callback"},
		{"code_challenge_method", "S256"},
		{"state", "test_state"},
		{"scope", "user-read-private playlist-read-private"},
	}

	for _, tt := range tests {
		if got := q.Get(tt.param); got != tt.want {
			t.Errorf("AuthURL() %s = %q, want %q", tt.param, got, tt.want)
		}
	}

	if q.Get("code_challenge") == "" || q.Get("code_challenge") == pkce.Verifier {
		t.Errorf("code_challenge = %q, want S256 of the verifier", q.Get("code_challenge"))
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("id", "")
	if cfg.RedirectURI != DefaultRedirectURI {
		t.Errorf("RedirectURI = %q, want %q", cfg.RedirectURI, DefaultRedirectURI)
	}
	if len(cfg.Scopes) != len(DefaultScopes) {
		t.Errorf("Scopes = %v", cfg.Scopes)
	}

	joined := strings.Join(cfg.Scopes, " ")
	for _, want := range []string{"user-modify-playback-state", "playlist-read-private"} {
		if !strings.Contains(joined, want) {
			t.Errorf("DefaultScopes missing %q", want)
		}
	}
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		uri      string
		wantAddr string
		wantPath string
		wantErr  bool
	}{
		{"http://127.0.0.1:8888/callback", "127.0.0.1:8888", "/callback", false},
		{"http://localhost:9000", "localhost:9000", "/", false},
		{"https://example.com/callback", "", "", true},
		{"::", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			cfg := NewConfig("id", tt.uri)
			addr, path, err := cfg.CallbackAddr()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CallbackAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if addr != tt.wantAddr || path != tt.wantPath {
				t.Errorf("CallbackAddr() = %q, %q", addr, path)
			}
		})
	}
}
