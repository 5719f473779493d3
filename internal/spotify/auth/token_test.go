package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/store"
)

func tokenServer(t *testing.T, handle func(r *http.Request) map[string]any) *Config {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handle(r))
	}))
	t.Cleanup(server.Close)

	cfg := NewConfig("test_client", "http://127.0.0.1:8888/callback")
	cfg.Endpoint = &oauth2.Endpoint{
		AuthURL:   server.URL + "/authorize",
		TokenURL:  server.URL + "/api/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return cfg
}

func TestExchange(t *testing.T) {
	cfg := tokenServer(t, func(r *http.Request) map[string]any {
		if got := r.Form.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("code_verifier"); got != "verifier" {
			t.Errorf("code_verifier = %q", got)
		}
		if got := r.Form.Get("client_id"); got != "test_client" {
			t.Errorf("client_id = %q", got)
		}
		return map[string]any{
			"access_token":  "new_access",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "new_refresh",
		}
	})

	tok, err := cfg.Exchange(context.Background(), "code", &PKCE{Verifier: "verifier"})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if tok.AccessToken != "new_access" || tok.RefreshToken != "new_refresh" {
		t.Errorf("token = %+v", tok)
	}
	if time.Until(tok.Expiry) < 50*time.Minute {
		t.Errorf("Expiry = %v", tok.Expiry)
	}
}

func TestExchangeError(t *testing.T) {
	cfg := tokenServer(t, func(r *http.Request) map[string]any {
		return map[string]any{"error": "invalid_grant", "error_description": "bad code"}
	})

	if _, err := cfg.Exchange(context.Background(), "code", &PKCE{Verifier: "v"}); err == nil {
		t.Error("Exchange() should fail on an error response")
	}
}

func TestTokenSourceNotAuthenticated(t *testing.T) {
	cfg := NewConfig("id", "")
	storage := NewTokenStorage(store.NewMemoryStore(), "")

	_, err := cfg.TokenSource(context.Background(), storage, zerolog.Nop())
	if !errors.Is(err, ierrors.ErrNotAuthenticated) {
		t.Errorf("TokenSource() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestTokenSourceRefreshesAndPersists(t *testing.T) {
	ctx := context.Background()
	cfg := tokenServer(t, func(r *http.Request) map[string]any {
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("refresh_token"); got != "old_refresh" {
			t.Errorf("refresh_token = %q", got)
		}
		return map[string]any{
			"access_token": "fresh_access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
	})

	storage := NewTokenStorage(store.NewMemoryStore(), "")
	expired := &oauth2.Token{
		AccessToken:  "stale_access",
		RefreshToken: "old_refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := storage.Save(ctx, expired); err != nil {
		t.Fatal(err)
	}

	src, err := cfg.TokenSource(ctx, storage, zerolog.Nop())
	if err != nil {
		t.Fatalf("TokenSource() error = %v", err)
	}
	tok, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "fresh_access" {
		t.Errorf("AccessToken = %q, want fresh_access", tok.AccessToken)
	}

	persisted, err := storage.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if persisted.AccessToken != "fresh_access" {
		t.Errorf("persisted AccessToken = %q", persisted.AccessToken)
	}
	// The token endpoint omitted a refresh token, so the old one is kept.
	if persisted.RefreshToken != "old_refresh" {
		t.Errorf("persisted RefreshToken = %q", persisted.RefreshToken)
	}
}
