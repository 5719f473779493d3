package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/tessro/interlude/internal/store"
)

func TestTokenStorage(t *testing.T) {
	ctx := context.Background()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	storage := NewTokenStorage(fs, "")

	if storage.Key() != DefaultTokenKey {
		t.Errorf("Key() = %q, want %q", storage.Key(), DefaultTokenKey)
	}

	// Load should return nil for non-existent token
	token, err := storage.Load(ctx)
	if err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if token != nil {
		t.Error("Load() should return nil for non-existent token")
	}

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	saved := &oauth2.Token{
		AccessToken:  "access_123",
		TokenType:    "Bearer",
		RefreshToken: "refresh_456",
		Expiry:       expiry,
	}
	if err := storage.Save(ctx, saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := storage.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "access_123" || loaded.RefreshToken != "refresh_456" {
		t.Errorf("Load() = %+v", loaded)
	}
	if !loaded.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", loaded.Expiry, expiry)
	}

	if err := storage.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if token, _ := storage.Load(ctx); token != nil {
		t.Error("Load() after Delete() should return nil")
	}

	// Deleting twice is fine
	if err := storage.Delete(ctx); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestTokenStorageCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	if err := kv.Set(ctx, DefaultTokenKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	if _, err := NewTokenStorage(kv, "").Load(ctx); err == nil {
		t.Error("Load() should fail on corrupt data")
	}
}
