package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/tessro/interlude/internal/store"
)

// DefaultTokenKey is the store key under which the token is kept.
const DefaultTokenKey = "interlude:token"

// TokenStorage persists the OAuth token in a key-value store.
type TokenStorage struct {
	kv  store.KV
	key string
}

// NewTokenStorage creates a token storage under key. An empty key uses
// DefaultTokenKey.
func NewTokenStorage(kv store.KV, key string) *TokenStorage {
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenStorage{kv: kv, key: key}
}

// Save persists a token.
func (s *TokenStorage) Save(ctx context.Context, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Load reads the stored token. It returns nil, nil when there is none.
func (s *TokenStorage) Load(ctx context.Context) (*oauth2.Token, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil // No token stored yet
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return &token, nil
}

// Delete removes the stored token.
func (s *TokenStorage) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Key returns the store key of the token.
func (s *TokenStorage) Key() string {
	return s.key
}
