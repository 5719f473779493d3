package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	ierrors "github.com/tessro/interlude/internal/errors"
)

// persistingSource saves every refreshed token back to storage.
type persistingSource struct {
	ctx     context.Context
	src     oauth2.TokenSource
	storage *TokenStorage
	logger  zerolog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.storage.Save(p.ctx, tok); err != nil {
			p.logger.Warn().Err(err).Msg("could not persist refreshed token")
		} else {
			p.logger.Debug().Time("expiry", tok.Expiry).Msg("token refreshed")
		}
	}
	return tok, nil
}

// TokenSource returns a refreshing token source seeded from storage.
// It fails with ErrNotAuthenticated when no token has been stored.
func (c *Config) TokenSource(ctx context.Context, storage *TokenStorage, logger zerolog.Logger) (oauth2.TokenSource, error) {
	tok, err := storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	if tok == nil || tok.RefreshToken == "" && !tok.Valid() {
		return nil, ierrors.ErrNotAuthenticated
	}

	src := &persistingSource{
		ctx:     ctx,
		src:     c.OAuth2().TokenSource(ctx, tok),
		storage: storage,
		logger:  logger,
		last:    tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, src), nil
}

// HTTPClient returns an http.Client that authorizes every request with a
// stored, auto-refreshed token.
func (c *Config) HTTPClient(ctx context.Context, storage *TokenStorage, logger zerolog.Logger) (*http.Client, error) {
	src, err := c.TokenSource(ctx, storage, logger)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, src), nil
}
