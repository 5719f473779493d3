package auth

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// Endpoint is Spotify's OAuth2 endpoint. Public PKCE clients send the
// client ID in the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   SpotifyAuthURL,
	TokenURL:  SpotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// DefaultScopes are the Spotify scopes required for interlude functionality.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID    string
	RedirectURI string
	Scopes      []string

	// Endpoint overrides the Spotify endpoint, for tests.
	Endpoint *oauth2.Endpoint
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID, redirectURI string) *Config {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	return &Config{
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scopes:      DefaultScopes,
	}
}

// OAuth2 returns the equivalent oauth2.Config.
func (c *Config) OAuth2() *oauth2.Config {
	ep := Endpoint
	if c.Endpoint != nil {
		ep = *c.Endpoint
	}
	return &oauth2.Config{
		ClientID:    c.ClientID,
		Endpoint:    ep,
		RedirectURL: c.RedirectURI,
		Scopes:      c.Scopes,
	}
}

// AuthURL builds the authorization URL carrying the PKCE challenge.
func (c *Config) AuthURL(pkce *PKCE) string {
	return c.OAuth2().AuthCodeURL(pkce.State, oauth2.S256ChallengeOption(pkce.Verifier))
}

// Exchange trades an authorization code for a token.
func (c *Config) Exchange(ctx context.Context, code string, pkce *PKCE) (*oauth2.Token, error) {
	tok, err := c.OAuth2().Exchange(ctx, code, oauth2.VerifierOption(pkce.Verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return tok, nil
}

// CallbackAddr returns the listen address and path of the redirect URI.
func (c *Config) CallbackAddr() (addr, path string, err error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect uri %q: %w", c.RedirectURI, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return "", "", fmt.Errorf("redirect uri %q must be a local http url", c.RedirectURI)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
