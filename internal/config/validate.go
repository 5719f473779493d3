package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/tessro/interlude/internal/core"
)

// Play duration bounds, in seconds.
const (
	MinPlaySeconds = 10
	MaxPlaySeconds = 60
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Timer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("timer: %w", err))
	}
	if err := c.Monitor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitor: %w", err))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	if c.RedirectURI != "" {
		if _, err := url.Parse(c.RedirectURI); err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
	}
	return nil
}

// Validate checks TimerConfig for errors.
func (c *TimerConfig) Validate() error {
	var errs []error
	if c.DurationMinutes <= 0 {
		errs = append(errs, errors.New("duration_minutes must be positive"))
	}
	if c.PlaySeconds < MinPlaySeconds || c.PlaySeconds > MaxPlaySeconds {
		errs = append(errs, fmt.Errorf("play_seconds must be between %d and %d", MinPlaySeconds, MaxPlaySeconds))
	}
	if _, err := core.ParseTimingMode(c.TimingMode); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTracks < 1 || c.MaxTracks > 50 {
		errs = append(errs, errors.New("max_tracks must be between 1 and 50"))
	}
	if c.TickInterval < 0 {
		errs = append(errs, errors.New("tick_interval must be non-negative"))
	}
	return errors.Join(errs...)
}

// Validate checks MonitorConfig for errors.
func (c *MonitorConfig) Validate() error {
	if c.Interval < 0 {
		return errors.New("interval must be non-negative")
	}
	return nil
}

// Validate checks StoreConfig for errors.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "", "file", "redis", "sqlite", "memory":
		// valid
	default:
		return fmt.Errorf("invalid backend: %s (must be file, redis, sqlite, or memory)", c.Backend)
	}
	if c.RedisDB < 0 {
		return errors.New("redis_db must be non-negative")
	}
	return nil
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "console", "json":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.Format)
	}
	return nil
}
