package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
		},
		Timer: TimerConfig{
			DurationMinutes: 30,
			PlaySeconds:     30,
			TimingMode:      "start",
			MaxTracks:       10,
			TickInterval:    1000,
		},
		Monitor: MonitorConfig{
			Interval: 60000,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    DefaultDataDir(),
			Key:     "interlude:state",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:7878",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultDataDir returns the directory used by the file and sqlite stores.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "interlude")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "interlude")
	}
	return filepath.Join(home, ".local", "share", "interlude")
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}

	// Timer
	if c.Timer.DurationMinutes == 0 {
		c.Timer.DurationMinutes = d.Timer.DurationMinutes
	}
	if c.Timer.PlaySeconds == 0 {
		c.Timer.PlaySeconds = d.Timer.PlaySeconds
	}
	if c.Timer.TimingMode == "" {
		c.Timer.TimingMode = d.Timer.TimingMode
	}
	if c.Timer.MaxTracks == 0 {
		c.Timer.MaxTracks = d.Timer.MaxTracks
	}
	if c.Timer.TickInterval == 0 {
		c.Timer.TickInterval = d.Timer.TickInterval
	}

	// Monitor
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = d.Monitor.Interval
	}

	// Store
	if c.Store.Backend == "" {
		c.Store.Backend = d.Store.Backend
	}
	if c.Store.Path == "" && c.Store.Backend != "redis" && c.Store.Backend != "memory" {
		c.Store.Path = d.Store.Path
		if c.Store.Backend == "sqlite" {
			c.Store.Path = filepath.Join(d.Store.Path, "interlude.db")
		}
	}
	if c.Store.RedisAddr == "" && c.Store.Backend == "redis" {
		c.Store.RedisAddr = "127.0.0.1:6379"
	}
	if c.Store.Key == "" {
		c.Store.Key = d.Store.Key
	}

	// Server
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
