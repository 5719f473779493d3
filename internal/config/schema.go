package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify" yaml:"spotify" json:"spotify"`
	Timer   TimerConfig   `toml:"timer" yaml:"timer" json:"timer"`
	Monitor MonitorConfig `toml:"monitor" yaml:"monitor" json:"monitor"`
	Store   StoreConfig   `toml:"store" yaml:"store" json:"store"`
	Server  ServerConfig  `toml:"server" yaml:"server" json:"server"`
	Log     LogConfig     `toml:"log" yaml:"log" json:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id" yaml:"client_id" json:"client_id"`
	RedirectURI string `toml:"redirect_uri" yaml:"redirect_uri" json:"redirect_uri"`
	Device      string `toml:"device" yaml:"device" json:"device"`
}

// TimerConfig holds the defaults for a fresh settings record and the
// manual timer's tick rate.
type TimerConfig struct {
	DurationMinutes float64 `toml:"duration_minutes" yaml:"duration_minutes" json:"duration_minutes"`
	PlaySeconds     int     `toml:"play_seconds" yaml:"play_seconds" json:"play_seconds"`
	TimingMode      string  `toml:"timing_mode" yaml:"timing_mode" json:"timing_mode"`
	MaxTracks       int     `toml:"max_tracks" yaml:"max_tracks" json:"max_tracks"`
	TickInterval    int     `toml:"tick_interval" yaml:"tick_interval" json:"tick_interval"` // ms
}

// Duration returns the default timer duration.
func (c TimerConfig) Duration() time.Duration {
	return time.Duration(c.DurationMinutes * float64(time.Minute))
}

// PlayDuration returns the default burst length.
func (c TimerConfig) PlayDuration() time.Duration {
	return time.Duration(c.PlaySeconds) * time.Second
}

// Tick returns the timer tick interval.
func (c TimerConfig) Tick() time.Duration {
	return time.Duration(c.TickInterval) * time.Millisecond
}

// MonitorConfig holds scheduled playback monitor settings.
type MonitorConfig struct {
	Enabled  *bool `toml:"enabled" yaml:"enabled" json:"enabled"`
	Interval int   `toml:"interval" yaml:"interval" json:"interval"` // ms
}

// IsEnabled reports whether the monitor runs. It defaults to true.
func (c MonitorConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Poll returns the monitor polling interval.
func (c MonitorConfig) Poll() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// StoreConfig selects and configures the persisted key-value store.
type StoreConfig struct {
	Backend       string `toml:"backend" yaml:"backend" json:"backend"`
	Path          string `toml:"path" yaml:"path" json:"path"`
	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password" json:"-"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db" json:"redis_db"`
	Key           string `toml:"key" yaml:"key" json:"key"`
}

// ServerConfig holds the control API settings.
type ServerConfig struct {
	Listen  string `toml:"listen" yaml:"listen" json:"listen"`
	Metrics *bool  `toml:"metrics" yaml:"metrics" json:"metrics"`
}

// MetricsEnabled reports whether /metrics is served. It defaults to true.
func (c ServerConfig) MetricsEnabled() bool {
	return c.Metrics == nil || *c.Metrics
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	File   string `toml:"file" yaml:"file" json:"file"`
	Format string `toml:"format" yaml:"format" json:"format"`
}
