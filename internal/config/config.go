package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INTERLUDE_"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.interluderc, $XDG_CONFIG_HOME/interlude/config.toml,
// ~/.config/interlude/config.toml
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom reads configuration from a specific file path. An empty path
// skips the file. A .env file in the working directory is loaded first
// without overriding variables that are already set.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment overrides first so defaults follow the chosen backend
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

// Path returns the config file to read or write: override if given, else
// the first existing standard location, else ~/.interluderc.
func Path(override string) string {
	if override != "" {
		return override
	}
	if p := findConfigFile(); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".interluderc"
	}
	return filepath.Join(home, ".interluderc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".interluderc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "interlude", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = i
		}
	}
	flag := func(name string, dst **bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = &b
		}
	}

	// Spotify
	str("SPOTIFY_CLIENT_ID", &cfg.Spotify.ClientID)
	str("SPOTIFY_REDIRECT_URI", &cfg.Spotify.RedirectURI)
	str("SPOTIFY_DEVICE", &cfg.Spotify.Device)

	// Timer
	if v := os.Getenv(EnvPrefix + "TIMER_DURATION_MINUTES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMER_DURATION_MINUTES: %w", EnvPrefix, err))
		} else {
			cfg.Timer.DurationMinutes = f
		}
	}
	num("TIMER_PLAY_SECONDS", &cfg.Timer.PlaySeconds)
	str("TIMER_TIMING_MODE", &cfg.Timer.TimingMode)
	num("TIMER_MAX_TRACKS", &cfg.Timer.MaxTracks)

	// Monitor
	flag("MONITOR_ENABLED", &cfg.Monitor.Enabled)
	num("MONITOR_INTERVAL", &cfg.Monitor.Interval)

	// Store
	str("STORE_BACKEND", &cfg.Store.Backend)
	str("STORE_PATH", &cfg.Store.Path)
	str("STORE_REDIS_ADDR", &cfg.Store.RedisAddr)
	str("STORE_REDIS_PASSWORD", &cfg.Store.RedisPassword)
	num("STORE_REDIS_DB", &cfg.Store.RedisDB)

	// Server
	str("SERVER_LISTEN", &cfg.Server.Listen)

	// Log
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	str("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}

// WriteDefault creates a config file with default values at path.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# Interlude Configuration")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// settable lists the keys accepted by Set and how to parse them.
var settable = map[string]func(string) (interface{}, error){
	"spotify.client_id":      asString,
	"spotify.redirect_uri":   asString,
	"spotify.device":         asString,
	"timer.duration_minutes": asFloat,
	"timer.play_seconds":     asInt,
	"timer.timing_mode":      asString,
	"timer.max_tracks":       asInt,
	"timer.tick_interval":    asInt,
	"monitor.enabled":        asBool,
	"monitor.interval":       asInt,
	"store.backend":          asString,
	"store.path":             asString,
	"store.redis_addr":       asString,
	"store.redis_password":   asString,
	"store.redis_db":         asInt,
	"store.key":              asString,
	"server.listen":          asString,
	"server.metrics":         asBool,
	"log.level":              asString,
	"log.file":               asString,
	"log.format":             asString,
}

// SettableKeys returns the keys accepted by Set.
func SettableKeys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	return keys
}

func asString(v string) (interface{}, error) { return v, nil }

func asInt(v string) (interface{}, error) {
	i, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New("value must be an integer")
	}
	return i, nil
}

func asFloat(v string) (interface{}, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errors.New("value must be a number")
	}
	return f, nil
}

func asBool(v string) (interface{}, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return nil, errors.New("value must be true or false")
}

// Set updates one "section.key" value in the config file at path, keeping
// the other values. The result must still validate.
func Set(path, key, value string) error {
	parse, ok := settable[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	typed, err := parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found at %s. Run 'interlude config init' first", path)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	rawConfig := map[string]interface{}{}
	if _, err := toml.Decode(string(data), &rawConfig); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := rawConfig[section].(map[string]interface{})
	if !ok {
		sectionMap = make(map[string]interface{})
		rawConfig[section] = sectionMap
	}
	sectionMap[field] = typed

	var buf strings.Builder
	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(rawConfig); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	var check Config
	if _, err := toml.Decode(buf.String(), &check); err != nil {
		return fmt.Errorf("failed to parse updated config: %w", err)
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
