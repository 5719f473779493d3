package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNoActiveDevice    = errors.New("no active device")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrPremiumRequired   = errors.New("spotify premium required")
	ErrRateLimited       = errors.New("rate limited")
	ErrDaemonUnreachable = errors.New("daemon not reachable")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrAuthDenied        = errors.New("spotify authorization denied")
	ErrAuthState         = errors.New("authorization state mismatch")
	ErrAuthTimeout       = errors.New("timed out waiting for authorization")

	// Configuration errors raised by selections and the schedule store.
	ErrEmptySelection    = errors.New("selection is empty")
	ErrSelectionFull     = errors.New("selection is full")
	ErrDuplicatePlaylist = errors.New("playlist already selected")
	ErrSelectionNotFound = errors.New("selection not found")
	ErrInvalidSlot       = errors.New("invalid time slot")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidState      = errors.New("invalid timer state")

	// ErrStaleCursor marks a rotation index that had to be rebased against a
	// shorter list. It is logged, never shown to the user.
	ErrStaleCursor = errors.New("stale rotation cursor")

	// ErrCycleInFlight is returned when a playback cycle is already running.
	ErrCycleInFlight = errors.New("playback cycle already in flight")
)

// ConfigurationError reports an action that cannot run with the current
// configuration, such as starting the timer with nothing selected.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Configuration wraps err as a ConfigurationError for op.
func Configuration(op string, err error) error {
	return &ConfigurationError{Op: op, Err: err}
}

// ServiceCallFailure reports a rejected or failed music service call.
type ServiceCallFailure struct {
	Op  string
	Err error
}

func (e *ServiceCallFailure) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceCallFailure) Unwrap() error {
	return e.Err
}

// ServiceCall wraps err as a ServiceCallFailure for op. A nil err stays nil.
func ServiceCall(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceCallFailure{Op: op, Err: err}
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsServiceCall reports whether err is a ServiceCallFailure.
func IsServiceCall(err error) bool {
	var sf *ServiceCallFailure
	return errors.As(err, &sf)
}

// InterludeError wraps an error with a user-friendly suggestion.
type InterludeError struct {
	Err        error
	Suggestion string
}

func (e *InterludeError) Error() string {
	return e.Err.Error()
}

func (e *InterludeError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &InterludeError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var ie *InterludeError
	if errors.As(err, &ie) && ie.Suggestion != "" {
		return ie.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "not authenticated") ||
		strings.Contains(errStr, "invalid access token") || strings.Contains(errStr, "token expired"):
		return "Run 'interlude auth login' to authenticate with Spotify"

	case errors.Is(err, ErrAuthDenied):
		return "Approve the request in the browser, then run 'interlude auth login' again"

	case errors.Is(err, ErrAuthState) || errors.Is(err, ErrAuthTimeout):
		return "Run 'interlude auth login' again and finish it in the browser that opens"

	case errors.Is(err, ErrDaemonUnreachable):
		return "Start the daemon with 'interlude run' or check server.listen in your config"

	case errors.Is(err, ErrEmptySelection):
		return "Add tracks with 'interlude tracks add' or playlists with 'interlude playlists add'"

	case errors.Is(err, ErrSelectionFull):
		return "Remove a track with 'interlude tracks remove' or raise timer.max_tracks"

	case errors.Is(err, ErrInvalidSlot):
		return "Slots are half-hour marks from 07:00 to 17:00, e.g. 09:30"

	case errors.Is(err, ErrInvalidDate):
		return "Dates use the YYYY-MM-DD format"

	case errors.Is(err, ErrNoActiveDevice) || strings.Contains(errStr, "no active device"):
		return "Open Spotify on a device, or set spotify.device with 'interlude config set-device'"

	case errors.Is(err, ErrDeviceNotFound) || strings.Contains(errStr, "device not found"):
		return "Run 'interlude devices' to see available devices"

	case errors.Is(err, ErrPremiumRequired) || strings.Contains(errStr, "premium required") ||
		strings.Contains(errStr, "restricted device"):
		return "Playback control requires Spotify Premium"

	case errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429"):
		return "Too many requests. Wait a moment and try again"

	case strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused"):
		return "Check your internet connection and try again"

	case errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig):
		return "Run 'interlude config init' to create a configuration file"

	case strings.Contains(errStr, "500") || strings.Contains(errStr, "server error"):
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
