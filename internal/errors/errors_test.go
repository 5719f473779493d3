package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigurationError(t *testing.T) {
	err := Configuration("start timer", ErrEmptySelection)

	if !errors.Is(err, ErrEmptySelection) {
		t.Error("errors.Is(err, ErrEmptySelection) = false, want true")
	}
	if !IsConfiguration(err) {
		t.Error("IsConfiguration() = false, want true")
	}
	if IsServiceCall(err) {
		t.Error("IsServiceCall() = true, want false")
	}
	if got, want := err.Error(), "start timer: selection is empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestServiceCall(t *testing.T) {
	if ServiceCall("play", nil) != nil {
		t.Error("ServiceCall(nil) should be nil")
	}

	cause := fmt.Errorf("status 502")
	err := fmt.Errorf("scheduled cycle: %w", ServiceCall("fetch playlist tracks", cause))

	if !IsServiceCall(err) {
		t.Error("IsServiceCall() = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"explicit", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"empty selection", Configuration("start", ErrEmptySelection), "interlude tracks add"},
		{"daemon", fmt.Errorf("get status: %w", ErrDaemonUnreachable), "interlude run"},
		{"auth", errors.New("Spotify API error 401: Invalid access token"), "interlude auth login"},
		{"auth denied", ServiceCall("spotify authorize", ErrAuthDenied), "Approve the request"},
		{"auth timeout", fmt.Errorf("login: %w", ErrAuthTimeout), "auth login"},
		{"slot", Configuration("set slot", ErrInvalidSlot), "07:00"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}

	got := Format(Configuration("start timer", ErrEmptySelection))
	if !strings.HasPrefix(got, "Error: start timer: selection is empty") {
		t.Errorf("Format() = %q", got)
	}
	if !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() = %q, missing suggestion", got)
	}
}
