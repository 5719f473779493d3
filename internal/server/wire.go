package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/engine"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/schedule"
)

// DayRequest sets the schedule of a weekday or a date. WholeDay wins over
// Slots.
type DayRequest struct {
	WholeDay bool     `json:"wholeDay"`
	Slots    []string `json:"slots,omitempty"`
}

// Schedule converts the request to a DaySchedule, normalizing slot labels.
func (d DayRequest) Schedule() (schedule.DaySchedule, error) {
	if d.WholeDay {
		return schedule.WholeDaySchedule(), nil
	}
	labels := make([]string, 0, len(d.Slots))
	for _, s := range d.Slots {
		label, err := schedule.ParseSlot(s)
		if err != nil {
			return schedule.DaySchedule{}, err
		}
		labels = append(labels, label)
	}
	return schedule.DayScheduleFromSlots(labels)
}

// TrackRequest adds a track, either by catalog reference or in full.
type TrackRequest struct {
	Ref   string      `json:"ref,omitempty"`
	Track *core.Track `json:"track,omitempty"`
}

// PlaylistRequest adds a playlist, either by catalog reference or in full.
type PlaylistRequest struct {
	Ref      string         `json:"ref,omitempty"`
	Playlist *core.Playlist `json:"playlist,omitempty"`
}

// RemovedResponse reports whether a delete found something to remove.
type RemovedResponse struct {
	Removed bool `json:"removed"`
}

// Error codes carried in ErrorResponse.
const (
	CodeConfiguration = "configuration"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeService       = "service"
	CodeUnavailable   = "unavailable"
	CodeBadRequest    = "bad_request"
	CodeInternal      = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

// classify maps an error to an HTTP status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrStopped):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, ierrors.ErrSelectionNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ierrors.ErrCycleInFlight), errors.Is(err, ierrors.ErrInvalidState):
		return http.StatusConflict, CodeConflict
	case ierrors.IsConfiguration(err),
		errors.Is(err, ierrors.ErrInvalidDate),
		errors.Is(err, ierrors.ErrInvalidSlot),
		errors.Is(err, ierrors.ErrInvalidDay):
		return http.StatusBadRequest, CodeConfiguration
	case ierrors.IsServiceCall(err):
		return http.StatusBadGateway, CodeService
	}
	return http.StatusInternalServerError, CodeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{
		Error:      err.Error(),
		Code:       code,
		Suggestion: ierrors.GetSuggestion(err),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
