package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/engine"
	"github.com/tessro/interlude/internal/notify"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "interlude",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Status()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	items := []notify.Notification{}
	if s.notes != nil {
		items = append(items, s.notes.Recent()...)
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reset(); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCursors(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Cursors()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Timer

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Timer()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) timerAction(action func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(); err != nil {
			s.fail(w, r, err)
			return
		}
		s.handleTimer(w, r)
	}
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	s.timerAction(s.engine.StartTimer)(w, r)
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	s.timerAction(s.engine.StopTimer)(w, r)
}

func (s *Server) handleTimerFullStop(w http.ResponseWriter, r *http.Request) {
	s.timerAction(s.engine.ResetTimer)(w, r)
}

// SettingsRequest changes playback settings. Durations use Go syntax,
// e.g. "30m" or "45s".
type SettingsRequest struct {
	TimerDuration string `json:"timerDuration,omitempty"`
	PlayDuration  string `json:"playDuration,omitempty"`
	TimingMode    string `json:"timingMode,omitempty"`
}

func (s *Server) handleTimerSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decode(w, r, &req) {
		return
	}

	var patch engine.SettingsPatch
	if req.TimerDuration != "" {
		d, err := time.ParseDuration(req.TimerDuration)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid timerDuration: "+err.Error())
			return
		}
		patch.TimerDuration = &d
	}
	if req.PlayDuration != "" {
		d, err := time.ParseDuration(req.PlayDuration)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid playDuration: "+err.Error())
			return
		}
		patch.PlayDuration = &d
	}
	if req.TimingMode != "" {
		mode := core.TimingMode(req.TimingMode)
		patch.TimingMode = &mode
	}

	settings, err := s.engine.UpdateSettings(patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Schedule

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Schedule()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSetBaseDay(w http.ResponseWriter, r *http.Request) {
	day, err := schedule.ParseDay(chi.URLParam(r, "day"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req DayRequest
	if !decode(w, r, &req) {
		return
	}
	sched, err := req.Schedule()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.SetBaseDay(day, sched); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleSchedule(w, r)
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	if !decode(w, r, &req) {
		return
	}
	sched, err := req.Schedule()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.engine.SetOverride(chi.URLParam(r, "date"), sched); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleSchedule(w, r)
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	removed, err := s.engine.ClearOverride(chi.URLParam(r, "date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Block(chi.URLParam(r, "date")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleSchedule(w, r)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	removed, err := s.engine.Unblock(chi.URLParam(r, "date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

func (s *Server) handleEffective(w http.ResponseWriter, r *http.Request) {
	eff, err := s.engine.Effective(chi.URLParam(r, "date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eff)
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.Migrate()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Selections

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	sel, err := s.engine.Selections()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tracks := sel.Tracks
	if tracks == nil {
		tracks = []position.SelectedTrack{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if !decode(w, r, &req) {
		return
	}

	var track core.Track
	switch {
	case req.Track != nil && req.Track.URI != "":
		track = *req.Track
	case req.Ref != "" && s.catalog != nil:
		t, err := s.catalog.LookupTrack(r.Context(), req.Ref)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		track = t
	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "a track with a uri or a catalog ref is required")
		return
	}

	st, err := s.engine.AddTrack(track)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemoveTrack(chi.URLParam(r, "selectionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) playlistList(w http.ResponseWriter, r *http.Request) (position.PlaylistList, bool) {
	list, err := position.ParsePlaylistList(chi.URLParam(r, "list"))
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
		return "", false
	}
	return list, true
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	list, ok := s.playlistList(w, r)
	if !ok {
		return
	}
	sel, err := s.engine.Selections()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pls := sel.Playlists(list)
	if pls == nil {
		pls = []core.Playlist{}
	}
	writeJSON(w, http.StatusOK, pls)
}

func (s *Server) handleAddPlaylist(w http.ResponseWriter, r *http.Request) {
	list, ok := s.playlistList(w, r)
	if !ok {
		return
	}
	var req PlaylistRequest
	if !decode(w, r, &req) {
		return
	}

	var pl core.Playlist
	switch {
	case req.Playlist != nil && req.Playlist.ID != "":
		pl = *req.Playlist
	case req.Ref != "" && s.catalog != nil:
		p, err := s.catalog.LookupPlaylist(r.Context(), req.Ref)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		pl = p
	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "a playlist with an id or a catalog ref is required")
		return
	}

	if err := s.engine.AddPlaylist(list, pl); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

func (s *Server) handleRemovePlaylist(w http.ResponseWriter, r *http.Request) {
	list, ok := s.playlistList(w, r)
	if !ok {
		return
	}
	if err := s.engine.RemovePlaylist(list, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
