package state

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/store"
)

func TestLoadMissing(t *testing.T) {
	rec, err := Load(context.Background(), store.NewMemoryStore(), DefaultKey)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	rec := New(Settings{TimerDurationMinutes: 15, PlayDurationSeconds: 20, PlaybackTimingMode: core.TimingEnd})
	require.NoError(t, rec.Store.SetBaseSlot(schedule.Wednesday, "12:30", true))
	_, err := rec.Selections.AddTrack(core.Track{ID: "a", URI: "spotify:track:a"})
	require.NoError(t, err)
	require.NoError(t, rec.Selections.AddPlaylist(position.ScheduledPlaylists, core.Playlist{ID: "p"}))
	rec.Cursor.TrackOffsets["spotify:track:a"] = 30000
	rec.Cursor.PlaylistRotationIndex = 2

	require.NoError(t, Save(ctx, kv, DefaultKey, rec))
	got, err := Load(ctx, kv, DefaultKey)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, rec.Settings, got.Settings)
	assert.True(t, got.Store.Base[schedule.Wednesday].Fires("12:30"))
	assert.Len(t, got.Selections.Tracks, 1)
	assert.Len(t, got.Selections.ScheduledPlaylists, 1)
	assert.Equal(t, 30000, got.Cursor.TrackOffsets["spotify:track:a"])
	assert.Equal(t, 2, got.Cursor.PlaylistRotationIndex)
}

func TestRecordFieldNames(t *testing.T) {
	data, err := json.Marshal(New(Settings{TimerDurationMinutes: 30, PlayDurationSeconds: 30, PlaybackTimingMode: core.TimingStart}))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{
		"baseWeeklyPattern", "dateOverrides", "blockedDates",
		"manualTrackSelection", "manualPlaylistSelection", "scheduledPlaylistSelection",
		"playlistPositions", "trackPositions",
		"trackRotationIndex", "playlistRotationIndex", "manualPlaylistRotationIndex",
		"timerDurationMinutes", "playDurationSeconds", "playbackTimingMode",
	} {
		assert.Contains(t, fields, name)
	}
	assert.NotContains(t, fields, "weeklySchedule", "empty legacy maps are omitted")
}

func TestLoadLegacyRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	raw := `{
		"weeklySchedule": {"Monday": {"timeSlots": {"09:00": true}}},
		"manualTrackSelection": [],
		"timerDurationMinutes": 5
	}`
	require.NoError(t, kv.Set(ctx, DefaultKey, []byte(raw)))

	rec, err := Load(ctx, kv, DefaultKey)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Len(t, rec.Store.Base, 7, "missing base pattern is initialized")
	assert.False(t, rec.Legacy.Empty())

	report := rec.Store.Migrate(&rec.Legacy)
	assert.Equal(t, []string{"Monday"}, report.BaseDays)
	assert.True(t, rec.Store.Base[schedule.Monday].Fires("09:00"))
	assert.True(t, rec.Legacy.Empty())
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, DefaultKey, []byte("{not json")))

	_, err := Load(ctx, kv, DefaultKey)
	assert.Error(t, err)
}

func TestSettingsDurations(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		timer time.Duration
		play  time.Duration
	}{
		{"whole values", `{"timerDurationMinutes": 30, "playDurationSeconds": 30}`, 30 * time.Minute, 30 * time.Second},
		{"fractions", `{"timerDurationMinutes": 0.5, "playDurationSeconds": 0.01}`, 30 * time.Second, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Settings
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &s))
			assert.Equal(t, tt.timer, s.TimerDuration())
			assert.Equal(t, tt.play, s.PlayDuration())
		})
	}
}
