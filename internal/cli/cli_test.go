package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/server"
)

func TestParseDayArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wholeDay  bool
		slots     []string
		wantError bool
	}{
		{name: "all", args: []string{"all"}, wholeDay: true},
		{name: "all uppercase", args: []string{"ALL"}, wholeDay: true},
		{name: "none", args: []string{"none"}, slots: []string{}},
		{name: "single slots normalized and ordered", args: []string{"14:00", "9:30"}, slots: []string{"09:30", "14:00"}},
		{name: "duplicates collapse", args: []string{"09:00", "09:00"}, slots: []string{"09:00"}},
		{name: "range end exclusive", args: []string{"09:00-10:30"}, slots: []string{"09:00", "09:30", "10:00"}},
		{name: "range to end of window", args: []string{"16:00-17:30"}, slots: []string{"16:00", "16:30", "17:00"}},
		{name: "range and slot", args: []string{"07:00-08:00", "12:00"}, slots: []string{"07:00", "07:30", "12:00"}},
		{name: "invalid slot", args: []string{"09:15"}, wantError: true},
		{name: "outside window", args: []string{"06:30"}, wantError: true},
		{name: "empty range", args: []string{"10:00-10:00"}, wantError: true},
		{name: "backwards range", args: []string{"11:00-10:00"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseDayArgs(tt.args)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wholeDay, req.WholeDay)
			if tt.slots != nil {
				assert.Equal(t, len(tt.slots), len(req.Slots))
				for i := range tt.slots {
					assert.Equal(t, tt.slots[i], req.Slots[i])
				}
			}
		})
	}
}

func TestExpandRangeInvalidSlotError(t *testing.T) {
	_, err := expandRange("10:00", "09:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.ErrInvalidSlot)
	assert.True(t, ierrors.IsConfiguration(err))
}

func TestParsedRequestBuildsSchedule(t *testing.T) {
	req, err := parseDayArgs([]string{"09:00-10:00"})
	require.NoError(t, err)

	sched, err := req.Schedule()
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, sched.ActiveSlots())
	assert.False(t, sched.WholeDay)
}

func sampleStore(t *testing.T) *schedule.Store {
	t.Helper()
	s := schedule.NewStore()
	require.NoError(t, s.SetBaseWholeDay(schedule.Monday, true))
	require.NoError(t, s.SetBaseSlot(schedule.Wednesday, "09:30", true))

	d, err := schedule.ParseDate("2026-12-24", time.UTC)
	require.NoError(t, err)
	o, err := schedule.DayScheduleFromSlots([]string{"10:00"})
	require.NoError(t, err)
	s.SetOverride(d, o)

	b, err := schedule.ParseDate("2026-12-25", time.UTC)
	require.NoError(t, err)
	s.Block(b)
	return s
}

func TestRenderWeekGrid(t *testing.T) {
	out := renderWeekGrid(sampleStore(t).Base)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 1+len(schedule.Slots()))
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		assert.Contains(t, lines[0], day)
	}
	assert.True(t, strings.HasPrefix(lines[1], "07:00"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "17:00"))

	// Monday is on everywhere; Wednesday only at 09:30.
	for _, line := range lines[1:] {
		assert.Contains(t, line, "●")
	}
	var nineThirty string
	for _, line := range lines {
		if strings.HasPrefix(line, "09:30") {
			nineThirty = line
		}
	}
	assert.Equal(t, 2, strings.Count(nineThirty, "●"))
}

func TestPrintSchedule(t *testing.T) {
	var buf bytes.Buffer
	printSchedule(&buf, sampleStore(t))
	out := buf.String()

	assert.Contains(t, out, "Overrides")
	assert.Contains(t, out, "2026-12-24  10:00")
	assert.Contains(t, out, "Blocked")
	assert.Contains(t, out, "2026-12-25")
}

func TestPrintScheduleEmpty(t *testing.T) {
	var buf bytes.Buffer
	printSchedule(&buf, schedule.NewStore())
	assert.Equal(t, 2, strings.Count(buf.String(), "none"))
}

func TestRenderDay(t *testing.T) {
	assert.Equal(t, "all day", renderDay(schedule.WholeDaySchedule()))
	assert.Equal(t, "off", renderDay(schedule.NewDaySchedule()))

	d, err := schedule.DayScheduleFromSlots([]string{"13:00", "08:00"})
	require.NoError(t, err)
	assert.Equal(t, "08:00 13:00", renderDay(d))
}

func TestWriteExportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, sampleStore(t), "yaml"))

	var doc scheduleExport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Len(t, doc.Base, 7)
	assert.True(t, doc.Base["monday"].WholeDay)
	assert.Equal(t, []string{"09:30"}, doc.Base["wednesday"].Slots)
	assert.Empty(t, doc.Base["sunday"].Slots)
	assert.Equal(t, []string{"10:00"}, doc.Overrides["2026-12-24"].Slots)
	assert.Equal(t, []string{"2026-12-25"}, doc.Blocked)
}

func TestWriteExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeExport(&buf, sampleStore(t), "json"))

	var doc scheduleExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.True(t, doc.Base["monday"].WholeDay)
	assert.Equal(t, []string{"2026-12-25"}, doc.Blocked)
}

func TestWriteExportUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeExport(&buf, schedule.NewStore(), "xml"))
	assert.Zero(t, buf.Len())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{90, "1:30"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds))
	}
}

func TestFormatClockRoundsUp(t *testing.T) {
	assert.Equal(t, "0:01", formatClock(200*time.Millisecond))
	assert.Equal(t, "30:00", formatClock(30*time.Minute))
	assert.Equal(t, "0:00", formatClock(0))
}

func TestFormatProgressBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("─", 10), formatProgressBar(0, 0, 10))
	assert.Equal(t, strings.Repeat("━", 5)+strings.Repeat("─", 5), formatProgressBar(time.Minute, 2*time.Minute, 10))
	assert.Equal(t, strings.Repeat("━", 10), formatProgressBar(3*time.Minute, 2*time.Minute, 10))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "a long ...", TruncateString("a long string here", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"run"},
		{"status"},
		{"tail"},
		{"timer", "start"},
		{"timer", "stop"},
		{"timer", "reset"},
		{"timer", "set"},
		{"schedule", "show"},
		{"schedule", "set"},
		{"schedule", "edit"},
		{"schedule", "override"},
		{"schedule", "clear"},
		{"schedule", "block"},
		{"schedule", "unblock"},
		{"schedule", "effective"},
		{"schedule", "migrate"},
		{"schedule", "export"},
		{"tracks", "list"},
		{"tracks", "add"},
		{"tracks", "remove"},
		{"playlists", "list"},
		{"playlists", "add"},
		{"playlists", "remove"},
		{"cursors"},
		{"notifications"},
		{"reset"},
		{"devices"},
		{"auth", "login"},
		{"auth", "logout"},
		{"auth", "status"},
		{"config", "show"},
		{"config", "init"},
		{"config", "set"},
		{"config", "edit"},
		{"config", "set-device"},
		{"version"},
	} {
		cmd, rest, err := rootCmd.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Empty(t, rest, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestSettingsRequestForSeedKeys(t *testing.T) {
	tests := []struct {
		key, value string
		want       server.SettingsRequest
		live       bool
	}{
		{"timer.duration_minutes", "10", server.SettingsRequest{TimerDuration: "10m0s"}, true},
		{"timer.duration_minutes", "0.5", server.SettingsRequest{TimerDuration: "30s"}, true},
		{"timer.play_seconds", "45", server.SettingsRequest{PlayDuration: "45s"}, true},
		{"timer.timing_mode", "end", server.SettingsRequest{TimingMode: "end"}, true},
		{"timer.play_seconds", "lots", server.SettingsRequest{}, false},
		{"timer.max_tracks", "5", server.SettingsRequest{}, false},
		{"spotify.device", "Kitchen", server.SettingsRequest{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got, live := settingsRequest(tt.key, tt.value)
			assert.Equal(t, tt.live, live)
			assert.Equal(t, tt.want, got)
		})
	}
}
