package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/schedule"
)

// 2026-10-19 is a Monday.
func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	require.NoError(t, err)
	return ts
}

func mondayMorning(t *testing.T) *schedule.Store {
	t.Helper()
	s := schedule.NewStore()
	require.NoError(t, s.SetBaseSlot(schedule.Monday, "09:00", true))
	require.NoError(t, s.SetBaseSlot(schedule.Monday, "09:30", true))
	return s
}

var lists = []core.Playlist{{ID: "p1", Name: "Morning"}}

func TestCheckSkipsWhileTimerRunsOrCycleInFlight(t *testing.T) {
	m := New(core.TimingStart, 30*time.Minute, zerolog.Nop())
	store := mondayMorning(t)

	d := m.Check(Inputs{Now: at(t, "2026-10-19 09:05"), TimerRunning: true, Store: store, Playlists: lists})
	assert.Equal(t, Skip, d.Action)

	d = m.Check(Inputs{Now: at(t, "2026-10-19 09:05"), InFlight: true, Store: store, Playlists: lists})
	assert.Equal(t, Skip, d.Action)

	// Skipped checks do not consume the window.
	d = m.Check(Inputs{Now: at(t, "2026-10-19 09:06"), Store: store, Playlists: lists})
	assert.Equal(t, Fire, d.Action)
}

func TestCheckFiresOncePerCadence(t *testing.T) {
	m := New(core.TimingStart, 30*time.Minute, zerolog.Nop())
	store := mondayMorning(t)

	var actions []Action
	for minute := 0; minute < 60; minute++ {
		now := at(t, "2026-10-19 09:00").Add(time.Duration(minute) * time.Minute)
		d := m.Check(Inputs{Now: now, Store: store, Playlists: lists})
		if d.Action == Fire {
			m.Dispatched(now)
		}
		actions = append(actions, d.Action)
	}

	assert.Equal(t, Fire, actions[0])
	assert.Equal(t, Wait, actions[1])
	assert.Equal(t, Wait, actions[29])
	assert.Equal(t, Fire, actions[30])
	assert.Equal(t, Wait, actions[59])
}

func TestCheckEndModeAnchorsOnCompletion(t *testing.T) {
	m := New(core.TimingEnd, 10*time.Minute, zerolog.Nop())
	store := mondayMorning(t)
	start := at(t, "2026-10-19 09:00")

	require.Equal(t, Fire, m.Check(Inputs{Now: start, Store: store, Playlists: lists}).Action)
	m.Dispatched(start)
	m.Finished(start.Add(2 * time.Minute))

	d := m.Check(Inputs{Now: start.Add(11 * time.Minute), Store: store, Playlists: lists})
	assert.Equal(t, Wait, d.Action, "window counts from completion")

	d = m.Check(Inputs{Now: start.Add(12 * time.Minute), Store: store, Playlists: lists})
	assert.Equal(t, Fire, d.Action)
}

func TestCheckReentersWindowImmediately(t *testing.T) {
	m := New(core.TimingStart, time.Hour, zerolog.Nop())
	store := schedule.NewStore()
	require.NoError(t, store.SetBaseSlot(schedule.Monday, "09:00", true))
	require.NoError(t, store.SetBaseSlot(schedule.Monday, "10:00", true))

	now := at(t, "2026-10-19 09:00")
	require.Equal(t, Fire, m.Check(Inputs{Now: now, Store: store, Playlists: lists}).Action)
	m.Dispatched(now)

	assert.Equal(t, Quiet, m.Check(Inputs{Now: at(t, "2026-10-19 09:30"), Store: store, Playlists: lists}).Action)
	assert.Equal(t, Fire, m.Check(Inputs{Now: at(t, "2026-10-19 10:00"), Store: store, Playlists: lists}).Action)
}

func TestCheckQuietOutsideSchedule(t *testing.T) {
	m := New(core.TimingStart, time.Minute, zerolog.Nop())
	store := mondayMorning(t)
	store.Block(at(t, "2026-10-19 00:00"))

	d := m.Check(Inputs{Now: at(t, "2026-10-19 09:05"), Store: store, Playlists: lists})
	assert.Equal(t, Quiet, d.Action)
	assert.Equal(t, schedule.SourceBlocked, d.Resolution.Source)

	d = m.Check(Inputs{Now: at(t, "2026-10-20 09:05"), Store: store, Playlists: lists})
	assert.Equal(t, Quiet, d.Action)
	assert.Equal(t, schedule.SourceBase, d.Resolution.Source)
}

func TestCheckNoPlaylists(t *testing.T) {
	m := New(core.TimingStart, 30*time.Minute, zerolog.Nop())
	store := mondayMorning(t)

	d := m.Check(Inputs{Now: at(t, "2026-10-19 09:00"), Store: store})
	assert.Equal(t, NoPlaylists, d.Action)

	d = m.Check(Inputs{Now: at(t, "2026-10-19 09:01"), Store: store})
	assert.Equal(t, Wait, d.Action, "warning is not repeated every poll")
}

func TestChanged(t *testing.T) {
	m := New(core.TimingStart, time.Minute, zerolog.Nop())
	store := mondayMorning(t)

	assert.True(t, m.Changed(store, lists))
	assert.False(t, m.Changed(store, lists))
	assert.False(t, m.Changed(store.Clone(), lists))

	require.NoError(t, store.SetBaseSlot(schedule.Friday, "16:00", true))
	assert.True(t, m.Changed(store, lists))

	assert.True(t, m.Changed(store, append(lists, core.Playlist{ID: "p2"})))
}
