// Package state defines the settings record interlude persists between
// runs.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/schedule"
	"github.com/tessro/interlude/internal/store"
)

// DefaultKey is the store key of the settings record.
const DefaultKey = "interlude:state"

// Settings are the user-adjustable playback settings.
type Settings struct {
	TimerDurationMinutes float64         `json:"timerDurationMinutes"`
	PlayDurationSeconds  float64         `json:"playDurationSeconds"`
	PlaybackTimingMode   core.TimingMode `json:"playbackTimingMode"`
}

// TimerDuration returns the countdown length.
func (s Settings) TimerDuration() time.Duration {
	return time.Duration(math.Round(s.TimerDurationMinutes * float64(time.Minute)))
}

// PlayDuration returns the burst length.
func (s Settings) PlayDuration() time.Duration {
	return time.Duration(math.Round(s.PlayDurationSeconds * float64(time.Second)))
}

// Record is the whole persisted state. Field names match the stored JSON.
type Record struct {
	schedule.Store
	schedule.Legacy
	position.Selections
	position.Cursor
	Settings
}

// New returns an empty record with the given settings.
func New(settings Settings) *Record {
	return &Record{
		Store:    *schedule.NewStore(),
		Cursor:   position.NewCursor(),
		Settings: settings,
	}
}

// Load reads the record under key. It returns nil and no error when
// nothing has been saved yet.
func Load(ctx context.Context, kv store.KV, key string) (*Record, error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	rec.Store.Normalize()
	return &rec, nil
}

// Save writes rec under key.
func Save(ctx context.Context, kv store.KV, key string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
