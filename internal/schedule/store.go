package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	ierrors "github.com/tessro/interlude/internal/errors"
)

// BlockedDates is a set of date keys on which nothing plays.
type BlockedDates map[string]struct{}

// Sorted returns the blocked date keys in ascending order.
func (b BlockedDates) Sorted() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (b BlockedDates) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Sorted())
}

// UnmarshalJSON decodes a JSON array of date keys.
func (b *BlockedDates) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	set := make(BlockedDates, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	*b = set
	return nil
}

// Store holds the layered schedule configuration: a base weekly pattern,
// per-date overrides that replace it, and blocked dates that veto both.
type Store struct {
	Base      WeeklyPattern          `json:"baseWeeklyPattern"`
	Overrides map[string]DaySchedule `json:"dateOverrides"`
	Blocked   BlockedDates           `json:"blockedDates"`
}

// NewStore returns a store with a fully initialized, all-off base pattern.
func NewStore() *Store {
	return &Store{
		Base:      NewWeeklyPattern(),
		Overrides: make(map[string]DaySchedule),
		Blocked:   make(BlockedDates),
	}
}

// Normalize makes a decoded store safe to use: nil maps are allocated,
// every base day is fully populated, and every record has all slots.
func (s *Store) Normalize() {
	if s.Base == nil {
		s.Base = NewWeeklyPattern()
	}
	for _, d := range Days() {
		day, ok := s.Base[d]
		if !ok {
			day = NewDaySchedule()
		}
		day.normalize()
		s.Base[d] = day
	}
	if s.Overrides == nil {
		s.Overrides = make(map[string]DaySchedule)
	}
	for k, o := range s.Overrides {
		o.normalize()
		s.Overrides[k] = o
	}
	if s.Blocked == nil {
		s.Blocked = make(BlockedDates)
	}
}

// SetBasePattern replaces the base schedule of one day.
func (s *Store) SetBasePattern(day Day, sched DaySchedule) error {
	if !day.Valid() {
		return ierrors.Configuration("set base pattern", fmt.Errorf("%w: %d", ierrors.ErrInvalidDay, int(day)))
	}
	sched = sched.Clone()
	sched.normalize()
	s.Base[day] = sched
	return nil
}

// SetBaseWholeDay turns every slot of a base day on or off.
func (s *Store) SetBaseWholeDay(day Day, on bool) error {
	if !day.Valid() {
		return ierrors.Configuration("set whole day", fmt.Errorf("%w: %d", ierrors.ErrInvalidDay, int(day)))
	}
	sched, ok := s.Base[day]
	if !ok {
		sched = NewDaySchedule()
	}
	sched.SetWholeDay(on)
	s.Base[day] = sched
	return nil
}

// SetBaseSlot turns a single base slot on or off.
func (s *Store) SetBaseSlot(day Day, label string, on bool) error {
	if !day.Valid() {
		return ierrors.Configuration("set slot", fmt.Errorf("%w: %d", ierrors.ErrInvalidDay, int(day)))
	}
	sched, ok := s.Base[day]
	if !ok {
		sched = NewDaySchedule()
	}
	if err := sched.SetSlot(label, on); err != nil {
		return ierrors.Configuration("set slot", err)
	}
	s.Base[day] = sched
	return nil
}

// SetOverride replaces the base pattern for one date.
func (s *Store) SetOverride(date time.Time, sched DaySchedule) {
	sched = sched.Clone()
	sched.normalize()
	s.Overrides[DateKey(date)] = sched
}

// Override returns the override for date, if any.
func (s *Store) Override(date time.Time) (DaySchedule, bool) {
	o, ok := s.Overrides[DateKey(date)]
	return o, ok
}

// ClearOverride removes the override for date and reports whether one existed.
func (s *Store) ClearOverride(date time.Time) bool {
	key := DateKey(date)
	_, ok := s.Overrides[key]
	delete(s.Overrides, key)
	return ok
}

// Block vetoes playback on date.
func (s *Store) Block(date time.Time) {
	s.Blocked[DateKey(date)] = struct{}{}
}

// Unblock lifts a block and reports whether one existed.
func (s *Store) Unblock(date time.Time) bool {
	key := DateKey(date)
	_, ok := s.Blocked[key]
	delete(s.Blocked, key)
	return ok
}

// IsBlocked reports whether date is blocked.
func (s *Store) IsBlocked(date time.Time) bool {
	_, ok := s.Blocked[DateKey(date)]
	return ok
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	out := &Store{
		Base:      s.Base.Clone(),
		Overrides: make(map[string]DaySchedule, len(s.Overrides)),
		Blocked:   make(BlockedDates, len(s.Blocked)),
	}
	for k, v := range s.Overrides {
		out.Overrides[k] = v.Clone()
	}
	for k := range s.Blocked {
		out.Blocked[k] = struct{}{}
	}
	return out
}
