package schedule

import "time"

// Source names the layer that produced a resolution.
type Source string

const (
	SourceBlocked  Source = "blocked"
	SourceOverride Source = "override"
	SourceBase     Source = "base"
	SourceNone     Source = "none"
)

// Resolution is the outcome of resolving one date and slot.
type Resolution struct {
	Fires  bool   `json:"fires"`
	Source Source `json:"source"`
	Date   string `json:"date"`
	Slot   string `json:"slot"`
}

// Resolve decides whether playback is due on date at slot. Precedence is
// blocked, then override, then base. It is a pure function of its inputs.
func Resolve(s *Store, date time.Time, slot string) Resolution {
	r := Resolution{Date: DateKey(date), Slot: slot}

	if s.IsBlocked(date) {
		r.Source = SourceBlocked
		return r
	}

	if o, ok := s.Override(date); ok {
		r.Source = SourceOverride
		r.Fires = o.Fires(slot)
		return r
	}

	day, ok := s.Base[DayOf(date)]
	if !ok {
		r.Source = SourceNone
		return r
	}
	r.Source = SourceBase
	r.Fires = day.Fires(slot)
	return r
}

// ResolveAt floors t to its half-hour mark and resolves it. Times outside
// the slot window never fire, even on whole-day schedules.
func ResolveAt(s *Store, t time.Time) Resolution {
	label, inWindow := FloorSlot(t)
	r := Resolve(s, t, label)
	if !inWindow {
		r.Fires = false
	}
	return r
}

// EffectiveSchedule is the resolved schedule of a single date.
type EffectiveSchedule struct {
	Date   string      `json:"date"`
	Day    string      `json:"day"`
	Source Source      `json:"source"`
	Slots  DaySchedule `json:"schedule"`
}

// Effective resolves a whole date. Blocked dates and days without a base
// entry yield an all-off schedule.
func Effective(s *Store, date time.Time) EffectiveSchedule {
	eff := EffectiveSchedule{Date: DateKey(date), Day: DayOf(date).String()}

	switch o, hasOverride := s.Override(date); {
	case s.IsBlocked(date):
		eff.Source = SourceBlocked
		eff.Slots = NewDaySchedule()
	case hasOverride:
		eff.Source = SourceOverride
		eff.Slots = o.Clone()
	default:
		day, ok := s.Base[DayOf(date)]
		if !ok {
			eff.Source = SourceNone
			eff.Slots = NewDaySchedule()
			break
		}
		eff.Source = SourceBase
		eff.Slots = day.Clone()
	}
	return eff
}
