package schedule

import (
	"sort"
	"time"
)

// LegacyDay is one entry of the old flat schedule maps. Slots that are
// missing mean off.
type LegacyDay struct {
	WholeDay  bool            `json:"wholeDay,omitempty"`
	TimeSlots map[string]bool `json:"timeSlots,omitempty"`
}

func (l LegacyDay) active() bool {
	if l.WholeDay {
		return true
	}
	for _, on := range l.TimeSlots {
		if on {
			return true
		}
	}
	return false
}

// toDaySchedule converts the entry to a fully initialized DaySchedule,
// dropping unknown slot labels.
func (l LegacyDay) toDaySchedule() (DaySchedule, []string) {
	d := NewDaySchedule()
	var dropped []string
	for label, on := range l.TimeSlots {
		if !ValidSlot(label) {
			dropped = append(dropped, label)
			continue
		}
		d.TimeSlots[label] = on
	}
	if l.WholeDay {
		d.SetWholeDay(true)
	}
	d.WholeDay = d.allOn()
	sort.Strings(dropped)
	return d, dropped
}

// Legacy holds the two flat maps kept for backward compatibility: a weekly
// map keyed by day name and a calendar map keyed by date.
type Legacy struct {
	Weekly   map[string]LegacyDay `json:"weeklySchedule,omitempty"`
	Calendar map[string]LegacyDay `json:"calendarSchedule,omitempty"`
}

// Empty reports whether there is nothing left to migrate.
func (l *Legacy) Empty() bool {
	return l == nil || (len(l.Weekly) == 0 && len(l.Calendar) == 0)
}

// MigrationReport summarizes a legacy migration.
type MigrationReport struct {
	BaseDays  []string `json:"base_days"`
	Overrides []string `json:"overrides"`
	Skipped   []string `json:"skipped"`
}

// Changed reports whether the migration modified the store.
func (r MigrationReport) Changed() bool {
	return len(r.BaseDays) > 0 || len(r.Overrides) > 0
}

// Migrate folds the legacy maps into the layered model and empties them.
// Active legacy weekly days replace the corresponding base day; legacy
// calendar dates become overrides unless the date already has one.
// Unparseable keys are skipped and reported.
func (s *Store) Migrate(l *Legacy) MigrationReport {
	var report MigrationReport
	if l.Empty() {
		return report
	}

	for name, entry := range l.Weekly {
		day, err := ParseDay(name)
		if err != nil {
			report.Skipped = append(report.Skipped, "day "+name)
			continue
		}
		if !entry.active() {
			continue
		}
		sched, dropped := entry.toDaySchedule()
		for _, d := range dropped {
			report.Skipped = append(report.Skipped, name+" "+d)
		}
		s.Base[day] = sched
		report.BaseDays = append(report.BaseDays, day.String())
	}

	for key, entry := range l.Calendar {
		date, err := time.Parse(DateLayout, key)
		if err != nil {
			report.Skipped = append(report.Skipped, "date "+key)
			continue
		}
		if !entry.active() {
			continue
		}
		if _, exists := s.Override(date); exists {
			report.Skipped = append(report.Skipped, "date "+key+" (override exists)")
			continue
		}
		sched, dropped := entry.toDaySchedule()
		for _, d := range dropped {
			report.Skipped = append(report.Skipped, key+" "+d)
		}
		s.SetOverride(date, sched)
		report.Overrides = append(report.Overrides, key)
	}

	l.Weekly = nil
	l.Calendar = nil

	sort.Strings(report.BaseDays)
	sort.Strings(report.Overrides)
	sort.Strings(report.Skipped)
	return report
}
