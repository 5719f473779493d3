package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLegacy(t *testing.T) {
	s := NewStore()
	s.SetOverride(date(t, "2026-10-21"), WholeDaySchedule())

	legacy := &Legacy{
		Weekly: map[string]LegacyDay{
			"Monday":   {TimeSlots: map[string]bool{"09:00": true, "09:30": false}},
			"Tuesday":  {WholeDay: true},
			"Thursday": {TimeSlots: map[string]bool{"10:00": false}},
			"Caturday": {WholeDay: true},
		},
		Calendar: map[string]LegacyDay{
			"2026-10-20": {TimeSlots: map[string]bool{"11:00": true, "25:00": true}},
			"2026-10-21": {TimeSlots: map[string]bool{"11:00": true}},
			"2026-10-22": {TimeSlots: map[string]bool{"11:00": false}},
			"not-a-date": {WholeDay: true},
		},
	}

	report := s.Migrate(legacy)

	assert.True(t, report.Changed())
	assert.Equal(t, []string{"Monday", "Tuesday"}, report.BaseDays)
	assert.Equal(t, []string{"2026-10-20"}, report.Overrides)
	assert.Contains(t, report.Skipped, "day Caturday")
	assert.Contains(t, report.Skipped, "date not-a-date")
	assert.Contains(t, report.Skipped, "2026-10-20 25:00")
	assert.Contains(t, report.Skipped, "date 2026-10-21 (override exists)")

	// Legacy maps are consumed.
	assert.True(t, legacy.Empty())

	// Every migrated record is fully initialized.
	assert.Len(t, s.Base[Monday].TimeSlots, 21)
	assert.True(t, s.Base[Monday].TimeSlots["09:00"])
	assert.False(t, s.Base[Monday].TimeSlots["10:00"])
	assert.True(t, s.Base[Tuesday].WholeDay)
	assert.True(t, s.Base[Tuesday].TimeSlots["17:00"])

	o, ok := s.Override(date(t, "2026-10-20"))
	require.True(t, ok)
	assert.Len(t, o.TimeSlots, 21)
	assert.Equal(t, []string{"11:00"}, o.ActiveSlots())

	// The pre-existing override is kept and inactive legacy dates are ignored.
	assert.True(t, s.Overrides["2026-10-21"].WholeDay)
	_, ok = s.Override(date(t, "2026-10-22"))
	assert.False(t, ok)

	// A second run is a no-op.
	assert.False(t, s.Migrate(legacy).Changed())
}

func TestMigrateNil(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Migrate(nil).Changed())
}
