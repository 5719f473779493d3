package schedule

import (
	"fmt"
	"strings"
	"time"

	ierrors "github.com/tessro/interlude/internal/errors"
)

// Day is a day of the week, Monday first.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Days returns every day, Monday first.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// DayOf returns the Day of t.
func DayOf(t time.Time) Day {
	return Day((int(t.Weekday()) + 6) % 7)
}

// Valid reports whether d is one of the seven days.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay accepts a full day name or an unambiguous prefix of at least
// three letters, in any case.
func ParseDay(s string) (Day, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if len(in) >= 3 {
		for i, name := range dayNames {
			if strings.HasPrefix(strings.ToLower(name), in) {
				return Day(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ierrors.ErrInvalidDay, s)
}

// MarshalText encodes the day by name.
func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ierrors.ErrInvalidDay, int(d))
	}
	return []byte(dayNames[d]), nil
}

// UnmarshalText decodes a day name.
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaySchedule is the schedule of one day: a whole-day shortcut plus an
// explicit entry for every generated slot.
type DaySchedule struct {
	WholeDay  bool            `json:"wholeDay" yaml:"whole_day"`
	TimeSlots map[string]bool `json:"timeSlots" yaml:"time_slots"`
}

// NewDaySchedule returns a day with every slot present and off.
func NewDaySchedule() DaySchedule {
	d := DaySchedule{TimeSlots: make(map[string]bool, len(slotLabels))}
	for _, label := range slotLabels {
		d.TimeSlots[label] = false
	}
	return d
}

// WholeDaySchedule returns a day with every slot on.
func WholeDaySchedule() DaySchedule {
	d := NewDaySchedule()
	d.SetWholeDay(true)
	return d
}

// DayScheduleFromSlots returns a day with exactly the given slots on.
func DayScheduleFromSlots(labels []string) (DaySchedule, error) {
	d := NewDaySchedule()
	for _, l := range labels {
		if err := d.SetSlot(l, true); err != nil {
			return DaySchedule{}, err
		}
	}
	return d, nil
}

// SetWholeDay sets the whole-day flag and fans it out to every slot.
func (d *DaySchedule) SetWholeDay(on bool) {
	if d.TimeSlots == nil {
		d.TimeSlots = make(map[string]bool, len(slotLabels))
	}
	d.WholeDay = on
	for _, label := range slotLabels {
		d.TimeSlots[label] = on
	}
}

// SetSlot turns a single slot on or off, keeping WholeDay consistent.
func (d *DaySchedule) SetSlot(label string, on bool) error {
	if !ValidSlot(label) {
		return fmt.Errorf("%w: %q", ierrors.ErrInvalidSlot, label)
	}
	d.normalize()
	d.TimeSlots[label] = on
	d.WholeDay = d.allOn()
	return nil
}

// Fires reports whether the day plays at label.
func (d DaySchedule) Fires(label string) bool {
	return d.WholeDay || d.TimeSlots[label]
}

// ActiveSlots returns the slots that are on, in order.
func (d DaySchedule) ActiveSlots() []string {
	var out []string
	for _, label := range slotLabels {
		if d.Fires(label) {
			out = append(out, label)
		}
	}
	return out
}

// Clone returns a deep copy.
func (d DaySchedule) Clone() DaySchedule {
	out := DaySchedule{WholeDay: d.WholeDay, TimeSlots: make(map[string]bool, len(d.TimeSlots))}
	for k, v := range d.TimeSlots {
		out.TimeSlots[k] = v
	}
	return out
}

// normalize fills every missing slot and drops unknown ones, then derives
// the whole-day flag both ways.
func (d *DaySchedule) normalize() {
	slots := make(map[string]bool, len(slotLabels))
	for _, label := range slotLabels {
		slots[label] = d.WholeDay || d.TimeSlots[label]
	}
	d.TimeSlots = slots
	d.WholeDay = d.allOn()
}

func (d DaySchedule) allOn() bool {
	for _, label := range slotLabels {
		if !d.TimeSlots[label] {
			return false
		}
	}
	return true
}

// WeeklyPattern is the base schedule keyed by day.
type WeeklyPattern map[Day]DaySchedule

// NewWeeklyPattern returns a pattern with all seven days initialized off.
func NewWeeklyPattern() WeeklyPattern {
	p := make(WeeklyPattern, 7)
	for _, d := range Days() {
		p[d] = NewDaySchedule()
	}
	return p
}

// Clone returns a deep copy.
func (p WeeklyPattern) Clone() WeeklyPattern {
	out := make(WeeklyPattern, len(p))
	for d, s := range p {
		out[d] = s.Clone()
	}
	return out
}
