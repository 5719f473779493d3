package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ierrors "github.com/tessro/interlude/internal/errors"
)

const (
	// FirstSlotHour is the hour of the first schedulable slot.
	FirstSlotHour = 7
	// LastSlotHour is the hour of the last schedulable slot. Only its :00
	// mark is generated.
	LastSlotHour = 17
	// SlotLength is the scheduling granularity.
	SlotLength = 30 * time.Minute

	// DateLayout is the layout of date keys (ISO 8601 calendar date).
	DateLayout = "2006-01-02"
)

var (
	slotLabels = generateSlots()
	slotIndex  = indexSlots(slotLabels)
)

func generateSlots() []string {
	var slots []string
	for hour := FirstSlotHour; hour <= LastSlotHour; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
		if hour < LastSlotHour {
			slots = append(slots, fmt.Sprintf("%02d:30", hour))
		}
	}
	return slots
}

func indexSlots(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}

// Slots returns the generated slot labels in chronological order.
func Slots() []string {
	out := make([]string, len(slotLabels))
	copy(out, slotLabels)
	return out
}

// ValidSlot reports whether label is one of the generated slot labels.
func ValidSlot(label string) bool {
	_, ok := slotIndex[label]
	return ok
}

// FloorSlot floors t to the half-hour mark at or before it and reports
// whether that mark is a generated slot.
func FloorSlot(t time.Time) (string, bool) {
	minute := t.Minute() - t.Minute()%30
	label := fmt.Sprintf("%02d:%02d", t.Hour(), minute)
	return label, ValidSlot(label)
}

// ParseSlot normalizes user input such as "9:30" to a slot label.
func ParseSlot(s string) (string, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return "", fmt.Errorf("%w: %q", ierrors.ErrInvalidSlot, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ierrors.ErrInvalidSlot, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ierrors.ErrInvalidSlot, s)
	}
	label := fmt.Sprintf("%02d:%02d", hour, minute)
	if !ValidSlot(label) {
		return "", fmt.Errorf("%w: %q", ierrors.ErrInvalidSlot, s)
	}
	return label, nil
}

// DateKey returns the date key for t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a date key in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ierrors.ErrInvalidDate, s)
	}
	return d, nil
}
