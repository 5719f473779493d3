package schedule

import (
	"errors"
	"testing"
	"time"

	ierrors "github.com/tessro/interlude/internal/errors"
)

func TestSlots(t *testing.T) {
	slots := Slots()
	if len(slots) != 21 {
		t.Fatalf("len(Slots()) = %d, want 21", len(slots))
	}
	if slots[0] != "07:00" || slots[1] != "07:30" || slots[20] != "17:00" {
		t.Errorf("Slots() = %v", slots)
	}

	slots[0] = "mutated"
	if Slots()[0] != "07:00" {
		t.Error("Slots() must return a copy")
	}
}

func TestFloorSlot(t *testing.T) {
	tests := []struct {
		clock    string
		want     string
		inWindow bool
	}{
		{"09:17", "09:00", true},
		{"09:30", "09:30", true},
		{"09:59", "09:30", true},
		{"07:00", "07:00", true},
		{"06:59", "06:30", false},
		{"17:00", "17:00", true},
		{"17:29", "17:00", true},
		{"17:30", "17:30", false},
		{"23:45", "23:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			ts, err := time.Parse("2006-01-02 15:04", "2026-10-19 "+tt.clock)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := FloorSlot(ts)
			if got != tt.want || ok != tt.inWindow {
				t.Errorf("FloorSlot(%s) = %q, %v; want %q, %v", tt.clock, got, ok, tt.want, tt.inWindow)
			}
		})
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9:30", "09:30", false},
		{"09:00", "09:00", false},
		{" 17:00 ", "17:00", false},
		{"17:30", "", true},
		{"09:15", "", true},
		{"nine", "", true},
		{"9", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSlot(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ierrors.ErrInvalidSlot) {
					t.Errorf("ParseSlot(%q) error = %v, want ErrInvalidSlot", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSlot(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSlot(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-10-19", time.UTC)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if DateKey(d) != "2026-10-19" {
		t.Errorf("DateKey() = %q", DateKey(d))
	}
	if DayOf(d) != Monday {
		t.Errorf("DayOf() = %v, want Monday", DayOf(d))
	}

	if _, err := ParseDate("19/10/2026", time.UTC); !errors.Is(err, ierrors.ErrInvalidDate) {
		t.Errorf("ParseDate() error = %v, want ErrInvalidDate", err)
	}
}
