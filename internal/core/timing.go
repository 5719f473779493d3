package core

import "fmt"

// TimingMode selects when the next countdown or cadence window is anchored.
type TimingMode string

const (
	// TimingStart anchors the next window when a burst is dispatched.
	TimingStart TimingMode = "start"
	// TimingEnd anchors the next window when a burst's play window ends.
	TimingEnd TimingMode = "end"
)

// ParseTimingMode validates a timing mode name. The empty string selects
// TimingStart.
func ParseTimingMode(s string) (TimingMode, error) {
	switch TimingMode(s) {
	case "", TimingStart:
		return TimingStart, nil
	case TimingEnd:
		return TimingEnd, nil
	}
	return "", fmt.Errorf("invalid timing mode %q (must be start or end)", s)
}
