// Package wizard holds the interactive pickers used when a terminal is
// attached.
package wizard

import (
	"os"

	"golang.org/x/term"

	"github.com/tessro/interlude/internal/core"
)

// IsTerminal returns true if both stdin and stdout are terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// GetActiveDevice returns the single active device if there is exactly one.
func GetActiveDevice(devices []core.Device) *core.Device {
	var active *core.Device
	count := 0
	for i := range devices {
		if devices[i].IsActive {
			active = &devices[i]
			count++
		}
	}
	if count == 1 {
		return active
	}
	return nil
}
