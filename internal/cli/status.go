package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/engine"
	"github.com/tessro/interlude/internal/timer"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show timer and schedule status",
	Long: `Shows the running daemon's timer state, whether a playback cycle is in
flight, and how the schedule resolves right now.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := daemon().Status(ctx)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(st)
	}
	printStatus(st)
	return nil
}

func printStatus(st engine.Status) {
	fmt.Println(headerStyle.Render("[TIMER]"))
	printTimer(st.Timer)
	fmt.Printf("    burst %gs, mode %s\n", st.Settings.PlayDurationSeconds, st.Settings.PlaybackTimingMode)

	fmt.Println()
	fmt.Println(headerStyle.Render("[PLAYBACK]"))
	if st.Cycle == nil {
		fmt.Println("  Idle")
	} else {
		c := st.Cycle
		playIcon := "▶"
		if !c.Playing {
			playIcon = "…"
		}
		fmt.Printf("  %s %s\n", playIcon, c.Track.Label())
		source := string(c.Kind)
		if c.Playlist != nil {
			source += " from " + c.Playlist.Name
		}
		fmt.Printf("    %s, at %s, started %s\n",
			source,
			FormatDuration(c.PositionMs/1000),
			humanize.Time(c.StartedAt))
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("[SCHEDULE]"))
	r := st.Resolution
	fmt.Printf("  %s %s %s (%s)\n", StatusIcon(r.Fires), r.Date, r.Slot, r.Source)
	if !st.MonitorEnabled {
		fmt.Println(mutedStyle.Render("    monitor disabled"))
	} else if st.LastCheck != nil {
		line := fmt.Sprintf("    last check %s: %s", humanize.Time(st.LastCheck.At), st.LastCheck.Action)
		if st.LastCheck.Reason != "" {
			line += " (" + st.LastCheck.Reason + ")"
		}
		fmt.Println(mutedStyle.Render(line))
	}
}

func printTimer(snap timer.Snapshot) {
	icon := "■"
	switch snap.State {
	case timer.Running:
		icon = "▶"
	case timer.Stopped:
		icon = "⏸"
	case timer.Expired:
		icon = "⏰"
	}
	fmt.Printf("  %s %s  %s / %s\n", icon, snap.State, formatClock(snap.Remaining), formatClock(snap.Duration))
	if snap.State == timer.Running || snap.State == timer.Stopped {
		fmt.Printf("    %s\n", formatProgressBar(snap.Duration-snap.Remaining, snap.Duration, 30))
	}
}

func formatProgressBar(elapsed, total time.Duration, width int) string {
	if total <= 0 {
		return strings.Repeat("─", width)
	}
	filled := int(float64(elapsed) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}
