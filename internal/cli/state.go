package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/notify"
	"github.com/tessro/interlude/internal/position"
	"github.com/tessro/interlude/internal/wizard"
)

var (
	resetLocal bool
	resetYes   bool
)

var cursorsCmd = &cobra.Command{
	Use:   "cursors",
	Short: "Show rotation indexes and resume positions",
	Args:  cobra.NoArgs,
	RunE:  runCursors,
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show recent notifications from the daemon",
	Args:  cobra.NoArgs,
	RunE:  runNotifications,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all settings, selections, schedules and positions",
	Long: `Stops the timer, abandons any burst in progress and clears every piece of
saved state. With --local the saved record is deleted straight from the
store, which works when the daemon is not running or cannot load it.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetLocal, "local", false, "delete the saved record from the store directly")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(cursorsCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(resetCmd)
}

func runCursors(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c, err := daemon().Cursors(ctx)
	if err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(c)
	}
	printCursors(c)
	return nil
}

func printCursors(c position.Cursor) {
	fmt.Printf("Track rotation:            %d\n", c.TrackRotationIndex)
	fmt.Printf("Manual playlist rotation:  %d\n", c.ManualPlaylistRotationIndex)
	fmt.Printf("Playlist rotation:         %d\n", c.PlaylistRotationIndex)

	printOffsets := func(title string, m map[string]int, label string) {
		if len(m) == 0 {
			return
		}
		fmt.Println()
		t := NewTable(title, label)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.Row(k, strconv.Itoa(m[k]))
		}
		t.Flush()
	}
	printOffsets("PLAYLIST", c.PlaylistOffsets, "NEXT TRACK")
	printOffsets("TRACK", c.TrackOffsets, "RESUME AT (ms)")
}

func runNotifications(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	notes, err := daemon().Notifications(ctx)
	if err != nil {
		return err
	}
	if JSONOutput() {
		if notes == nil {
			notes = []notify.Notification{}
		}
		return printJSON(notes)
	}
	if len(notes) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	// Newest first.
	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		fmt.Printf("%s  %s\n", mutedStyle.Render(humanize.Time(n.At)), headerStyle.Render(n.Title))
		fmt.Printf("    %s\n", n.Body)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes && wizard.IsTerminal() {
		confirmed := false
		err := huh.NewConfirm().
			Title("Reset interlude?").
			Description("Settings, selections, schedules and positions will be lost.").
			Affirmative("Reset").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if resetLocal {
		kv, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = kv.Close() }()
		if err := kv.Delete(ctx, cfg.Store.Key); err != nil {
			return err
		}
		logger.Debug().Str("key", cfg.Store.Key).Msg("deleted saved state")
	} else if err := daemon().Reset(ctx); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]any{"status": "reset", "local": resetLocal})
	}
	fmt.Println("All state has been reset.")
	return nil
}
