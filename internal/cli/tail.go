package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the daemon in real-time",
	Long: `Watch the running daemon and print changes as they happen.

Events tracked:
  - Timer state changes and expiry
  - Bursts starting, playing and finishing
  - Schedule slot changes and monitor checks
  - Settings changes

Templates see .Type, .Emoji, .Time, .Message, .Timer, .Remaining, .Slot,
.Source, .Kind, .Title, .Artist and .Playlist.`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", time.Second, "poll interval")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	formatter, err := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon()

	// Fail fast when nothing is listening.
	first, cancel := context.WithTimeout(ctx, requestTimeout)
	st, err := d.Status(first)
	cancel()
	if err != nil {
		return err
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Timer %s, slot %s %s (%s)", st.Timer.State, st.Resolution.Date, st.Resolution.Slot, st.Resolution.Source)))

	watcher := tail.NewWatcher(d, tailInterval)
	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	for event := range watcher.Events() {
		fmt.Println(formatter.Format(event))
	}
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
