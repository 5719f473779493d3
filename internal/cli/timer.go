package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/server"
	"github.com/tessro/interlude/internal/state"
	"github.com/tessro/interlude/internal/timer"
)

var (
	timerSetDuration string
	timerSetPlay     string
	timerSetMode     string
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the manual timer",
	Long: `Controls the countdown timer. When it reaches zero a short burst of a
manually selected track or playlist plays.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := daemon().Timer(ctx)
		if err != nil {
			return err
		}
		return outputTimer(snap)
	},
}

var timerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := daemon().StartTimer(ctx)
		if err != nil {
			return err
		}
		return outputTimer(snap)
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Pause the timer, keeping the remaining time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := daemon().StopTimer(ctx)
		if err != nil {
			return err
		}
		return outputTimer(snap)
	},
}

var timerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the timer and abandon any burst in progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		snap, err := daemon().FullStopTimer(ctx)
		if err != nil {
			return err
		}
		return outputTimer(snap)
	},
}

var timerSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change timer and burst settings",
	Long: `Changes the timer length, the burst length and the timing mode of the
running daemon. Durations use Go syntax.

Examples:
  interlude timer set --duration 30m
  interlude timer set --play 45s --mode end`,
	Args: cobra.NoArgs,
	RunE: runTimerSet,
}

func init() {
	timerSetCmd.Flags().StringVar(&timerSetDuration, "duration", "", "timer length, e.g. 30m")
	timerSetCmd.Flags().StringVar(&timerSetPlay, "play", "", "burst length in whole seconds, 10s to 1m")
	timerSetCmd.Flags().StringVar(&timerSetMode, "mode", "", "timing mode: start or end")

	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerStopCmd)
	timerCmd.AddCommand(timerResetCmd)
	timerCmd.AddCommand(timerSetCmd)
	rootCmd.AddCommand(timerCmd)
}

func runTimerSet(cmd *cobra.Command, args []string) error {
	req := server.SettingsRequest{
		TimerDuration: timerSetDuration,
		PlayDuration:  timerSetPlay,
		TimingMode:    timerSetMode,
	}
	if req == (server.SettingsRequest{}) {
		return fmt.Errorf("nothing to change; pass --duration, --play or --mode")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	settings, err := daemon().UpdateSettings(ctx, req)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(settings)
	}
	printSettings(settings)
	return nil
}

func outputTimer(snap timer.Snapshot) error {
	if JSONOutput() {
		return printJSON(snap)
	}
	printTimer(snap)
	return nil
}

func printSettings(s state.Settings) {
	fmt.Printf("Timer:  %s\n", formatClock(s.TimerDuration()))
	fmt.Printf("Burst:  %s\n", formatClock(s.PlayDuration()))
	fmt.Printf("Mode:   %s\n", s.PlaybackTimingMode)
}
