package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/engine"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/notify"
	"github.com/tessro/interlude/internal/server"
	"github.com/tessro/interlude/internal/spotify/player"
	"github.com/tessro/interlude/internal/telemetry"
)

var runNoMonitor bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interlude daemon",
	Long: `Runs the playback engine and its control API in the foreground until
interrupted. Other commands talk to this process over the control API.`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().BoolVar(&runNoMonitor, "no-monitor", false, "disable the scheduled playback monitor")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	p, err := spotifyPlayer(ctx, kv)
	if err != nil {
		return err
	}
	if _, err := p.CheckPremium(ctx); err != nil {
		if errors.Is(err, ierrors.ErrNotAuthenticated) {
			return err
		}
		logger.Warn().Err(err).Msg("account check failed; playback may be refused")
	}

	var metrics *telemetry.Metrics
	if cfg.Server.MetricsEnabled() {
		metrics = telemetry.New()
	}
	notes := notify.NewBuffer(notify.DefaultCapacity)
	notifier := notify.Counted(notify.Multi{notify.NewLog(logger), notes}, metrics.Notified)

	eng := engine.New(p, kv, notifier, metrics, logger, engine.Options{
		TimerDuration:   cfg.Timer.Duration(),
		PlayDuration:    cfg.Timer.PlayDuration(),
		TimingMode:      core.TimingMode(cfg.Timer.TimingMode),
		MaxTracks:       cfg.Timer.MaxTracks,
		DeviceID:        resolveDevice(ctx, p),
		TickInterval:    cfg.Timer.Tick(),
		MonitorInterval: cfg.Monitor.Poll(),
		MonitorEnabled:  cfg.Monitor.IsEnabled() && !runNoMonitor,
		StateKey:        cfg.Store.Key,
	})
	srv := server.New(eng, p, notes, metrics, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineErr := make(chan error, 1)
	go func() {
		err := eng.Run(ctx)
		cancel()
		engineErr <- err
	}()

	srvErr := srv.ListenAndServe(ctx, cfg.Server.Listen)
	cancel()
	if err := <-engineErr; err != nil {
		return err
	}
	return srvErr
}

// resolveDevice maps the configured device name or ID to a device ID. An
// unknown device falls back to the account's active device.
func resolveDevice(ctx context.Context, p *player.Player) string {
	if cfg.Spotify.Device == "" {
		return ""
	}
	devices, err := p.Devices(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not list devices; using the active device")
		return ""
	}
	d, err := player.FindDevice(devices, cfg.Spotify.Device)
	if err != nil {
		logger.Warn().Err(err).Msg("configured device is not available; using the active device")
		return ""
	}
	logger.Info().Str("device", d.Name).Msg("playback device selected")
	return d.ID
}
