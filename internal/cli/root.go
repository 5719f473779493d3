package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/config"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/logging"
	"github.com/tessro/interlude/internal/remote"
	"github.com/tessro/interlude/internal/spotify/auth"
	"github.com/tessro/interlude/internal/spotify/client"
	"github.com/tessro/interlude/internal/spotify/player"
	"github.com/tessro/interlude/internal/store"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg       *config.Config
	logger    = zerolog.Nop()
	logCloser io.Closer
)

// requestTimeout bounds one-shot CLI calls to the daemon and Spotify.
const requestTimeout = 15 * time.Second

var rootCmd = &cobra.Command{
	Use:   "interlude",
	Short: "Play short Spotify bursts on a timer or a weekly schedule",
	Long: `Interlude plays a short burst of music from your Spotify selections when a
manual timer expires or when the weekly schedule says it is time, and
remembers where each track and playlist left off.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.interluderc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return ierrors.Configuration("load config", err)
	}

	if err := cfg.Validate(); err != nil {
		return ierrors.Configuration("validate config", fmt.Errorf("%w: %w", ierrors.ErrInvalidConfig, err))
	}

	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	if verbose {
		opts.Level = "debug"
	}
	logger, logCloser, err = logging.Setup(opts)
	if err != nil {
		return ierrors.Configuration("set up logging", err)
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ierrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// daemon returns a client for the running daemon's control API.
func daemon() *remote.Client {
	return remote.New(cfg.Server.Listen, logger)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

func openStore(ctx context.Context) (store.KV, error) {
	kv, err := store.Open(ctx, store.Options{
		Backend:       store.Backend(cfg.Store.Backend),
		Path:          cfg.Store.Path,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
	})
	if err != nil {
		return nil, ierrors.Configuration("open store", err)
	}
	return kv, nil
}

func authConfig() (*auth.Config, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, ierrors.WithSuggestion(
			ierrors.Configuration("spotify", fmt.Errorf("%w: spotify.client_id is not set", ierrors.ErrInvalidConfig)),
			"Set spotify.client_id in your config file or via INTERLUDE_SPOTIFY_CLIENT_ID",
		)
	}
	return auth.NewConfig(cfg.Spotify.ClientID, cfg.Spotify.RedirectURI), nil
}

// spotifyPlayer builds an authenticated Spotify player backed by the token
// stored in kv. ctx must outlive the player.
func spotifyPlayer(ctx context.Context, kv store.KV) (*player.Player, error) {
	ac, err := authConfig()
	if err != nil {
		return nil, err
	}
	httpClient, err := ac.HTTPClient(ctx, auth.NewTokenStorage(kv, ""), logger)
	if err != nil {
		return nil, err
	}
	return player.New(client.New(httpClient, client.WithLogger(logger))), nil
}
