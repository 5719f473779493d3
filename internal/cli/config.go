package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/config"
	"github.com/tessro/interlude/internal/core"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/server"
	"github.com/tessro/interlude/internal/wizard"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing interlude configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. The file is validated before it is written.

Supported keys:
  ` + strings.Join(config.SettableKeys(), "\n  ") + `

timer.duration_minutes, timer.play_seconds and timer.timing_mode only seed a
fresh state. Once the daemon has saved its settings those win at startup, so
these keys are also sent to the running daemon, the same as 'interlude timer set'.

Examples:
  interlude config set spotify.device "Kitchen"
  interlude config set timer.play_seconds 45`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetDeviceCmd = &cobra.Command{
	Use:   "set-device",
	Short: "Interactively select the playback device",
	Long:  `Shows a picker to select the device bursts are played on.`,
	RunE:  runConfigSetDevice,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetDeviceCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	shown := *cfg
	if shown.Store.RedisPassword != "" {
		shown.Store.RedisPassword = "********"
	}
	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(shown)
}

func requireConfigFile() (string, error) {
	path := config.Path(cfgFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", ierrors.WithSuggestion(
			fmt.Errorf("%w at %s", ierrors.ErrConfigNotFound, path),
			"Run 'interlude config init' first",
		)
	}
	return path, nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, err := requireConfigFile()
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return err
	}

	// Report problems right away rather than on the next command.
	edited, err := config.LoadFrom(configPath)
	if err != nil {
		return ierrors.Configuration("edit config", err)
	}
	if err := edited.Validate(); err != nil {
		return ierrors.Configuration("edit config", fmt.Errorf("%w: %w", ierrors.ErrInvalidConfig, err))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := config.Path(cfgFile)
	if err := config.WriteDefault(configPath); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}
	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set your Spotify client ID in the config file or via INTERLUDE_SPOTIFY_CLIENT_ID")
	fmt.Println("  2. Run 'interlude auth login' to authenticate with Spotify")
	fmt.Println("  3. Run 'interlude run' to start the daemon")
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configPath, err := requireConfigFile()
	if err != nil {
		return err
	}
	if err := config.Set(configPath, key, value); err != nil {
		return ierrors.Configuration("config set", err)
	}

	req, live := settingsRequest(key, value)
	applied := false
	if live {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		_, err := daemon().UpdateSettings(ctx, req)
		switch {
		case err == nil:
			applied = true
		case errors.Is(err, ierrors.ErrDaemonUnreachable):
			logger.Debug().Err(err).Msg("daemon not running, settings not sent")
		default:
			return err
		}
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":  "updated",
			"key":     key,
			"value":   value,
			"applied": applied,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	switch {
	case applied:
		fmt.Println("Applied to the running daemon.")
	case live:
		fmt.Println(mutedStyle.Render("The daemon is not running. Saved settings take precedence over this value;"))
		fmt.Println(mutedStyle.Render("start it with 'interlude run' and use 'interlude timer set' to change them."))
	}
	return nil
}

// settingsRequest maps the config keys that seed the saved settings to
// the matching control API change.
func settingsRequest(key, value string) (server.SettingsRequest, bool) {
	switch key {
	case "timer.duration_minutes":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return server.SettingsRequest{}, false
		}
		return server.SettingsRequest{TimerDuration: time.Duration(f * float64(time.Minute)).String()}, true
	case "timer.play_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return server.SettingsRequest{}, false
		}
		return server.SettingsRequest{PlayDuration: (time.Duration(n) * time.Second).String()}, true
	case "timer.timing_mode":
		return server.SettingsRequest{TimingMode: value}, true
	}
	return server.SettingsRequest{}, false
}

func runConfigSetDevice(cmd *cobra.Command, args []string) error {
	devices, err := fetchDevices(cmd)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	var selected *core.Device
	if wizard.IsTerminal() {
		selected, err = wizard.RunDevicePicker(devices, cfg.Spotify.Device)
		if err != nil {
			return err
		}
		if selected == nil {
			return fmt.Errorf("selection cancelled")
		}
	} else {
		// Without a terminal only an unambiguous choice is made.
		selected = wizard.GetActiveDevice(devices)
		if selected == nil {
			return fmt.Errorf("no single active device; run set-device in a terminal or use 'interlude config set spotify.device <name>'")
		}
	}

	return runConfigSet(cmd, []string{"spotify.device", selected.Name})
}
