package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/core"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long: `Lists the Spotify Connect devices available to your account. The device
named by spotify.device is marked as the playback target.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := fetchDevices(cmd)
	if err != nil {
		return err
	}

	if JSONOutput() {
		if devices == nil {
			devices = []core.Device{}
		}
		return printJSON(devices)
	}
	if len(devices) == 0 {
		fmt.Println("No devices found. Open Spotify on at least one device.")
		return nil
	}

	for _, d := range devices {
		printDevice(d)
	}
	return nil
}

func fetchDevices(cmd *cobra.Command) ([]core.Device, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	kv, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = kv.Close() }()

	p, err := spotifyPlayer(ctx, kv)
	if err != nil {
		return nil, err
	}
	return p.Devices(ctx)
}

func printDevice(d core.Device) {
	marks := ""
	if d.IsActive {
		marks += " " + StatusIcon(true)
	}
	if cfg.Spotify.Device != "" && (d.ID == cfg.Spotify.Device || d.Name == cfg.Spotify.Device) {
		marks += " (target)"
	}
	if d.IsRestricted {
		marks += " [restricted]"
	}

	fmt.Printf("  %s %s%s\n", getDeviceIcon(d.Type), d.Name, marks)

	if Verbose() {
		fmt.Printf("      ID: %s\n", d.ID)
		fmt.Printf("      Type: %s\n", d.Type)
		if d.Volume != nil {
			fmt.Printf("      Volume: %d%%\n", *d.Volume)
		}
	}
}

func getDeviceIcon(deviceType core.DeviceType) string {
	switch deviceType {
	case core.DeviceTypeComputer:
		return "💻"
	case core.DeviceTypePhone:
		return "📱"
	case core.DeviceTypeSpeaker:
		return "🔊"
	case core.DeviceTypeTV:
		return "📺"
	default:
		return "🎧"
	}
}
