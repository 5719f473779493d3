package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/core"
	"github.com/tessro/interlude/internal/position"
)

var playlistsScheduled bool

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Manage the manually selected tracks",
	Long: `The manual track selection is played in rotation when the timer
expires. Each track resumes where its previous burst stopped.`,
}

var tracksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List selected tracks",
	Args:  cobra.NoArgs,
	RunE:  runTracksList,
}

var tracksAddCmd = &cobra.Command{
	Use:   "add <uri|url|id>",
	Short: "Add a track to the selection",
	Example: `  interlude tracks add spotify:track:4uLU6hMCjMI75M1A2tKUQC
  interlude tracks add https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC`,
	Args: cobra.ExactArgs(1),
	RunE: runTracksAdd,
}

var tracksRemoveCmd = &cobra.Command{
	Use:   "remove <selection-id>",
	Short: "Remove a track from the selection",
	Args:  cobra.ExactArgs(1),
	RunE:  runTracksRemove,
}

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "Manage the manual and scheduled playlists",
	Long: `Manual playlists play when the timer expires and no tracks are selected.
Scheduled playlists play when the weekly schedule fires. Pass --scheduled
to work on the scheduled list.`,
}

var playlistsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playlists",
	Args:  cobra.NoArgs,
	RunE:  runPlaylistsList,
}

var playlistsAddCmd = &cobra.Command{
	Use:   "add <uri|url|id>",
	Short: "Add a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistsAdd,
}

var playlistsRemoveCmd = &cobra.Command{
	Use:   "remove <playlist-id>",
	Short: "Remove a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistsRemove,
}

func init() {
	tracksCmd.AddCommand(tracksListCmd)
	tracksCmd.AddCommand(tracksAddCmd)
	tracksCmd.AddCommand(tracksRemoveCmd)
	rootCmd.AddCommand(tracksCmd)

	playlistsCmd.PersistentFlags().BoolVarP(&playlistsScheduled, "scheduled", "s", false, "use the scheduled playlist list")
	playlistsCmd.AddCommand(playlistsListCmd)
	playlistsCmd.AddCommand(playlistsAddCmd)
	playlistsCmd.AddCommand(playlistsRemoveCmd)
	rootCmd.AddCommand(playlistsCmd)
}

func selectedList() position.PlaylistList {
	if playlistsScheduled {
		return position.ScheduledPlaylists
	}
	return position.ManualPlaylists
}

func runTracksList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	tracks, err := daemon().Tracks(ctx)
	if err != nil {
		return err
	}
	if JSONOutput() {
		if tracks == nil {
			tracks = []position.SelectedTrack{}
		}
		return printJSON(tracks)
	}
	if len(tracks) == 0 {
		fmt.Println("No tracks selected.")
		return nil
	}

	t := NewTable("#", "ID", "TRACK", "LENGTH")
	for i, st := range tracks {
		t.Row(strconv.Itoa(i+1), st.SelectionID, TruncateString(st.Track.Label(), 60), FormatDuration(int(st.Track.Duration.Seconds())))
	}
	t.Flush()
	return nil
}

func runTracksAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := daemon().AddTrack(ctx, args[0])
	if err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(st)
	}
	fmt.Printf("Added %s (%s)\n", st.Track.Label(), st.SelectionID)
	return nil
}

func runTracksRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := daemon().RemoveTrack(ctx, args[0]); err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(map[string]string{"status": "removed", "selection_id": args[0]})
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}

func runPlaylistsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list := selectedList()
	playlists, err := daemon().Playlists(ctx, list)
	if err != nil {
		return err
	}
	if JSONOutput() {
		if playlists == nil {
			playlists = []core.Playlist{}
		}
		return printJSON(playlists)
	}
	if len(playlists) == 0 {
		fmt.Printf("No %s playlists.\n", list)
		return nil
	}

	t := NewTable("#", "ID", "NAME", "OWNER", "TRACKS")
	for i, p := range playlists {
		t.Row(strconv.Itoa(i+1), p.ID, TruncateString(p.Name, 40), p.Owner, strconv.Itoa(p.TrackCount))
	}
	t.Flush()
	return nil
}

func runPlaylistsAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list := selectedList()
	p, err := daemon().AddPlaylist(ctx, list, args[0])
	if err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(p)
	}
	fmt.Printf("Added %s to %s playlists\n", p.Name, list)
	return nil
}

func runPlaylistsRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list := selectedList()
	if err := daemon().RemovePlaylist(ctx, list, args[0]); err != nil {
		return err
	}
	if JSONOutput() {
		return printJSON(map[string]string{"status": "removed", "list": string(list), "playlist_id": args[0]})
	}
	fmt.Printf("Removed %s from %s playlists\n", args[0], list)
	return nil
}
