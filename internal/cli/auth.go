package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/tessro/interlude/internal/browser"
	ierrors "github.com/tessro/interlude/internal/errors"
	"github.com/tessro/interlude/internal/spotify/auth"
)

const loginTimeout = 5 * time.Minute

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long:  `Opens a browser to authenticate with Spotify using the OAuth PKCE flow.`,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth token from the configured store.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ac, err := authConfig()
	if err != nil {
		return err
	}
	addr, path, err := ac.CallbackAddr()
	if err != nil {
		return ierrors.Configuration("spotify.redirect_uri", err)
	}

	pkce, err := auth.NewPKCE()
	if err != nil {
		return fmt.Errorf("failed to generate PKCE: %w", err)
	}

	callbackServer, err := auth.NewCallbackServer(addr, path, pkce.State)
	if err != nil {
		return err
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	authURL := ac.AuthURL(pkce)

	fmt.Println("Opening browser for Spotify authentication...")
	if err := browser.Open(authURL); err != nil {
		fmt.Println("Could not open browser automatically.")
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
		if clipboard.WriteAll(authURL) == nil {
			fmt.Println("(The URL has been copied to your clipboard.)")
		}
	}

	fmt.Println("Waiting for authentication...")
	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	code, err := callbackServer.Wait(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Exchanging code for tokens...")
	token, err := ac.Exchange(ctx, code, pkce)
	if err != nil {
		return err
	}

	kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	if err := auth.NewTokenStorage(kv, "").Save(ctx, token); err != nil {
		return err
	}

	p, err := spotifyPlayer(ctx, kv)
	if err != nil {
		return err
	}
	user, err := p.CheckPremium(ctx)
	switch {
	case errors.Is(err, ierrors.ErrPremiumRequired):
		fmt.Printf("Warning: %s has no Premium subscription; playback control will be refused.\n", user.DisplayName)
	case err != nil:
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"email":        user.Email,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s (%s)\n", user.DisplayName, user.Email)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	storage := auth.NewTokenStorage(kv, "")
	token, err := storage.Load(ctx)
	if err != nil {
		return err
	}
	if token == nil {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := storage.Delete(ctx); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	kv, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	token, err := auth.NewTokenStorage(kv, "").Load(ctx)
	if err != nil {
		return err
	}
	if token == nil {
		if JSONOutput() {
			return printJSON(map[string]any{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'interlude auth login' to authenticate.")
		return nil
	}

	p, err := spotifyPlayer(ctx, kv)
	if err != nil {
		return err
	}
	user, err := p.CheckPremium(ctx)
	if err != nil && !errors.Is(err, ierrors.ErrPremiumRequired) {
		if JSONOutput() {
			return printJSON(map[string]any{
				"authenticated": true,
				"valid":         false,
				"error":         err.Error(),
			})
		}
		fmt.Printf("Token may be expired or invalid: %v\n", err)
		fmt.Println("Run 'interlude auth login' to re-authenticate.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"authenticated": true,
			"valid":         true,
			"premium":       user.IsPremium(),
			"user_id":       user.ID,
			"display_name":  user.DisplayName,
			"email":         user.Email,
			"product":       user.Product,
			"expires_at":    token.Expiry,
		})
	}
	fmt.Printf("Authenticated as: %s (%s)\n", user.DisplayName, user.Email)
	fmt.Printf("Account type: %s\n", user.Product)
	if !user.IsPremium() {
		fmt.Println("Playback control requires Spotify Premium.")
	}
	if !token.Expiry.IsZero() {
		fmt.Printf("Token expires: %s\n", token.Expiry.Format(time.RFC3339))
	}
	return nil
}
