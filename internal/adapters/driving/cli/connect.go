package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/adapters/driving/oauth"
	"github.com/skedi/calendar-sync/internal/core/domain"
)

var connectCmd = &cobra.Command{
	Use:   "connect [provider]",
	Short: "Connect a calendar account via OAuth",
	Long: `Run the OAuth authorization flow for a provider and store the
resulting integration.

A browser window opens at the provider's consent page; a local callback
server receives the authorization code. Requires OAuth app credentials,
see 'calsync configure'.

Examples:
  calsync connect google_calendar --user 1
  calsync connect outlook_calendar --user 1 --no-browser`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

var (
	connectUserID    int64
	connectNoBrowser bool
	connectTimeout   time.Duration
)

func init() {
	connectCmd.Flags().Int64Var(&connectUserID, "user", 1, "platform user ID to link the account to")
	connectCmd.Flags().BoolVar(&connectNoBrowser, "no-browser", false,
		"print the authorization URL instead of opening a browser")
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 5*time.Minute,
		"how long to wait for the authorization callback")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	provider, err := domain.ParseProviderType(args[0])
	if err != nil {
		return err
	}

	state, err := oauth.GenerateState()
	if err != nil {
		return err
	}

	server := oauth.NewCallbackServer(configStore.CallbackPort(), state)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting callback server: %w", err)
	}
	defer server.Stop() //nolint:errcheck // shutdown is best effort

	authURL, err := authService.AuthURL(provider, state)
	if err != nil {
		return err
	}

	if connectNoBrowser {
		cmd.Println("Open this URL in your browser to authorize:")
		cmd.Println()
		cmd.Printf("  %s\n", authURL)
	} else {
		cmd.Println("Opening browser for authorization...")
		if err := oauth.OpenBrowser(authURL); err != nil {
			cmd.Println("Could not open browser. Open this URL manually:")
			cmd.Printf("  %s\n", authURL)
		}
	}

	cmd.Printf("Waiting for authorization on %s...\n", server.RedirectURI())
	code, err := server.WaitForCode(connectTimeout)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	ctx := context.Background()
	integration, err := authService.HandleCallback(ctx, connectUserID, provider, code)
	if err != nil {
		return fmt.Errorf("completing authorization: %w", err)
	}

	cmd.Printf("\nConnected %s account %q (integration %d).\n",
		integration.Provider, integration.Name, integration.ID)
	cmd.Printf("Sync it with: calsync sync --user %d --provider %s\n",
		integration.UserID, integration.Provider)
	return nil
}
