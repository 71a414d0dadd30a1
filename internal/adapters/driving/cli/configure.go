package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure OAuth app credentials for a provider",
	Long: `Store OAuth application credentials for a provider.

Create an OAuth application in the provider's developer console first,
register http://localhost:8976/callback as a redirect URI, then store
the credentials here. One OAuth app serves every connected account of
that provider.

Examples:
  calsync configure --provider google_calendar \
    --client-id "YOUR_CLIENT_ID" --client-secret "YOUR_CLIENT_SECRET"

  calsync configure --provider outlook_calendar \
    --client-id "YOUR_CLIENT_ID" --client-secret "YOUR_CLIENT_SECRET" \
    --scopes "Calendars.ReadWrite,User.Read"`,
	RunE: runConfigure,
}

var (
	configureProvider     string
	configureClientID     string
	configureClientSecret string
	configureScopes       string
)

func init() {
	configureCmd.Flags().StringVar(&configureProvider, "provider", "",
		"provider type (google_calendar, google_meet, outlook_calendar)")
	configureCmd.Flags().StringVar(&configureClientID, "client-id", "", "OAuth client ID")
	configureCmd.Flags().StringVar(&configureClientSecret, "client-secret", "", "OAuth client secret")
	configureCmd.Flags().StringVar(&configureScopes, "scopes", "",
		"OAuth scopes (comma-separated, provider defaults if omitted)")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	if configureProvider == "" || configureClientID == "" || configureClientSecret == "" {
		return errors.New("--provider, --client-id and --client-secret are required")
	}

	provider, err := domain.ParseProviderType(configureProvider)
	if err != nil {
		return err
	}

	scopes := defaultScopes(provider)
	if configureScopes != "" {
		scopes = strings.Split(configureScopes, ",")
		for i := range scopes {
			scopes[i] = strings.TrimSpace(scopes[i])
		}
	}

	configStore.SetProvider(provider, domain.OAuthAppConfig{
		ClientID:     configureClientID,
		ClientSecret: configureClientSecret,
		Scopes:       scopes,
		RedirectURI:  fmt.Sprintf("http://localhost:%d/callback", configStore.CallbackPort()),
	})
	if err := configStore.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cmd.Printf("Configured %s OAuth app.\n", provider)
	cmd.Printf("Connect an account with: calsync connect %s --user <id>\n", provider)
	return nil
}

// defaultScopes returns the OAuth scopes requested when none are
// configured.
func defaultScopes(provider domain.ProviderType) []string {
	switch provider {
	case domain.ProviderGoogleCalendar, domain.ProviderGoogleMeet:
		return []string{
			"https://www.googleapis.com/auth/calendar",
			"https://www.googleapis.com/auth/userinfo.email",
		}
	case domain.ProviderOutlookCalendar:
		return []string{"Calendars.ReadWrite", "User.Read", "offline_access"}
	default:
		return nil
	}
}
