package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars available on a connected account",
	RunE:  runCalendars,
}

var (
	calendarsUserID        int64
	calendarsProvider      string
	calendarsIntegrationID int64
)

func init() {
	calendarsCmd.Flags().Int64Var(&calendarsUserID, "user", 1, "platform user ID")
	calendarsCmd.Flags().StringVar(&calendarsProvider, "provider", "", "provider type (required)")
	calendarsCmd.Flags().Int64Var(&calendarsIntegrationID, "integration", 0, "integration ID")
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendars(cmd *cobra.Command, _ []string) error {
	if authService == nil || syncService == nil {
		return errors.New("sync service not configured")
	}
	if calendarsProvider == "" {
		return errors.New("--provider is required")
	}

	provider, err := domain.ParseProviderType(calendarsProvider)
	if err != nil {
		return err
	}

	ctx := context.Background()
	integration, err := authService.UserIntegration(ctx, calendarsUserID, provider, calendarsIntegrationID)
	if err != nil {
		return fmt.Errorf("resolving integration: %w", err)
	}

	calendars, err := syncService.Calendars(ctx, integration)
	if err != nil {
		return fmt.Errorf("listing calendars: %w", err)
	}

	if len(calendars) == 0 {
		cmd.Println("No calendars found.")
		return nil
	}

	cmd.Printf("Calendars on %s account %q:\n", integration.Provider, integration.Name)
	cmd.Println()
	for i := range calendars {
		marker := " "
		if calendars[i].Primary {
			marker = "*"
		}
		cmd.Printf("  %s %s (%s)\n", marker, calendars[i].Name, calendars[i].ID)
	}
	cmd.Println()
	cmd.Println("* primary calendar")
	return nil
}
