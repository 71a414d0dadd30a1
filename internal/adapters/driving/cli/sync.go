package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise events from a connected account",
	Long: `Pulls events from the provider into the local mirror, reconciles
deletions, and republishes busy blocks.

Dates accept absolute forms ("2026-03-01") and relative forms ("today",
"+30 days"). The default window is today through 30 days out.

Examples:
  calsync sync --user 1 --provider google_calendar
  calsync sync --integration 3 --from today --to "+7 days"`,
	RunE: runSync,
}

var syncAllCmd = &cobra.Command{
	Use:   "sync-all",
	Short: "Synchronise every active account of a provider",
	Long: `Runs a sync for every active integration of a provider, across
users. Integrations synced within the last hour are skipped. One
integration's failure never stops the rest.

Examples:
  calsync sync-all --provider google_calendar
  calsync sync-all --provider outlook_calendar --dry-run`,
	RunE: runSyncAll,
}

var (
	syncUserID        int64
	syncProvider      string
	syncIntegrationID int64
	syncFrom          string
	syncTo            string

	syncAllProvider string
	syncAllDryRun   bool
)

func init() {
	syncCmd.Flags().Int64Var(&syncUserID, "user", 1, "platform user ID")
	syncCmd.Flags().StringVar(&syncProvider, "provider", "", "provider type")
	syncCmd.Flags().Int64Var(&syncIntegrationID, "integration", 0,
		"integration ID (uses the newest active integration if omitted)")
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "range start (default today)")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "range end (default +30 days)")
	rootCmd.AddCommand(syncCmd)

	syncAllCmd.Flags().StringVar(&syncAllProvider, "provider", "", "provider type (required)")
	syncAllCmd.Flags().BoolVar(&syncAllDryRun, "dry-run", false,
		"report what would be synced without calling providers")
	rootCmd.AddCommand(syncAllCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if authService == nil || syncService == nil {
		return errors.New("sync service not configured")
	}
	if syncProvider == "" && syncIntegrationID == 0 {
		return errors.New("--provider or --integration is required")
	}

	ctx := context.Background()

	var integration *domain.Integration
	var err error
	if syncIntegrationID != 0 && syncProvider == "" {
		if integrationStore == nil {
			return errors.New("integration store not configured")
		}
		integration, err = integrationStore.Get(ctx, syncIntegrationID)
	} else {
		var provider domain.ProviderType
		provider, err = domain.ParseProviderType(syncProvider)
		if err != nil {
			return err
		}
		integration, err = authService.UserIntegration(ctx, syncUserID, provider, syncIntegrationID)
	}
	if err != nil {
		return fmt.Errorf("resolving integration: %w", err)
	}

	start, end, err := resolveDateRange(syncFrom, syncTo)
	if err != nil {
		return err
	}

	cmd.Printf("Synchronising %s account %q (%s to %s)...\n",
		integration.Provider, integration.Name,
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	events, err := syncService.SyncEvents(ctx, integration, start, end)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return errors.New("a sync for this integration is already running")
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Synchronised %d events.\n", len(events))
	return nil
}

func runSyncAll(cmd *cobra.Command, _ []string) error {
	if batchRunner == nil {
		return errors.New("batch service not configured")
	}
	if syncAllProvider == "" {
		return errors.New("--provider is required")
	}

	provider, err := domain.ParseProviderType(syncAllProvider)
	if err != nil {
		return err
	}

	if syncAllDryRun {
		cmd.Printf("Dry run: checking %s integrations...\n", provider)
	} else {
		cmd.Printf("Synchronising all %s integrations...\n", provider)
	}

	report, err := batchRunner.SyncAllForProvider(context.Background(), provider, syncAllDryRun)
	if err != nil {
		return fmt.Errorf("batch sync failed: %w", err)
	}

	cmd.Printf("Synced: %d, skipped: %d, failed: %d\n",
		report.Synced, report.Skipped, report.Failed)
	for _, syncErr := range report.Errors {
		cmd.Printf("  error: %v\n", syncErr)
	}
	return nil
}

// resolveDateRange parses the --from/--to pair, defaulting to
// [today, +30 days).
func resolveDateRange(fromExpr, toExpr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := midnight
	if fromExpr != "" {
		parsed, err := domain.ParseDate(fromExpr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		start = parsed
	}

	end := midnight.AddDate(0, 0, 30)
	if toExpr != "" {
		parsed, err := domain.ParseDate(toExpr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = parsed
	}

	if err := domain.ValidateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
