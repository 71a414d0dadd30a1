package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge mirrored events past the retention window",
	Long: `Deletes mirrored events that ended more than the retention window
ago, together with their busy blocks. Cancelled tombstones age out the
same way.

Examples:
  calsync cleanup
  calsync cleanup --days 30 --dry-run`,
	RunE: runCleanup,
}

var (
	cleanupDays   int
	cleanupDryRun bool
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0,
		"retention window in days (default from config)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false,
		"count what would be removed without deleting")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	if batchRunner == nil {
		return errors.New("batch service not configured")
	}

	days := cleanupDays
	if days <= 0 && configStore != nil {
		days = configStore.RetentionDays()
	}
	if days <= 0 {
		days = 90
	}

	removed, err := batchRunner.CleanupExpiredEvents(context.Background(), days, cleanupDryRun)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if cleanupDryRun {
		cmd.Printf("Dry run: %d events older than %d days would be removed.\n", removed, days)
	} else {
		cmd.Printf("Removed %d events older than %d days.\n", removed, days)
	}
	return nil
}
