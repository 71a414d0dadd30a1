package driving

import (
	"context"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// BatchReport summarises a batch run. Counters are independent: one
// integration's failure never stops the rest of the batch.
type BatchReport struct {
	// Synced is the number of integrations successfully processed.
	Synced int
	// Skipped is the number of integrations left alone (synced recently,
	// or reported only in dry-run mode).
	Skipped int
	// Failed is the number of integrations that errored.
	Failed int
	// Errors holds one entry per failed integration.
	Errors []error
}

// BatchRunner drives sync and retention maintenance across many
// integrations.
type BatchRunner interface {
	// SyncAllForProvider syncs every active integration of a provider over
	// the default window, skipping integrations synced within the last
	// hour. With dryRun set it only reports intended actions.
	SyncAllForProvider(ctx context.Context, provider domain.ProviderType, dryRun bool) (*BatchReport, error)

	// CleanupExpiredEvents purges mirrored events that ended more than
	// `days` days ago, together with their busy blocks. With dryRun set it
	// only counts what would be removed.
	CleanupExpiredEvents(ctx context.Context, days int, dryRun bool) (int64, error)
}
