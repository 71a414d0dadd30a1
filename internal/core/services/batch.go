package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
	"github.com/skedi/calendar-sync/internal/logger"
)

// resyncInterval is how recently an integration must have synced for the
// batch driver to skip it.
const resyncInterval = time.Hour

// Ensure BatchService implements the interface.
var _ driving.BatchRunner = (*BatchService)(nil)

// BatchService drives sync and retention maintenance across
// integrations. One integration's failure never stops the batch;
// successes, failures and skips are counted independently.
type BatchService struct {
	integrations driven.IntegrationStore
	events       driven.EventStore
	sync         driving.CalendarSync

	// syncHorizon is the forward window synced per integration.
	syncHorizon time.Duration

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewBatchService creates a batch runner. syncHorizon bounds the forward
// window synced per integration; zero defaults to 30 days.
func NewBatchService(
	integrations driven.IntegrationStore,
	events driven.EventStore,
	sync driving.CalendarSync,
	syncHorizon time.Duration,
) *BatchService {
	if syncHorizon <= 0 {
		syncHorizon = 30 * 24 * time.Hour
	}
	return &BatchService{
		integrations: integrations,
		events:       events,
		sync:         sync,
		syncHorizon:  syncHorizon,
		now:          time.Now,
	}
}

// SyncAllForProvider syncs every active integration of a provider,
// skipping integrations synced within the last hour. With dryRun set it
// only reports intended actions.
func (s *BatchService) SyncAllForProvider(
	ctx context.Context,
	provider domain.ProviderType,
	dryRun bool,
) (*driving.BatchReport, error) {
	integrations, err := s.integrations.ListByProvider(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(s.syncHorizon)

	report := &driving.BatchReport{}
	for i := range integrations {
		integration := &integrations[i]

		if !integration.LastSynced.IsZero() && now.Sub(integration.LastSynced) < resyncInterval {
			logger.Debug("Skipping integration %d: synced %s ago",
				integration.ID, now.Sub(integration.LastSynced).Round(time.Second))
			report.Skipped++
			continue
		}

		if dryRun {
			logger.Info("[dry-run] Would sync integration %d (%s, user %d)",
				integration.ID, integration.Provider, integration.UserID)
			report.Skipped++
			continue
		}

		if _, err := s.sync.SyncEvents(ctx, integration, start, end); err != nil {
			// A sync already running elsewhere is a skip, not a failure.
			if errors.Is(err, domain.ErrSyncInProgress) {
				logger.Debug("Skipping integration %d: sync already in progress", integration.ID)
				report.Skipped++
				continue
			}
			logger.Warn("Sync failed for integration %d: %v", integration.ID, err)
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("integration %d: %w", integration.ID, err))
			continue
		}
		report.Synced++
	}

	logger.Info("Batch sync for %s: %d synced, %d skipped, %d failed",
		provider, report.Synced, report.Skipped, report.Failed)
	return report, nil
}

// CleanupExpiredEvents purges mirrored events that ended more than
// `days` days ago. Busy blocks derived from purged events are removed by
// the store in the same pass. With dryRun set it only counts.
func (s *BatchService) CleanupExpiredEvents(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive", domain.ErrInvalidInput)
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days)

	if dryRun {
		count, err := s.events.CountEndedBefore(ctx, cutoff)
		if err != nil {
			return 0, fmt.Errorf("count expired events: %w", err)
		}
		logger.Info("[dry-run] Would remove %d events ended before %s", count, cutoff.Format("2006-01-02"))
		return count, nil
	}

	removed, err := s.events.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired events: %w", err)
	}
	logger.Info("Removed %d events ended before %s", removed, cutoff.Format("2006-01-02"))
	return removed, nil
}
