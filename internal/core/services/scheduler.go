package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler manages background task execution: the periodic calendar
// sync across all providers and the event retention cleanup.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	batch   driving.BatchRunner
	limiter *RateLimiter

	// retentionDays is the event cleanup window.
	retentionDays int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration. retentionDays
// bounds the event-cleanup task; zero defaults to 90 days.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	batch driving.BatchRunner,
	limiter *RateLimiter,
	retentionDays int,
) *Scheduler {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Scheduler{
		config:        config,
		store:         store,
		batch:         batch,
		limiter:       limiter,
		retentionDays: retentionDays,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDCalendarSync); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDCalendarSync, "Calendar Sync", taskCfg); err != nil {
			return err
		}
	}
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDEventCleanup); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDEventCleanup, "Event Cleanup", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			// Recalculate next run from now
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDCalendarSync:
			result.ItemsProcessed, err = s.runCalendarSync(ctx)
		case domain.TaskIDEventCleanup:
			result.ItemsProcessed, err = s.runEventCleanup(ctx)
		default:
			log.Printf("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		// Update task state
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		// Record result for history
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		// Prune old history (keep last 100 results per task)
		if pruneErr := s.store.PruneHistory(ctx, 100); pruneErr != nil {
			log.Printf("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runCalendarSync syncs every provider's integrations. Per-provider
// failures are logged and counted; the task fails only when every
// provider errors at the listing stage.
func (s *Scheduler) runCalendarSync(ctx context.Context) (int, error) {
	if s.batch == nil {
		return 0, nil
	}

	synced := 0
	failed := 0
	var lastErr error
	for _, provider := range domain.AllProviders {
		report, err := s.batch.SyncAllForProvider(ctx, provider, false)
		if err != nil {
			log.Printf("scheduler: sync for %s failed: %v", provider, err)
			failed++
			lastErr = err
			continue
		}
		synced += report.Synced
	}
	if failed == len(domain.AllProviders) {
		return synced, lastErr
	}
	return synced, nil
}

// runEventCleanup purges mirrored events past the retention window and
// garbage-collects stale rate-limit counter buckets in the same pass.
func (s *Scheduler) runEventCleanup(ctx context.Context) (int, error) {
	if s.batch == nil {
		return 0, nil
	}
	removed, err := s.batch.CleanupExpiredEvents(ctx, s.retentionDays, false)
	if err != nil {
		return 0, err
	}
	if s.limiter != nil {
		if pruneErr := s.limiter.Prune(ctx); pruneErr != nil {
			log.Printf("scheduler: failed to prune rate limit windows: %v", pruneErr)
		}
	}
	return int(removed), nil
}
