package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

func TestSchedulerStore_GetTask_Missing(t *testing.T) {
	store := NewSchedulerStore()

	task, err := store.GetTask(context.Background(), "no-such-task")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveAndList(t *testing.T) {
	store := NewSchedulerStore()

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDEventCleanup,
		Name:     "Event Cleanup",
		Interval: 24 * time.Hour,
		Enabled:  true,
	}))
	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDCalendarSync,
		Name:     "Calendar Sync",
		Interval: time.Hour,
		Enabled:  true,
	}))

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	// Ordered by ID.
	assert.Equal(t, domain.TaskIDCalendarSync, tasks[0].ID)
	assert.Equal(t, domain.TaskIDEventCleanup, tasks[1].ID)

	task, err := store.GetTask(context.Background(), domain.TaskIDCalendarSync)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, time.Hour, task.Interval)
}

func TestSchedulerStore_History(t *testing.T) {
	store := NewSchedulerStore()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordResult(context.Background(), &domain.TaskResult{
			TaskID:         domain.TaskIDCalendarSync,
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			Success:        true,
			ItemsProcessed: i,
		}))
	}
	require.NoError(t, store.RecordResult(context.Background(), &domain.TaskResult{
		TaskID:    domain.TaskIDEventCleanup,
		StartedAt: base,
		Success:   true,
	}))

	history, err := store.GetTaskHistory(context.Background(), domain.TaskIDCalendarSync, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Most recent first.
	assert.Equal(t, 2, history[0].ItemsProcessed)
	assert.Equal(t, 1, history[1].ItemsProcessed)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	store := NewSchedulerStore()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordResult(context.Background(), &domain.TaskResult{
			TaskID:         domain.TaskIDCalendarSync,
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			ItemsProcessed: i,
		}))
	}

	require.NoError(t, store.PruneHistory(context.Background(), 2))

	history, err := store.GetTaskHistory(context.Background(), domain.TaskIDCalendarSync, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, 3, history[1].ItemsProcessed)
}

func TestSchedulerStore_DeleteTask(t *testing.T) {
	store := NewSchedulerStore()

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:   domain.TaskIDCalendarSync,
		Name: "Calendar Sync",
	}))
	require.NoError(t, store.DeleteTask(context.Background(), domain.TaskIDCalendarSync))

	task, err := store.GetTask(context.Background(), domain.TaskIDCalendarSync)
	require.NoError(t, err)
	assert.Nil(t, task)
}
