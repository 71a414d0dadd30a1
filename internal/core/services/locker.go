package services

import (
	"sync"

	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// Ensure SyncLock implements the interface.
var _ driven.SyncLocker = (*SyncLock)(nil)

// SyncLock is an in-process single-flight lock keyed by integration ID.
// It serialises sync runs per integration; distinct integrations touch
// disjoint rows and may sync concurrently.
type SyncLock struct {
	mu     sync.Mutex
	locked map[int64]bool
}

// NewSyncLock creates an empty lock set.
func NewSyncLock() *SyncLock {
	return &SyncLock{
		locked: make(map[int64]bool),
	}
}

// TryLock acquires the lock for an integration without blocking.
func (l *SyncLock) TryLock(integrationID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked[integrationID] {
		return false
	}
	l.locked[integrationID] = true
	return true
}

// Unlock releases the lock for an integration.
func (l *SyncLock) Unlock(integrationID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locked, integrationID)
}
