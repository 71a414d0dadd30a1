package driven

// SyncLocker provides per-integration mutual exclusion for sync runs.
// Two concurrent syncs for the same integration could race the
// reconciliation keep-list and wrongly cancel events the other pass just
// upserted, so exactly one sync per integration ID may hold the lock.
type SyncLocker interface {
	// TryLock acquires the lock for an integration without blocking.
	// Returns false when a sync already holds it.
	TryLock(integrationID int64) bool

	// Unlock releases the lock for an integration.
	Unlock(integrationID int64)
}
