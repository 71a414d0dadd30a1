package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/skedi/calendar-sync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/logger"
)

// Store is a unified SQLite-based storage that provides access to
// all persistence interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.calsync/data/calsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".calsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "calsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// IntegrationStore returns an IntegrationStore interface backed by this store.
func (s *Store) IntegrationStore() driven.IntegrationStore {
	return &integrationStore{store: s}
}

// EventStore returns an EventStore interface backed by this store.
func (s *Store) EventStore() driven.EventStore {
	return &eventStore{store: s}
}

// BusyBlockPublisher returns a BusyBlockPublisher interface backed by this store.
func (s *Store) BusyBlockPublisher() driven.BusyBlockPublisher {
	return &busyBlockStore{store: s}
}

// RateLimitStore returns a RateLimitStore interface backed by this store.
func (s *Store) RateLimitStore() driven.RateLimitStore {
	return &rateLimitStore{store: s}
}

// Cache returns a Cache interface backed by this store.
func (s *Store) Cache() driven.Cache {
	return &cacheStore{store: s, now: time.Now}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// nullTime converts a time to sql.NullTime, mapping zero to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// ==================== Integration Store ====================

// integrationStore implements driven.IntegrationStore.
type integrationStore struct {
	store *Store
}

var _ driven.IntegrationStore = (*integrationStore)(nil)

const integrationColumns = `id, user_id, provider, external_id, name, access_token, refresh_token,
	token_expiry, scopes, config, status, last_synced, created_at, updated_at`

// Save stores an integration, creating when ID is zero.
func (s *integrationStore) Save(ctx context.Context, integration *domain.Integration) error {
	scopesJSON, err := json.Marshal(integration.Scopes)
	if err != nil {
		return fmt.Errorf("marshalling scopes: %w", err)
	}
	configJSON, err := json.Marshal(integration.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	integration.UpdatedAt = now

	if integration.ID == 0 {
		if integration.CreatedAt.IsZero() {
			integration.CreatedAt = now
		}
		result, err := s.store.db.ExecContext(ctx, `
			INSERT INTO integrations (user_id, provider, external_id, name, access_token, refresh_token,
				token_expiry, scopes, config, status, last_synced, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, integration.UserID, integration.Provider, integration.ExternalID, integration.Name,
			integration.AccessToken, integration.RefreshToken, nullTime(integration.TokenExpiry),
			string(scopesJSON), string(configJSON), integration.Status,
			nullTime(integration.LastSynced), integration.CreatedAt, integration.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting integration: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting integration ID: %w", err)
		}
		integration.ID = id
		return nil
	}

	_, err = s.store.db.ExecContext(ctx, `
		UPDATE integrations SET
			user_id = ?, provider = ?, external_id = ?, name = ?, access_token = ?,
			refresh_token = ?, token_expiry = ?, scopes = ?, config = ?, status = ?,
			last_synced = ?, updated_at = ?
		WHERE id = ?
	`, integration.UserID, integration.Provider, integration.ExternalID, integration.Name,
		integration.AccessToken, integration.RefreshToken, nullTime(integration.TokenExpiry),
		string(scopesJSON), string(configJSON), integration.Status,
		nullTime(integration.LastSynced), integration.UpdatedAt, integration.ID)
	if err != nil {
		return fmt.Errorf("updating integration: %w", err)
	}
	return nil
}

// Get retrieves an integration by ID.
func (s *integrationStore) Get(ctx context.Context, id int64) (*domain.Integration, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+integrationColumns+" FROM integrations WHERE id = ?", id)
	return scanIntegration(row)
}

// FindActive returns the most recently created active integration for
// (user, provider).
func (s *integrationStore) FindActive(
	ctx context.Context,
	userID int64,
	provider domain.ProviderType,
) (*domain.Integration, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+integrationColumns+` FROM integrations
		WHERE user_id = ? AND provider = ? AND status = 'active'
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, userID, provider)
	return scanIntegration(row)
}

// ListByProvider returns all active integrations for a provider.
func (s *integrationStore) ListByProvider(
	ctx context.Context,
	provider domain.ProviderType,
) ([]domain.Integration, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+integrationColumns+` FROM integrations
		WHERE provider = ? AND status = 'active'
		ORDER BY id
	`, provider)
	if err != nil {
		return nil, fmt.Errorf("querying integrations: %w", err)
	}
	defer rows.Close()
	return scanIntegrations(rows)
}

// ListByUser returns all integrations for a user, any status.
func (s *integrationStore) ListByUser(ctx context.Context, userID int64) ([]domain.Integration, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+integrationColumns+` FROM integrations
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying integrations: %w", err)
	}
	defer rows.Close()
	return scanIntegrations(rows)
}

// SetLastSynced updates only the last-synced timestamp.
func (s *integrationStore) SetLastSynced(ctx context.Context, id int64, at time.Time) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE integrations SET last_synced = ?, updated_at = ? WHERE id = ?
	`, at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating last synced: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an integration.
func (s *integrationStore) Delete(ctx context.Context, id int64) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM integrations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting integration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanIntegrationRow scans one integration from a row or rows cursor.
func scanIntegrationRow(row rowScanner) (*domain.Integration, error) {
	var integration domain.Integration
	var scopesJSON, configJSON string
	var tokenExpiry, lastSynced sql.NullTime

	err := row.Scan(&integration.ID, &integration.UserID, &integration.Provider,
		&integration.ExternalID, &integration.Name, &integration.AccessToken,
		&integration.RefreshToken, &tokenExpiry, &scopesJSON, &configJSON,
		&integration.Status, &lastSynced, &integration.CreatedAt, &integration.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning integration: %w", err)
	}

	if err := json.Unmarshal([]byte(scopesJSON), &integration.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshalling scopes: %w", err)
	}
	if err := json.Unmarshal([]byte(configJSON), &integration.Config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if tokenExpiry.Valid {
		integration.TokenExpiry = tokenExpiry.Time
	}
	if lastSynced.Valid {
		integration.LastSynced = lastSynced.Time
	}
	return &integration, nil
}

// scanIntegration scans one integration from a single-row query.
func scanIntegration(row *sql.Row) (*domain.Integration, error) {
	return scanIntegrationRow(row)
}

// scanIntegrations drains a rows cursor of integrations.
func scanIntegrations(rows *sql.Rows) ([]domain.Integration, error) {
	var integrations []domain.Integration //nolint:prealloc // size unknown from query
	for rows.Next() {
		integration, err := scanIntegrationRow(rows)
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, *integration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating integrations: %w", err)
	}
	return integrations, nil
}

// ==================== Event Store ====================

// eventStore implements driven.EventStore.
type eventStore struct {
	store *Store
}

var _ driven.EventStore = (*eventStore)(nil)

const eventColumns = `id, user_id, integration_id, calendar_id, calendar_name, external_id,
	title, description, location, start_time, end_time, all_day, status, transparency,
	organizer_email, is_organizer, html_link, etag, created_at, updated_at, synced_at`

// Upsert stores an event keyed by (integration, external ID).
func (s *eventStore) Upsert(ctx context.Context, event *domain.CalendarEvent) error {
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO calendar_events (user_id, integration_id, calendar_id, calendar_name,
			external_id, title, description, location, start_time, end_time, all_day,
			status, transparency, organizer_email, is_organizer, html_link, etag,
			created_at, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(integration_id, external_id) DO UPDATE SET
			user_id = excluded.user_id,
			calendar_id = excluded.calendar_id,
			calendar_name = excluded.calendar_name,
			title = excluded.title,
			description = excluded.description,
			location = excluded.location,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			all_day = excluded.all_day,
			status = excluded.status,
			transparency = excluded.transparency,
			organizer_email = excluded.organizer_email,
			is_organizer = excluded.is_organizer,
			html_link = excluded.html_link,
			etag = excluded.etag,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at
	`, event.UserID, event.IntegrationID, event.CalendarID, event.CalendarName,
		event.ExternalID, event.Title, event.Description, event.Location,
		event.StartTime.UTC(), event.EndTime.UTC(), event.AllDay, event.Status,
		event.Transparency, event.OrganizerEmail, event.IsOrganizer, event.HTMLLink,
		event.ETag, event.CreatedAt, event.UpdatedAt, nullTime(event.SyncedAt))
	if err != nil {
		return fmt.Errorf("upserting event: %w", err)
	}

	// Upsert on conflict does not report the surviving row ID, so read it back.
	row := s.store.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM calendar_events WHERE integration_id = ? AND external_id = ?",
		event.IntegrationID, event.ExternalID)
	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return fmt.Errorf("reading event ID: %w", err)
	}
	return nil
}

// Get retrieves an event by integration and external ID.
func (s *eventStore) Get(ctx context.Context, integrationID int64, externalID string) (*domain.CalendarEvent, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM calendar_events WHERE integration_id = ? AND external_id = ?",
		integrationID, externalID)
	return scanEvent(row)
}

// ListForCalendar returns events for an integration's calendar overlapping
// [start, end). Zero start and end return every event on the calendar.
func (s *eventStore) ListForCalendar(
	ctx context.Context,
	integrationID int64,
	calendarID string,
	start, end time.Time,
) ([]domain.CalendarEvent, error) {
	query := "SELECT " + eventColumns + ` FROM calendar_events
		WHERE integration_id = ? AND calendar_id = ?`
	args := []any{integrationID, calendarID}

	if !start.IsZero() || !end.IsZero() {
		query += " AND start_time < ? AND end_time > ?"
		args = append(args, end.UTC(), start.UTC())
	}
	query += " ORDER BY start_time, id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListForUserRange returns a user's non-cancelled events overlapping
// [start, end), ordered by start time ascending.
func (s *eventStore) ListForUserRange(
	ctx context.Context,
	userID int64,
	start, end time.Time,
) ([]domain.CalendarEvent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = ? AND status != 'cancelled' AND start_time < ? AND end_time > ?
		ORDER BY start_time, id
	`, userID, end.UTC(), start.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// MarkCancelled flips an event's status to cancelled, preserving the row.
func (s *eventStore) MarkCancelled(ctx context.Context, integrationID int64, externalID string, at time.Time) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE calendar_events SET status = 'cancelled', updated_at = ?, synced_at = ?
		WHERE integration_id = ? AND external_id = ?
	`, at.UTC(), at.UTC(), integrationID, externalID)
	if err != nil {
		return fmt.Errorf("marking event cancelled: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteEndedBefore purges events whose end time precedes the cutoff and
// removes busy blocks derived from them in the same pass.
func (s *eventStore) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Busy block keys embed {calendarID}_{externalEventID}; match by
	// integration and key suffix since the provider prefix varies.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM busy_blocks WHERE key IN (
			SELECT b.key FROM busy_blocks b
			JOIN calendar_events e ON e.integration_id = b.integration_id
				AND b.key LIKE '%_' || e.calendar_id || '_' || e.external_id
			WHERE e.end_time < ?
		)
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting derived busy blocks: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM calendar_events WHERE end_time < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing cleanup: %w", err)
	}
	return removed, nil
}

// CountEndedBefore reports how many events a cleanup would remove.
func (s *eventStore) CountEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM calendar_events WHERE end_time < ?", cutoff.UTC())
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// scanEventRow scans one event from a row or rows cursor.
func scanEventRow(row rowScanner) (*domain.CalendarEvent, error) {
	var event domain.CalendarEvent
	var syncedAt sql.NullTime

	err := row.Scan(&event.ID, &event.UserID, &event.IntegrationID, &event.CalendarID,
		&event.CalendarName, &event.ExternalID, &event.Title, &event.Description,
		&event.Location, &event.StartTime, &event.EndTime, &event.AllDay,
		&event.Status, &event.Transparency, &event.OrganizerEmail, &event.IsOrganizer,
		&event.HTMLLink, &event.ETag, &event.CreatedAt, &event.UpdatedAt, &syncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	if syncedAt.Valid {
		event.SyncedAt = syncedAt.Time
	}
	return &event, nil
}

// scanEvent scans one event from a single-row query.
func scanEvent(row *sql.Row) (*domain.CalendarEvent, error) {
	return scanEventRow(row)
}

// scanEvents drains a rows cursor of events.
func scanEvents(rows *sql.Rows) ([]domain.CalendarEvent, error) {
	var events []domain.CalendarEvent //nolint:prealloc // size unknown from query
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// ==================== Busy Block Store ====================

// busyBlockStore implements driven.BusyBlockPublisher.
type busyBlockStore struct {
	store *Store
}

var _ driven.BusyBlockPublisher = (*busyBlockStore)(nil)

// Publish upserts a busy block by key.
func (s *busyBlockStore) Publish(ctx context.Context, block domain.BusyBlock) error {
	if block.UpdatedAt.IsZero() {
		block.UpdatedAt = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO busy_blocks (key, user_id, integration_id, start_time, end_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			user_id = excluded.user_id,
			integration_id = excluded.integration_id,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			updated_at = excluded.updated_at
	`, block.Key, block.UserID, block.IntegrationID,
		block.StartTime.UTC(), block.EndTime.UTC(), block.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("publishing busy block: %w", err)
	}
	return nil
}

// Remove deletes a busy block by key. Absent keys are not an error.
func (s *busyBlockStore) Remove(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM busy_blocks WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing busy block: %w", err)
	}
	return nil
}

// ListForUser returns all busy blocks for a user, ordered by start time.
func (s *busyBlockStore) ListForUser(ctx context.Context, userID int64) ([]domain.BusyBlock, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT key, user_id, integration_id, start_time, end_time, updated_at
		FROM busy_blocks WHERE user_id = ?
		ORDER BY start_time, key
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying busy blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.BusyBlock //nolint:prealloc // size unknown from query
	for rows.Next() {
		var block domain.BusyBlock
		if err := rows.Scan(&block.Key, &block.UserID, &block.IntegrationID,
			&block.StartTime, &block.EndTime, &block.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning busy block: %w", err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating busy blocks: %w", err)
	}
	return blocks, nil
}

// ==================== Rate Limit Store ====================

// rateLimitStore implements driven.RateLimitStore.
type rateLimitStore struct {
	store *Store
}

var _ driven.RateLimitStore = (*rateLimitStore)(nil)

// SumSince returns the total request count across windows starting at or
// after since.
func (s *rateLimitStore) SumSince(ctx context.Context, integrationID int64, endpoint string, since time.Time) (int, error) {
	var total int
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(request_count), 0) FROM rate_limit_windows
		WHERE integration_id = ? AND endpoint = ? AND window_start >= ?
	`, integrationID, endpoint, since.UTC())
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("summing rate limit windows: %w", err)
	}
	return total, nil
}

// Increment adds one request to the bucket at windowStart.
func (s *rateLimitStore) Increment(ctx context.Context, integrationID int64, endpoint string, windowStart time.Time) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO rate_limit_windows (integration_id, endpoint, window_start, request_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(integration_id, endpoint, window_start) DO UPDATE SET
			request_count = request_count + 1
	`, integrationID, endpoint, windowStart.UTC())
	if err != nil {
		return fmt.Errorf("incrementing rate limit window: %w", err)
	}
	return nil
}

// PruneBefore garbage-collects windows older than the cutoff.
func (s *rateLimitStore) PruneBefore(ctx context.Context, cutoff time.Time) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM rate_limit_windows WHERE window_start < ?", cutoff.UTC()); err != nil {
		return fmt.Errorf("pruning rate limit windows: %w", err)
	}
	return nil
}

// ListWindows returns all windows for an (integration, endpoint) pair.
func (s *rateLimitStore) ListWindows(ctx context.Context, integrationID int64, endpoint string) ([]domain.RateLimitWindow, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT integration_id, endpoint, window_start, request_count
		FROM rate_limit_windows
		WHERE integration_id = ? AND endpoint = ?
		ORDER BY window_start
	`, integrationID, endpoint)
	if err != nil {
		return nil, fmt.Errorf("querying rate limit windows: %w", err)
	}
	defer rows.Close()

	var windows []domain.RateLimitWindow //nolint:prealloc // size unknown from query
	for rows.Next() {
		var window domain.RateLimitWindow
		if err := rows.Scan(&window.IntegrationID, &window.Endpoint,
			&window.WindowStart, &window.RequestCount); err != nil {
			return nil, fmt.Errorf("scanning rate limit window: %w", err)
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rate limit windows: %w", err)
	}
	return windows, nil
}

// ==================== Cache Store ====================

// cacheStore implements driven.Cache on the cache_entries table.
// All operations degrade to a miss on storage failure.
type cacheStore struct {
	store *Store
	now   func() time.Time
}

var _ driven.Cache = (*cacheStore)(nil)

// Get returns the cached value for key, or (nil, false) on miss, expiry
// or storage failure.
func (c *cacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	var expiresAt time.Time
	row := c.store.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warn("Cache read failed for %q: %v", key, err)
		}
		return nil, false
	}
	if c.now().After(expiresAt) {
		c.Delete(ctx, key)
		return nil, false
	}
	return value, true
}

// Set upserts a value with the given TTL. Failures are logged and dropped.
func (c *cacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, value, c.now().Add(ttl).UTC())
	if err != nil {
		logger.Warn("Cache write failed for %q: %v", key, err)
	}
}

// Remember returns the cached value for key, computing and storing it on
// a miss. Compute errors propagate uncached.
func (c *cacheStore) Remember(
	ctx context.Context,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, key, value, ttl)
	return value, nil
}

// Delete removes an entry by key.
func (c *cacheStore) Delete(ctx context.Context, key string) {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		logger.Warn("Cache delete failed for %q: %v", key, err)
	}
}

// DeleteByPrefix removes all entries whose key starts with prefix.
func (c *cacheStore) DeleteByPrefix(ctx context.Context, prefix string) {
	// Escape LIKE wildcards so prefixes containing them match literally.
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(prefix)
	_, err := c.store.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? ESCAPE '\'`, escaped+"%")
	if err != nil {
		logger.Warn("Cache prefix delete failed for %q: %v", prefix, err)
	}
}
