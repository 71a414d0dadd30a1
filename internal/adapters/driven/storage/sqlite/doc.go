// Package sqlite provides SQLite-backed implementations of the driven
// storage ports: integrations, the event mirror, busy blocks, rate limit
// counters, the response cache and scheduler state. All interfaces are
// served from a single database file with embedded migrations.
package sqlite
