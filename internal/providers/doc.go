// Package providers contains the provider adapter implementations and
// their registry. Each provider lives in its own subpackage; this
// package holds the pieces they share: adapter registration and
// client-side request pacing.
package providers
