// Package domain contains the core business entities and rules for
// calendar integrations.
//
// The entities here are persistence-agnostic: stores and provider
// adapters depend on this package, never the other way around.
// Key entities:
//
//   - Integration: one OAuth-linked external calendar account for a user.
//   - CalendarEvent: the local mirror of a provider-native event.
//   - BusyBlock: an availability-blocking interval derived from a mirrored event.
//   - RateLimitWindow: a fixed-window request counter bucket.
package domain
