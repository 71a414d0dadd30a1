package domain

import "time"

// Endpoint classes used by the rate limiter.
const (
	// EndpointDefault covers any provider call without a dedicated class.
	EndpointDefault = "default"
	// EndpointSync covers event list fetches during reconciliation.
	EndpointSync = "sync"
	// EndpointCreate covers create-event calls.
	EndpointCreate = "create"
)

// RateLimitWindow is one fixed-window request counter bucket for an
// (integration, endpoint) pair. A new window is a new row, never a
// moving average.
type RateLimitWindow struct {
	IntegrationID int64     `json:"integration_id"`
	Endpoint      string    `json:"endpoint"`
	WindowStart   time.Time `json:"window_start"`
	RequestCount  int       `json:"request_count"`
}

// RateLimitRule is one (max requests, window) quota.
type RateLimitRule struct {
	// MaxRequests is the quota per window. Zero means unlimited.
	MaxRequests int `json:"max_requests" toml:"max_requests"`
	// Window is the lookback duration.
	Window time.Duration `json:"window" toml:"window"`
}

// RateLimitTable maps provider and endpoint class to a quota.
// Endpoints absent from the table are unlimited.
type RateLimitTable map[ProviderType]map[string]RateLimitRule

// Lookup resolves the rule for a provider/endpoint pair, falling back to
// the provider's default class. The second return is false when no rule
// applies (unlimited).
func (t RateLimitTable) Lookup(provider ProviderType, endpoint string) (RateLimitRule, bool) {
	rules, ok := t[provider]
	if !ok {
		return RateLimitRule{}, false
	}
	if rule, ok := rules[endpoint]; ok && rule.MaxRequests > 0 {
		return rule, true
	}
	if rule, ok := rules[EndpointDefault]; ok && rule.MaxRequests > 0 {
		return rule, true
	}
	return RateLimitRule{}, false
}

// DefaultRateLimitTable provides conservative defaults, well below the
// providers' published quotas.
func DefaultRateLimitTable() RateLimitTable {
	return RateLimitTable{
		ProviderGoogleCalendar: {
			EndpointDefault: {MaxRequests: 100, Window: time.Minute},
			EndpointSync:    {MaxRequests: 30, Window: time.Minute},
			EndpointCreate:  {MaxRequests: 20, Window: time.Minute},
		},
		ProviderGoogleMeet: {
			EndpointDefault: {MaxRequests: 100, Window: time.Minute},
			EndpointCreate:  {MaxRequests: 20, Window: time.Minute},
		},
		ProviderOutlookCalendar: {
			EndpointDefault: {MaxRequests: 120, Window: time.Minute},
			EndpointSync:    {MaxRequests: 40, Window: time.Minute},
			EndpointCreate:  {MaxRequests: 20, Window: time.Minute},
		},
	}
}
