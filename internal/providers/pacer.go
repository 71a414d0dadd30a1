package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PacerConfig holds client-side pacing configuration for a provider.
type PacerConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// Pacer smooths outgoing provider requests with a token bucket and
// honours 429 backoff hints. This is request pacing against the
// provider's own limits, distinct from the persisted per-integration
// quota windows enforced by the core.
type Pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewPacer creates a pacer with the given configuration.
func NewPacer(cfg PacerConfig) *Pacer {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5.0
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 10
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// Wait blocks until a request can be made without exceeding the rate
// limit. It also respects any backoff period set by RecordRateLimit.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	retryAt := p.retryAt
	p.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return p.limiter.Wait(ctx)
}

// RecordRateLimit records a 429 response and sets a backoff period.
func (p *Pacer) RecordRateLimit(retryAfterSeconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if retryAfterSeconds <= 0 {
		// Default backoff: 60 seconds
		retryAfterSeconds = 60
	}
	p.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}
