// Package ratelimit paces calls to external collaborators. The fixed gaps
// between scrape, scoring, and notification calls are deliberate backpressure
// against third-party rate limits, not incidental latency.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between consecutive calls to one
// collaborator. The first call proceeds immediately.
type Pacer struct {
	limiter *rate.Limiter
}

// New creates a pacer with the given minimum gap. A non-positive interval
// disables pacing.
func New(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Set holds independently configured pacers keyed by collaborator name, so
// each external service gets its own budget.
type Set struct {
	pacers   map[string]*Pacer
	fallback *Pacer
}

// NewSet builds a pacer per entry in intervals; names not present fall back
// to the default interval.
func NewSet(defaultInterval time.Duration, intervals map[string]time.Duration) *Set {
	pacers := make(map[string]*Pacer, len(intervals))
	for name, interval := range intervals {
		pacers[name] = New(interval)
	}
	return &Set{pacers: pacers, fallback: New(defaultInterval)}
}

// Wait paces the named collaborator.
func (s *Set) Wait(ctx context.Context, name string) error {
	if p, ok := s.pacers[name]; ok {
		return p.Wait(ctx)
	}
	return s.fallback.Wait(ctx)
}
