// Package freshness derives the Hot/New/Standard tier from posting age. The
// tier is a projection of (captured_at, now): it is recomputed every pipeline
// cycle and persisted so the notification gate and digest views read it
// without doing time math.
package freshness

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/store"
)

// Thresholds are the tier boundaries. Age <= Hot is hot, age <= New is new,
// anything older is standard.
type Thresholds struct {
	Hot time.Duration
	New time.Duration
}

// DefaultThresholds matches the observed production boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Hot: 2 * time.Hour, New: 24 * time.Hour}
}

// Classify returns the tier for a posting captured at capturedAt as of now.
func (t Thresholds) Classify(capturedAt, now time.Time) job.FreshnessTier {
	age := now.Sub(capturedAt)
	switch {
	case age <= t.Hot:
		return job.FreshnessHot
	case age <= t.New:
		return job.FreshnessNew
	default:
		return job.FreshnessStandard
	}
}

// Engine recomputes persisted freshness tiers across the whole store.
type Engine struct {
	store      store.Store
	thresholds Thresholds
	logger     *zap.Logger
}

func NewEngine(s store.Store, thresholds Thresholds, logger *zap.Logger) *Engine {
	return &Engine{store: s, thresholds: thresholds, logger: logger}
}

// Refresh reclassifies every stored posting against now and writes back only
// the ones whose tier changed. A posting never moves to a fresher tier: if
// the stored tier is staler than the computed one (clock skew, manual edits),
// the stored value stands.
func (e *Engine) Refresh(ctx context.Context, now time.Time) (int, error) {
	postings, err := e.store.ListPostings(ctx)
	if err != nil {
		return 0, fmt.Errorf("refreshing freshness: %w", err)
	}

	updated := 0
	for _, p := range postings {
		tier := e.thresholds.Classify(p.CapturedAt, now)
		// An empty stored tier is unset, not stale: it always gets the
		// computed value. The monotonic guard only applies between real
		// tiers.
		if p.Freshness != "" && (tier == p.Freshness || tier.FresherThan(p.Freshness)) {
			continue
		}
		if err := e.store.UpdateFreshness(ctx, p.Hash, tier); err != nil {
			return updated, err
		}
		updated++
	}

	e.logger.Info("freshness refreshed",
		zap.Int("postings", len(postings)),
		zap.Int("updated", updated),
	)

	return updated, nil
}
