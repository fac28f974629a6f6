package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/ratelimit"
	"github.com/ahogan/jobhunter/internal/store"
)

// Sender delivers one scored posting to a channel.
type Sender interface {
	SendFeed(ctx context.Context, sp *job.ScoredPosting) error
	SendAlert(ctx context.Context, sp *job.ScoredPosting) error
}

// ItemError records one posting's delivery failure.
type ItemError struct {
	Title string
	Err   error
}

// Result summarizes a notification run.
type Result struct {
	Notified     int
	HighPriority int
	Errors       []ItemError
}

// Gate decides which scored postings reach which channel. Every posting
// at or above the medium threshold goes to the feed; the alert channel
// additionally requires a high fit score AND a hot posting, so stale
// listings never page.
type Gate struct {
	store     store.Store
	sender    Sender
	highScore int
	minScore  int
	pacer     *ratelimit.Pacer
	logger    *zap.Logger
}

func NewGate(st store.Store, sender Sender, highScore, minScore int, pacer *ratelimit.Pacer, log *zap.Logger) *Gate {
	return &Gate{
		store:     st,
		sender:    sender,
		highScore: highScore,
		minScore:  minScore,
		pacer:     pacer,
		logger:    log,
	}
}

// Run delivers every unnotified scored posting. The notified flag flips
// after the dispatch attempt whether or not delivery succeeded: a
// posting gets exactly one shot at the channels, never a duplicate.
func (g *Gate) Run(ctx context.Context) (*Result, error) {
	pending, err := g.store.ListUnnotified(ctx, g.minScore)
	if err != nil {
		return nil, fmt.Errorf("list unnotified: %w", err)
	}

	g.logger.Info("notification run started", zap.Int("pending", len(pending)))

	result := &Result{}
	for _, sp := range pending {
		if err := g.pacer.Wait(ctx); err != nil {
			return result, err
		}

		if err := g.sender.SendFeed(ctx, sp); err != nil {
			g.logger.Warn("feed delivery failed",
				zap.String("title", sp.Posting.Title),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, ItemError{Title: sp.Posting.Title, Err: err})
		}

		if g.shouldAlert(sp) {
			if err := g.sender.SendAlert(ctx, sp); err != nil {
				g.logger.Warn("alert delivery failed",
					zap.String("title", sp.Posting.Title),
					zap.Error(err),
				)
				result.Errors = append(result.Errors, ItemError{Title: sp.Posting.Title, Err: err})
			} else {
				result.HighPriority++
			}
		}

		if err := g.store.MarkNotified(ctx, sp.ID); err != nil {
			return result, fmt.Errorf("mark notified %q: %w", sp.Posting.Title, err)
		}
		result.Notified++
	}

	g.logger.Info("notification run complete",
		zap.Int("notified", result.Notified),
		zap.Int("high_priority", result.HighPriority),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

func (g *Gate) shouldAlert(sp *job.ScoredPosting) bool {
	return sp.FitScore >= g.highScore && sp.Posting.Freshness == job.FreshnessHot
}
