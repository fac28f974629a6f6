// Package ingest is the write gate between the source adapters and the store.
// It applies the hard skip rules and collapses duplicate postings onto their
// identity hash.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/freshness"
	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/store"
)

// Rules are the hard pre-filters. A match means the posting is dropped before
// it ever reaches the store. Matching is case-insensitive substring, company
// rule first.
type Rules struct {
	SkipCompanies     []string
	SkipTitleKeywords []string
}

// SkipReason returns why the posting must be filtered, or "" to keep it.
func (r Rules) SkipReason(p *job.Posting) string {
	company := strings.ToLower(p.Company)
	for _, blocked := range r.SkipCompanies {
		if blocked != "" && strings.Contains(company, strings.ToLower(blocked)) {
			return fmt.Sprintf("company: %s", blocked)
		}
	}

	title := strings.ToLower(p.Title)
	for _, keyword := range r.SkipTitleKeywords {
		if keyword != "" && strings.Contains(title, strings.ToLower(keyword)) {
			return fmt.Sprintf("title contains: %s", keyword)
		}
	}

	return ""
}

// ItemError records a per-posting storage failure; the batch keeps going.
type ItemError struct {
	Title string
	Err   error
}

// Result summarizes one ingest batch.
type Result struct {
	Total      int
	Inserted   int
	Duplicates int
	Filtered   int
	Errors     []ItemError
}

// Gate owns creation of Posting records. No other component writes them.
type Gate struct {
	store      store.Store
	rules      Rules
	thresholds freshness.Thresholds
	logger     *zap.Logger
}

func NewGate(s store.Store, rules Rules, thresholds freshness.Thresholds, logger *zap.Logger) *Gate {
	return &Gate{store: s, rules: rules, thresholds: thresholds, logger: logger}
}

// Ingest filters and persists a batch of normalized postings. Duplicates are
// expected and counted, not treated as failures. Re-running the same batch
// yields zero new inserts.
func (g *Gate) Ingest(ctx context.Context, postings []*job.Posting) *Result {
	result := &Result{Total: len(postings)}
	now := time.Now().UTC()

	for _, p := range postings {
		if reason := g.rules.SkipReason(p); reason != "" {
			g.logger.Debug("skipping posting",
				zap.String("title", p.Title),
				zap.String("reason", reason),
			)
			result.Filtered++
			continue
		}

		p.ComputeHash()
		p.Freshness = g.thresholds.Classify(p.CapturedAt, now)

		inserted, err := g.store.InsertIfAbsent(ctx, p)
		if err != nil {
			g.logger.Warn("insert failed",
				zap.String("title", p.Title),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, ItemError{Title: p.Title, Err: err})
			continue
		}

		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	g.logger.Info("ingest complete",
		zap.Int("total", result.Total),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("filtered", result.Filtered),
		zap.Int("errors", len(result.Errors)),
	)

	return result
}
