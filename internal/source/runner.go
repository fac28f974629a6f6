package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/ratelimit"
)

// categoryOrder fixes the scrape sequence so higher-value categories
// are fetched first when item budgets run out mid-cycle.
var categoryOrder = []job.RoleCategory{
	job.CategoryStrategic,
	job.CategoryProgram,
	job.CategoryProcurement,
	job.CategoryTechLeadership,
}

// SourceError records a single failed fetch. A run degrades to fewer
// results rather than failing outright.
type SourceError struct {
	Source job.Source
	Query  string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Source, e.Query, e.Err)
}

// Runner fans queries out across the configured adapters and collects
// normalized postings.
type Runner struct {
	adapters []Adapter
	queries  map[job.RoleCategory][]string
	location string

	queriesPerCategory int
	maxItemsPerSource  int

	pacers *ratelimit.Set
	logger *zap.Logger
}

type RunnerConfig struct {
	Queries            map[job.RoleCategory][]string
	Location           string
	QueriesPerCategory int
	MaxItemsPerSource  int
}

func NewRunner(adapters []Adapter, cfg RunnerConfig, pacers *ratelimit.Set, logger *zap.Logger) *Runner {
	return &Runner{
		adapters:           adapters,
		queries:            cfg.Queries,
		location:           cfg.Location,
		queriesPerCategory: cfg.QueriesPerCategory,
		maxItemsPerSource:  cfg.MaxItemsPerSource,
		pacers:             pacers,
		logger:             logger,
	}
}

// Run fetches every (adapter, category, query) combination and returns
// the postings that survived normalization. Fetch failures are
// collected per source and do not abort the remaining work; only
// context cancellation stops the run early.
func (r *Runner) Run(ctx context.Context) ([]*job.Posting, []SourceError) {
	var postings []*job.Posting
	var errs []SourceError

	capturedAt := time.Now().UTC()

	for _, adapter := range r.adapters {
		name := adapter.Name()
		for _, category := range categoryOrder {
			queries := r.queries[category]
			if r.queriesPerCategory > 0 && len(queries) > r.queriesPerCategory {
				queries = queries[:r.queriesPerCategory]
			}
			for _, text := range queries {
				if err := r.pacers.Wait(ctx, string(name)); err != nil {
					errs = append(errs, SourceError{Source: name, Query: text, Err: err})
					return postings, errs
				}

				items, err := adapter.Fetch(ctx, Query{Text: text, Category: category}, r.location, r.maxItemsPerSource)
				if err != nil {
					if ctx.Err() != nil {
						errs = append(errs, SourceError{Source: name, Query: text, Err: err})
						return postings, errs
					}
					r.logger.Warn("source fetch failed",
						zap.String("source", string(name)),
						zap.String("query", text),
						zap.Error(err),
					)
					errs = append(errs, SourceError{Source: name, Query: text, Err: err})
					continue
				}

				kept := 0
				for _, item := range items {
					posting, ok := adapter.Normalize(item, category, capturedAt)
					if !ok {
						continue
					}
					postings = append(postings, posting)
					kept++
				}

				r.logger.Debug("source query done",
					zap.String("source", string(name)),
					zap.String("query", text),
					zap.Int("fetched", len(items)),
					zap.Int("kept", kept),
				)
			}
		}
	}

	return postings, errs
}
