// Package scheduler wraps robfig/cron with timezone-aware schedules and
// a guard against overlapping runs of the same job.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs named jobs on cron schedules in a fixed timezone.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a scheduler evaluating all schedules in the named IANA
// timezone.
func New(timezone string, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}, nil
}

// Add registers fn under the given cron spec. A tick that fires while a
// previous run of the same job is still going is skipped, not queued:
// scrape and scoring runs can outlast their interval.
func (s *Scheduler) Add(spec, name string, fn func(ctx context.Context)) error {
	var running atomic.Bool

	_, err := s.cron.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			s.logger.Warn("previous run still in progress, skipping tick", zap.String("job", name))
			return
		}
		defer running.Store(false)

		start := time.Now()
		s.logger.Info("scheduled run started", zap.String("job", name))
		fn(context.Background())
		s.logger.Info("scheduled run finished",
			zap.String("job", name),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
	if err != nil {
		return fmt.Errorf("add schedule %q for %s: %w", spec, name, err)
	}
	return nil
}

// Start begins firing schedules in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts scheduling and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
