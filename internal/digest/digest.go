// Package digest summarizes recent scored postings into a periodic
// email: high and medium priority bands, with everything below the
// medium threshold left out.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/store"
)

// Period selects the digest window and its label.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodEvening Period = "evening"
)

// Window returns how far back the period looks.
func (p Period) Window() time.Duration {
	if p == PeriodEvening {
		return 8 * time.Hour
	}
	return 24 * time.Hour
}

// Label is the human-facing period name used in subjects and headers.
func (p Period) Label() string {
	if p == PeriodEvening {
		return "Afternoon"
	}
	return "Daily"
}

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodEvening:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown digest period %q", s)
	}
}

// Digest is one rendered summary window.
type Digest struct {
	Period Period
	Since  time.Time
	High   []*job.ScoredPosting
	Medium []*job.ScoredPosting
}

// Empty reports whether the window produced nothing worth sending.
func (d *Digest) Empty() bool {
	return len(d.High) == 0 && len(d.Medium) == 0
}

// Builder partitions recent scored postings into priority bands.
type Builder struct {
	store     store.Store
	highScore int
	minScore  int
}

func NewBuilder(st store.Store, highScore, minScore int) *Builder {
	return &Builder{store: st, highScore: highScore, minScore: minScore}
}

// Build collects scored postings captured inside the period's window
// ending at now. Scores below the medium threshold are excluded
// entirely.
func (b *Builder) Build(ctx context.Context, period Period, now time.Time) (*Digest, error) {
	since := now.Add(-period.Window())

	scored, err := b.store.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list scored since %s: %w", since.Format(time.RFC3339), err)
	}

	d := &Digest{Period: period, Since: since}
	for _, sp := range scored {
		switch {
		case sp.FitScore >= b.highScore:
			d.High = append(d.High, sp)
		case sp.FitScore >= b.minScore:
			d.Medium = append(d.Medium, sp)
		}
	}
	return d, nil
}
