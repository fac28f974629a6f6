package scoring

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/ai"
	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/logger"
	"github.com/ahogan/jobhunter/internal/ratelimit"
	"github.com/ahogan/jobhunter/internal/store"
)

// Thresholds map fit scores onto priority tiers and gate cover letter
// generation.
type Thresholds struct {
	High        int
	Medium      int
	CoverLetter int
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: 80, Medium: 50, CoverLetter: 95}
}

// Tier classifies a fit score.
func (t Thresholds) Tier(score int) job.PriorityTier {
	switch {
	case score >= t.High:
		return job.PriorityHigh
	case score >= t.Medium:
		return job.PriorityMedium
	default:
		return job.PriorityLow
	}
}

// ItemError is one posting's scoring failure within a batch run.
type ItemError struct {
	Title string
	Err   error
}

// Result summarizes a scoring run.
type Result struct {
	Processed      int
	HighPriority   int
	MediumPriority int
	LowPriority    int
	Errors         []ItemError
}

// Scorer evaluates unprocessed postings against the candidate profile
// and persists the verdicts.
type Scorer struct {
	completer  ai.Completer
	letters    ai.Completer
	store      store.Store
	profile    Profile
	rules      Deprioritize
	thresholds Thresholds
	pacer      *ratelimit.Pacer
	logger     *zap.Logger
}

// NewScorer wires a scorer. letters may use a stronger model than the
// scoring completer; pass the same completer to use one model for both.
func NewScorer(completer, letters ai.Completer, st store.Store, profile Profile, rules Deprioritize, thresholds Thresholds, pacer *ratelimit.Pacer, log *zap.Logger) *Scorer {
	return &Scorer{
		completer:  completer,
		letters:    letters,
		store:      st,
		profile:    profile,
		rules:      rules,
		thresholds: thresholds,
		pacer:      pacer,
		logger:     log,
	}
}

// Score evaluates a single posting. On success the verdict is stored and
// the posting is marked processed; on model or parse failure nothing is
// written, so the posting stays eligible for the next run.
func (s *Scorer) Score(ctx context.Context, p *job.Posting) (*job.ScoredPosting, error) {
	prompt := buildScoringPrompt(s.profile, s.rules, p)

	s.logger.Debug("scoring request",
		zap.String("job_hash", p.Hash),
		zap.String("title", p.Title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("score %q: %w", p.Title, err)
	}

	s.logger.Debug("scoring response",
		zap.String("job_hash", p.Hash),
		zap.String("response_preview", logger.Truncate(raw, 200)),
	)

	verdict, err := parseAssessment(raw)
	if err != nil {
		return nil, fmt.Errorf("score %q: %w", p.Title, err)
	}

	scored := &job.ScoredPosting{
		JobHash:            p.Hash,
		FitScore:           verdict.FitScore,
		GhostJobLikelihood: verdict.GhostJobLikelihood,
		RoleCategory:       verdict.RoleCategory,
		PriorityTier:       s.thresholds.Tier(verdict.FitScore),
		AIReasoning:        verdict.Reasoning,
		KeyRequirements:    verdict.KeyRequirements,
		ScoredAt:           time.Now().UTC(),
		Posting:            p,
	}

	if verdict.FitScore >= s.thresholds.CoverLetter {
		draft, err := s.coverLetter(ctx, p, verdict.KeyRequirements)
		if err != nil {
			// The score still stands; the draft can be regenerated
			// later through the review flow.
			s.logger.Warn("cover letter generation failed",
				zap.String("job_hash", p.Hash),
				zap.Error(err),
			)
		} else {
			scored.CoverLetterDraft = draft
		}
	}

	if err := s.store.InsertScored(ctx, scored); err != nil {
		return nil, fmt.Errorf("persist score for %q: %w", p.Title, err)
	}
	if err := s.store.MarkProcessed(ctx, p.Hash); err != nil {
		return nil, fmt.Errorf("mark %q processed: %w", p.Title, err)
	}

	return scored, nil
}

// CoverLetter generates a letter draft for an already-scored posting.
func (s *Scorer) CoverLetter(ctx context.Context, p *job.Posting, requirements []string) (string, error) {
	return s.coverLetter(ctx, p, requirements)
}

func (s *Scorer) coverLetter(ctx context.Context, p *job.Posting, requirements []string) (string, error) {
	prompt := buildCoverLetterPrompt(s.profile, p, requirements)
	draft, err := s.letters.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("cover letter for %q: %w", p.Title, err)
	}
	return draft, nil
}

// Run scores up to batchSize unprocessed postings. Failures are
// collected per posting; the batch keeps going unless the context is
// cancelled.
func (s *Scorer) Run(ctx context.Context, batchSize int) (*Result, error) {
	postings, err := s.store.ListUnprocessed(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}

	s.logger.Info("scoring run started",
		zap.Int("pending", len(postings)),
		zap.String("model", s.completer.Model()),
	)

	result := &Result{}
	for _, p := range postings {
		if err := s.pacer.Wait(ctx); err != nil {
			return result, err
		}

		scored, err := s.Score(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn("scoring failed",
				zap.String("title", p.Title),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, ItemError{Title: p.Title, Err: err})
			continue
		}

		result.Processed++
		switch scored.PriorityTier {
		case job.PriorityHigh:
			result.HighPriority++
		case job.PriorityMedium:
			result.MediumPriority++
		default:
			result.LowPriority++
		}
	}

	s.logger.Info("scoring run complete",
		zap.Int("processed", result.Processed),
		zap.Int("high_priority", result.HighPriority),
		zap.Int("medium_priority", result.MediumPriority),
		zap.Int("low_priority", result.LowPriority),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}
