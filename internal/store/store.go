// Package store persists postings and scores. The pipeline talks to the Store
// interface only; the bundled implementation is SQLite, but anything that can
// offer an atomic insert-or-ignore keyed by identity hash can back it.
package store

import (
	"context"
	"time"

	"github.com/ahogan/jobhunter/internal/job"
)

// Store is the persistence contract for the pipeline.
//
// Writer ownership: the ingest gate creates postings, the scorer creates
// scored rows and flips processed, the notification gate flips notified, the
// review flow flips approved and writes cover letters. No other component
// mutates those fields.
type Store interface {
	// InsertIfAbsent writes the posting keyed by its identity hash. It
	// reports false without error when a posting with the same hash already
	// exists; the existing row is left untouched.
	InsertIfAbsent(ctx context.Context, p *job.Posting) (bool, error)

	// ListPostings returns every stored posting, oldest first.
	ListPostings(ctx context.Context) ([]*job.Posting, error)

	// UpdateFreshness sets the denormalized freshness tier for one posting.
	UpdateFreshness(ctx context.Context, hash string, tier job.FreshnessTier) error

	// ListUnprocessed returns up to limit postings that have not been scored,
	// oldest first.
	ListUnprocessed(ctx context.Context, limit int) ([]*job.Posting, error)

	// MarkProcessed flags a posting so it is never scored again.
	MarkProcessed(ctx context.Context, hash string) error

	// InsertScored persists a new scored posting and sets its ID. A posting
	// that already has a verdict keeps it: sp.ID is set to the existing
	// row and the new verdict is discarded, so a run interrupted between
	// scoring and MarkProcessed can retry without erroring.
	InsertScored(ctx context.Context, sp *job.ScoredPosting) error

	// ListUnnotified returns scored postings with notified=false and
	// fit_score >= minScore, highest score first, with postings joined.
	ListUnnotified(ctx context.Context, minScore int) ([]*job.ScoredPosting, error)

	// MarkNotified flips the notified flag. The flip is one-way.
	MarkNotified(ctx context.Context, id int64) error

	// ListSince returns scored postings whose source posting was captured
	// after since, highest score first, with postings joined.
	ListSince(ctx context.Context, since time.Time) ([]*job.ScoredPosting, error)

	// ListPendingReview returns scored postings at or above minScore that
	// have not yet been approved, highest score first. A posting whose
	// letter was drafted at scoring time still needs the approval pass.
	ListPendingReview(ctx context.Context, minScore int) ([]*job.ScoredPosting, error)

	// ListApprovedWithoutDraft returns approved scored postings that still
	// need a cover letter.
	ListApprovedWithoutDraft(ctx context.Context) ([]*job.ScoredPosting, error)

	// MarkApproved flags a scored posting for cover letter generation.
	MarkApproved(ctx context.Context, id int64) error

	// SetCoverLetter stores a generated cover letter draft.
	SetCoverLetter(ctx context.Context, id int64, draft string) error

	Close() error
}
