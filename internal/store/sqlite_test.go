package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahogan/jobhunter/internal/job"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "jobhunter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPosting(url, title, company string, capturedAt time.Time) *job.Posting {
	p := &job.Posting{
		Source:       job.SourceLinkedIn,
		URL:          url,
		Title:        title,
		Company:      company,
		Location:     "Seattle, WA",
		PostedAt:     capturedAt,
		CapturedAt:   capturedAt,
		RoleCategory: job.CategoryStrategic,
		Freshness:    job.FreshnessHot,
	}
	p.ComputeHash()
	return p
}

func TestInsertIfAbsentDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now)
	inserted, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)
	require.True(t, inserted)

	// Same identity, different scrape: rejected, not merged.
	dup := testPosting("HTTPS://EXAMPLE.COM/j/1", "vp strategy", "ACME", now.Add(time.Hour))
	dup.Location = "Remote"
	inserted, err = s.InsertIfAbsent(ctx, dup)
	require.NoError(t, err)
	require.False(t, inserted)

	postings, err := s.ListPostings(ctx)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	require.Equal(t, "Seattle, WA", postings[0].Location, "first write wins")
}

func TestUnprocessedLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	older := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now.Add(-2*time.Hour))
	newer := testPosting("https://example.com/j/2", "PMO Director", "Globex", now)
	for _, p := range []*job.Posting{newer, older} {
		_, err := s.InsertIfAbsent(ctx, p)
		require.NoError(t, err)
	}

	unprocessed, err := s.ListUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unprocessed, 2)
	require.Equal(t, older.Hash, unprocessed[0].Hash, "oldest first")

	require.NoError(t, s.MarkProcessed(ctx, older.Hash))

	unprocessed, err = s.ListUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unprocessed, 1)
	require.Equal(t, newer.Hash, unprocessed[0].Hash)
}

func TestScoredRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now)
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	sp := &job.ScoredPosting{
		JobHash:            p.Hash,
		FitScore:           90,
		GhostJobLikelihood: 20,
		RoleCategory:       job.CategoryStrategic,
		PriorityTier:       job.PriorityHigh,
		AIReasoning:        "Strong match on transformation experience.",
		KeyRequirements:    []string{"10+ years leadership", "M&A exposure"},
	}
	require.NoError(t, s.InsertScored(ctx, sp))
	require.NotZero(t, sp.ID)

	unnotified, err := s.ListUnnotified(ctx, 50)
	require.NoError(t, err)
	require.Len(t, unnotified, 1)
	got := unnotified[0]
	require.Equal(t, sp.FitScore, got.FitScore)
	require.Equal(t, sp.KeyRequirements, got.KeyRequirements)
	require.NotNil(t, got.Posting)
	require.Equal(t, "Acme", got.Posting.Company)
	require.Equal(t, job.FreshnessHot, got.Posting.Freshness)

	require.NoError(t, s.MarkNotified(ctx, got.ID))
	unnotified, err = s.ListUnnotified(ctx, 50)
	require.NoError(t, err)
	require.Empty(t, unnotified)
}

func TestListUnnotifiedScoreFloor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	scores := map[string]int{"j1": 95, "j2": 50, "j3": 40}
	for name, score := range scores {
		p := testPosting("https://example.com/"+name, name, "Acme", now)
		_, err := s.InsertIfAbsent(ctx, p)
		require.NoError(t, err)
		require.NoError(t, s.InsertScored(ctx, &job.ScoredPosting{
			JobHash:      p.Hash,
			FitScore:     score,
			RoleCategory: job.CategoryOther,
			PriorityTier: job.PriorityLow,
		}))
	}

	unnotified, err := s.ListUnnotified(ctx, 50)
	require.NoError(t, err)
	require.Len(t, unnotified, 2)
	require.Equal(t, 95, unnotified[0].FitScore, "highest score first")
}

func TestListSinceWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	inside := testPosting("https://example.com/in", "Inside", "Acme", now.Add(-4*time.Hour))
	outside := testPosting("https://example.com/out", "Outside", "Acme", now.Add(-30*time.Hour))
	for _, p := range []*job.Posting{inside, outside} {
		_, err := s.InsertIfAbsent(ctx, p)
		require.NoError(t, err)
		require.NoError(t, s.InsertScored(ctx, &job.ScoredPosting{
			JobHash:      p.Hash,
			FitScore:     70,
			RoleCategory: job.CategoryOther,
			PriorityTier: job.PriorityMedium,
		}))
	}

	recent, err := s.ListSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, inside.Hash, recent[0].JobHash)
}

func TestFreshnessUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now)
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	require.NoError(t, s.UpdateFreshness(ctx, p.Hash, job.FreshnessStandard))

	postings, err := s.ListPostings(ctx)
	require.NoError(t, err)
	require.Equal(t, job.FreshnessStandard, postings[0].Freshness)
}

func TestInsertScoredKeepsFirstVerdict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now)
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	first := &job.ScoredPosting{
		JobHash:      p.Hash,
		FitScore:     90,
		RoleCategory: job.CategoryStrategic,
		PriorityTier: job.PriorityHigh,
	}
	require.NoError(t, s.InsertScored(ctx, first))

	second := &job.ScoredPosting{
		JobHash:      p.Hash,
		FitScore:     40,
		RoleCategory: job.CategoryOther,
		PriorityTier: job.PriorityLow,
	}
	require.NoError(t, s.InsertScored(ctx, second))
	require.Equal(t, first.ID, second.ID, "existing row id is returned")

	scored, err := s.ListUnnotified(ctx, 0)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	require.Equal(t, 90, scored[0].FitScore, "first verdict wins")
}

func TestPendingReviewIncludesDraftedPostings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now)
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	// Scored past the letter threshold: the draft already exists, but the
	// posting still needs an approval decision.
	require.NoError(t, s.InsertScored(ctx, &job.ScoredPosting{
		JobHash:          p.Hash,
		FitScore:         96,
		RoleCategory:     job.CategoryStrategic,
		PriorityTier:     job.PriorityHigh,
		CoverLetterDraft: "Dear Acme,",
	}))

	pending, err := s.ListPendingReview(ctx, 80)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestApprovalWorkflow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := testPosting("https://example.com/j/1", "VP Strategy", "Acme", now)
	_, err := s.InsertIfAbsent(ctx, p)
	require.NoError(t, err)

	sp := &job.ScoredPosting{
		JobHash:      p.Hash,
		FitScore:     85,
		RoleCategory: job.CategoryStrategic,
		PriorityTier: job.PriorityHigh,
	}
	require.NoError(t, s.InsertScored(ctx, sp))

	pending, err := s.ListPendingReview(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.MarkApproved(ctx, sp.ID))

	pending, err = s.ListPendingReview(ctx, 50)
	require.NoError(t, err)
	require.Empty(t, pending)

	approved, err := s.ListApprovedWithoutDraft(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)

	require.NoError(t, s.SetCoverLetter(ctx, sp.ID, "Dear Acme,"))

	approved, err = s.ListApprovedWithoutDraft(ctx)
	require.NoError(t, err)
	require.Empty(t, approved)
}
