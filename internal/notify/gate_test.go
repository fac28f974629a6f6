package notify

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/ratelimit"
	"github.com/ahogan/jobhunter/internal/store"
)

type recordingSender struct {
	feed     []string
	alerts   []string
	feedErr  error
	alertErr error
}

func (r *recordingSender) SendFeed(_ context.Context, sp *job.ScoredPosting) error {
	r.feed = append(r.feed, sp.Posting.Title)
	return r.feedErr
}

func (r *recordingSender) SendAlert(_ context.Context, sp *job.ScoredPosting) error {
	r.alerts = append(r.alerts, sp.Posting.Title)
	return r.alertErr
}

func testStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedScored(t *testing.T, st store.Store, title string, score int, freshness job.FreshnessTier) {
	t.Helper()
	ctx := context.Background()

	p := &job.Posting{
		Source:     job.SourceLinkedIn,
		URL:        "https://example.com/" + title,
		Title:      title,
		Company:    "Acme",
		CapturedAt: time.Now().UTC(),
		PostedAt:   time.Now().UTC(),
		Freshness:  freshness,
	}
	p.ComputeHash()
	inserted, err := st.InsertIfAbsent(ctx, p)
	require.NoError(t, err)
	require.True(t, inserted)

	sp := &job.ScoredPosting{
		JobHash:      p.Hash,
		FitScore:     score,
		RoleCategory: job.CategoryProgram,
		PriorityTier: job.PriorityMedium,
		ScoredAt:     time.Now().UTC(),
	}
	if score >= 80 {
		sp.PriorityTier = job.PriorityHigh
	}
	require.NoError(t, st.InsertScored(ctx, sp))
}

func newTestGate(st store.Store, sender Sender) *Gate {
	return NewGate(st, sender, 80, 50, ratelimit.New(0), zap.NewNop())
}

func TestGateAlertRequiresHighScoreAndHotPosting(t *testing.T) {
	st := testStore(t)
	seedScored(t, st, "hot-high", 90, job.FreshnessHot)
	seedScored(t, st, "standard-high", 90, job.FreshnessStandard)
	seedScored(t, st, "hot-medium", 60, job.FreshnessHot)

	sender := &recordingSender{}
	result, err := newTestGate(st, sender).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Notified)
	assert.Equal(t, 1, result.HighPriority)
	assert.ElementsMatch(t, []string{"hot-high", "standard-high", "hot-medium"}, sender.feed)
	assert.Equal(t, []string{"hot-high"}, sender.alerts)
}

func TestGateSkipsLowScores(t *testing.T) {
	st := testStore(t)
	seedScored(t, st, "low", 30, job.FreshnessHot)
	seedScored(t, st, "medium", 55, job.FreshnessNew)

	sender := &recordingSender{}
	result, err := newTestGate(st, sender).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, []string{"medium"}, sender.feed)
}

func TestGateDeliversAtMostOnce(t *testing.T) {
	st := testStore(t)
	seedScored(t, st, "once", 85, job.FreshnessHot)

	sender := &recordingSender{}
	gate := newTestGate(st, sender)

	_, err := gate.Run(context.Background())
	require.NoError(t, err)

	result, err := gate.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Notified)
	assert.Len(t, sender.feed, 1)
	assert.Len(t, sender.alerts, 1)
}

func TestGateMarksNotifiedDespiteDeliveryFailure(t *testing.T) {
	st := testStore(t)
	seedScored(t, st, "flaky", 85, job.FreshnessHot)

	sender := &recordingSender{feedErr: errors.New("webhook down"), alertErr: errors.New("webhook down")}
	gate := newTestGate(st, sender)

	result, err := gate.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified)
	assert.Len(t, result.Errors, 2)

	// A failed delivery is not retried: the posting had its shot.
	result, err = gate.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Notified)
	assert.Len(t, sender.feed, 1)
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Unknown", formatTimeAgo(time.Time{}, now))
	assert.Equal(t, "Just now", formatTimeAgo(now.Add(-30*time.Minute), now))
	assert.Equal(t, "5h ago", formatTimeAgo(now.Add(-5*time.Hour), now))
	assert.Equal(t, "3d ago", formatTimeAgo(now.Add(-3*24*time.Hour), now))
}

func TestClipKeepsRunesIntact(t *testing.T) {
	s := strings.Repeat("ü", 8)

	out := clip(s, 3)
	assert.Equal(t, "üüü", out)
	assert.True(t, utf8.ValidString(out))

	assert.Equal(t, s, clip(s, 8))
}

func TestBullets(t *testing.T) {
	assert.Equal(t, "• a\n• b", bullets([]string{"a", "b"}, 5))
	assert.Equal(t, "", bullets(nil, 5))
	assert.Equal(t, "• a", bullets([]string{"a", "b"}, 1))
}
