package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahogan/jobhunter/internal/job"
	"github.com/ahogan/jobhunter/internal/store"
)

func testPipeline(t *testing.T, feedURL, alertURL string) *pipeline {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &Config{
		Notify: &NotifyConfig{FeedWebhookURL: feedURL, AlertWebhookURL: alertURL},
	}
	applyDefaults(cfg)

	return &pipeline{cfg: cfg, logger: zap.NewNop(), store: st}
}

func TestNotifyStageRefreshesTiersBeforeDispatch(t *testing.T) {
	var feed, alerts atomic.Int32
	feedSrv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		feed.Add(1)
	}))
	defer feedSrv.Close()
	alertSrv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		alerts.Add(1)
	}))
	defer alertSrv.Close()

	p := testPipeline(t, feedSrv.URL, alertSrv.URL)
	ctx := context.Background()

	// Stored as hot by an earlier cycle, but 30 hours old by now.
	stale := &job.Posting{
		Source:     job.SourceLinkedIn,
		URL:        "https://example.com/stale",
		Title:      "VP Strategy",
		Company:    "Acme",
		PostedAt:   time.Now().UTC().Add(-30 * time.Hour),
		CapturedAt: time.Now().UTC().Add(-30 * time.Hour),
		Freshness:  job.FreshnessHot,
	}
	stale.ComputeHash()
	inserted, err := p.store.InsertIfAbsent(ctx, stale)
	require.NoError(t, err)
	require.True(t, inserted)

	require.NoError(t, p.store.InsertScored(ctx, &job.ScoredPosting{
		JobHash:      stale.Hash,
		FitScore:     90,
		RoleCategory: job.CategoryStrategic,
		PriorityTier: job.PriorityHigh,
	}))

	require.NoError(t, notifyStage(ctx, p))

	assert.Equal(t, int32(1), feed.Load(), "feed entry still goes out")
	assert.Zero(t, alerts.Load(), "stale posting must not page")
}
