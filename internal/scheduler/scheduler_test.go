package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsBadTimezone(t *testing.T) {
	_, err := New("Not/AZone", zap.NewNop())
	assert.Error(t, err)
}

func TestAddRejectsBadSpec(t *testing.T) {
	s, err := New("America/Los_Angeles", zap.NewNop())
	require.NoError(t, err)

	err = s.Add("not a cron spec", "bad", func(context.Context) {})
	assert.Error(t, err)
}

func TestAddAcceptsPipelineSchedules(t *testing.T) {
	s, err := New("America/Los_Angeles", zap.NewNop())
	require.NoError(t, err)

	specs := []string{
		"0,30 6-20 * * 1-5",
		"0 8,12,18 * * 0,6",
		"0 8 * * *",
		"0 17 * * 1-5",
	}
	for _, spec := range specs {
		assert.NoError(t, s.Add(spec, "job", func(context.Context) {}), spec)
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s, err := New("UTC", zap.NewNop())
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Add("@every 100ms", "tick", func(context.Context) {
		runs.Add(1)
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 50*time.Millisecond)
}

func TestOverlappingTickSkipped(t *testing.T) {
	s, err := New("UTC", zap.NewNop())
	require.NoError(t, err)

	var concurrent atomic.Int32
	var peak atomic.Int32
	block := make(chan struct{})

	require.NoError(t, s.Add("@every 100ms", "slow", func(context.Context) {
		n := concurrent.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		<-block
		concurrent.Add(-1)
	}))

	s.Start()
	time.Sleep(500 * time.Millisecond)
	close(block)
	s.Stop()

	assert.Equal(t, int32(1), peak.Load(), "ticks must not overlap")
}
