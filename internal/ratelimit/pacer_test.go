package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPacerFirstCallImmediate(t *testing.T) {
	p := New(time.Second)
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerEnforcesGap(t *testing.T) {
	p := New(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx))
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacerDisabled(t *testing.T) {
	p := New(0)
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerCancelledContext(t *testing.T) {
	p := New(time.Minute)
	ctx := context.Background()
	require.NoError(t, p.Wait(ctx))

	cancelled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	require.Error(t, p.Wait(cancelled))
}

func TestSetIndependentBudgets(t *testing.T) {
	set := NewSet(time.Minute, map[string]time.Duration{
		"fast": 0,
		"slow": time.Minute,
	})
	ctx := context.Background()

	// Independent collaborators do not share a budget.
	require.NoError(t, set.Wait(ctx, "slow"))
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, set.Wait(ctx, "fast"))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}
