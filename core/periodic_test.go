package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicDoesNotDrift(t *testing.T) {
	const period = 20 * time.Millisecond
	p := NewPeriodic(period)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.True(t, p.Wait(ctx))
		// work shorter than the period must not push the schedule
		time.Sleep(12 * time.Millisecond)
	}
	elapsed := time.Since(start)

	// five deadlines plus the trailing sleep; a drifting waiter needs ~160ms
	assert.Less(t, elapsed, 5*period+12*time.Millisecond+30*time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, 5*period)
}

func TestPeriodicCatchesUp(t *testing.T) {
	const period = 10 * time.Millisecond
	p := NewPeriodic(period)
	ctx := context.Background()

	require.True(t, p.Wait(ctx))
	time.Sleep(4 * period)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.True(t, p.Wait(ctx))
	}
	assert.Less(t, time.Since(start), period, "missed slots resolve immediately")
}

func TestPeriodicInterrupted(t *testing.T) {
	p := NewPeriodic(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, p.Wait(ctx))
	assert.Equal(t, time.Hour, p.Period())
}
