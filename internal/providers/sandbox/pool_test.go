package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolReplacesLostRuntime(t *testing.T) {
	metrics := monitoring.NewMetrics()
	pool, err := NewPool(DefaultConfig(), 1, metrics)
	require.NoError(t, err)
	defer pool.Close()

	broken := true
	pool.resetRuntime = func(*Runtime) error { return errors.New("reset failed") }
	pool.newRuntime = func(config Config) (*Runtime, error) {
		if broken {
			return nil, errors.New("no vm")
		}
		return New(config)
	}

	_, err = pool.Run(context.Background(), preview.SourceBundle{Script: `console.log("one")`})
	require.NoError(t, err)
	assert.Equal(t, Stats{Size: 1, Missing: 1}, pool.Stats())
	assert.EqualValues(t, 1, metrics.Snapshot().SandboxLost)

	// replacement keeps failing: the slot stays missing
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, pool.Stats().Missing)

	broken = false
	pool.resetRuntime = (*Runtime).Reset

	result, err := pool.Run(context.Background(), preview.SourceBundle{Script: `console.log("two")`})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "two", result.Messages[0].Message)
	assert.Equal(t, Stats{Size: 1, Available: 1}, pool.Stats())
}

func TestPoolStatsCountsInUse(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2, nil)
	require.NoError(t, err)
	defer pool.Close()

	rt, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Size: 2, Available: 1, InUse: 1}, pool.Stats())

	pool.Release(rt)
	assert.Equal(t, Stats{Size: 2, Available: 2}, pool.Stats())
}
