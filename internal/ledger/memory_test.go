package ledger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMemory_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	require.NoError(t, l.Provision(ctx, "tt1", 10))

	require.NoError(t, l.Reserve(ctx, "tt1", 6))
	n, err := l.Remaining(ctx, "tt1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	err = l.Reserve(ctx, "tt1", 5)
	require.ErrorIs(t, err, model.ErrInsufficient)
	var capErr *model.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 4, capErr.Remaining)

	require.NoError(t, l.Release(ctx, "tt1", 6))
	n, _ = l.Remaining(ctx, "tt1")
	assert.Equal(t, 10, n)

	// never above capacity
	require.NoError(t, l.Release(ctx, "tt1", 3))
	n, _ = l.Remaining(ctx, "tt1")
	assert.Equal(t, 10, n)
}

func TestMemory_ProvisionKeepsCounter(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()
	require.NoError(t, l.Provision(ctx, "tt1", 5))
	require.NoError(t, l.Reserve(ctx, "tt1", 2))
	require.NoError(t, l.Provision(ctx, "tt1", 5))

	n, _ := l.Remaining(ctx, "tt1")
	assert.Equal(t, 3, n)
}

func TestMemory_Restore(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	created, err := l.Restore(ctx, "tt1", 10, 4)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = l.Restore(ctx, "tt1", 10, 10)
	require.NoError(t, err)
	assert.False(t, created)

	n, _ := l.Remaining(ctx, "tt1")
	assert.Equal(t, 4, n)

	require.NoError(t, l.Release(ctx, "tt1", 20))
	n, _ = l.Remaining(ctx, "tt1")
	assert.Equal(t, 10, n)

	_, err = l.Restore(ctx, "tt2", 10, -1)
	assert.Error(t, err)
}

func TestMemory_Errors(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	assert.ErrorIs(t, l.Reserve(ctx, "missing", 1), model.ErrNotFound)
	assert.ErrorIs(t, l.Release(ctx, "missing", 1), model.ErrNotFound)
	_, err := l.Remaining(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, l.Provision(ctx, "tt1", 1))
	assert.Error(t, l.Reserve(ctx, "tt1", 0))
	assert.Error(t, l.Release(ctx, "tt1", -1))
	assert.Error(t, l.Provision(ctx, "tt2", 0))
}

func TestMemory_ConcurrentReserveNeverOversells(t *testing.T) {
	ctx := context.Background()
	const capacity = 50
	l := NewMemory()
	require.NoError(t, l.Provision(ctx, "tt1", capacity))

	var reserved atomic.Int64
	var g errgroup.Group
	for i := range 200 {
		units := i%3 + 1
		g.Go(func() error {
			err := l.Reserve(ctx, "tt1", units)
			switch {
			case err == nil:
				reserved.Add(int64(units))
			case errors.Is(err, model.ErrInsufficient):
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	n, err := l.Remaining(ctx, "tt1")
	require.NoError(t, err)
	assert.LessOrEqual(t, reserved.Load(), int64(capacity))
	assert.Equal(t, capacity-int(reserved.Load()), n)
}
