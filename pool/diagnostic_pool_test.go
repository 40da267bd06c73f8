package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/pool"
)

func TestDiagnosticPool_AccessAfterRelease(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool())
	b, err := d.Rent(-1)
	require.NoError(t, err)
	require.Len(t, b.Bytes(), pool.BlockSize)
	require.NoError(t, b.Release())

	assert.Panics(t, func() { b.Bytes() })
	_, err = b.Pin(0)
	require.ErrorIs(t, err, api.ErrBlockDisposed)
	require.ErrorIs(t, b.Release(), api.ErrInvalidBlockState)

	require.NoError(t, d.Dispose())
	errs := d.Errors()
	require.Error(t, errs)
	assert.ErrorIs(t, errs, api.ErrBlockDisposed)
	assert.ErrorIs(t, errs, api.ErrInvalidBlockState)
}

func TestDiagnosticPool_ReleaseWhilePinned(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool())
	b, err := d.Rent(-1)
	require.NoError(t, err)

	_, err = b.Pin(0)
	require.NoError(t, err)
	require.ErrorIs(t, b.Release(), api.ErrInvalidBlockState)
	require.NoError(t, b.Unpin())
	require.ErrorIs(t, b.Unpin(), api.ErrInvalidBlockState)
	require.NoError(t, b.Release())
	assert.Zero(t, d.Outstanding())
}

func TestDiagnosticPool_DisposeWithOutstanding(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool(), pool.WithLeakTracking())
	b, err := d.Rent(-1)
	require.NoError(t, err)

	err = d.Dispose()
	require.ErrorIs(t, err, api.ErrOutstandingBlocks)
	assert.True(t, errdefs.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "TestDiagnosticPool_DisposeWithOutstanding")

	assert.Panics(t, func() { b.Bytes() })
	_, err = d.Rent(-1)
	require.ErrorIs(t, err, api.ErrPoolDisposed)
}

func TestDiagnosticPool_LateReturns(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool(), pool.WithLateReturns())
	b1, err := d.Rent(-1)
	require.NoError(t, err)
	b2, err := d.Rent(-1)
	require.NoError(t, err)

	require.NoError(t, d.Dispose())
	select {
	case <-d.AllBlocksReturned():
		t.Fatal("signaled with blocks outstanding")
	default:
	}

	assert.Panics(t, func() { b1.Bytes() })
	require.NoError(t, b1.Release())
	require.NoError(t, b2.Release())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = d.WaitForAllBlocks(ctx)
	require.ErrorIs(t, err, api.ErrBlockDisposed)
}

func TestDiagnosticPool_WaitTimesOut(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool(), pool.WithLateReturns())
	b, err := d.Rent(-1)
	require.NoError(t, err)
	require.NoError(t, d.Dispose())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = d.WaitForAllBlocks(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, b.Release())
	require.NoError(t, d.WaitForAllBlocks(context.Background()))
}

func TestDiagnosticPool_CleanDisposeSignals(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool())
	require.NoError(t, pool.Use(d, 10, func(buf []byte) error {
		buf[0] = 1
		return nil
	}))
	require.NoError(t, d.Dispose())
	require.NoError(t, d.WaitForAllBlocks(context.Background()))
}
