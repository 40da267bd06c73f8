package api_test

import (
	"errors"
	"syscall"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-transport/api"
)

func TestSequence(t *testing.T) {
	s := api.NewSequence([]byte("ab"), nil, []byte("cde"))
	assert.EqualValues(t, 5, s.Len())
	assert.False(t, s.IsEmpty())
	assert.False(t, s.IsSingleSegment())
	assert.Len(t, s.Segments(), 2)
	assert.Equal(t, "ab", string(s.First()))
	assert.Equal(t, "abcde", string(s.Bytes()))

	dst := make([]byte, 3)
	assert.Equal(t, 3, s.CopyTo(dst))
	assert.Equal(t, "abc", string(dst))

	empty := api.NewSequence()
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.IsSingleSegment())
	assert.Nil(t, empty.First())
}

func TestConnectionErrors(t *testing.T) {
	reset := &api.ConnectionResetError{Err: syscall.ECONNRESET}
	assert.ErrorIs(t, reset, api.ErrConnectionReset)
	assert.ErrorIs(t, reset, syscall.ECONNRESET)
	assert.True(t, errdefs.IsUnavailable(reset))
	assert.NotErrorIs(t, reset, api.ErrConnectionAborted)

	aborted := api.NewConnectionAborted("idle timeout")
	assert.ErrorIs(t, aborted, api.ErrConnectionAborted)
	assert.True(t, errdefs.IsAborted(aborted))
	assert.Equal(t, "connection aborted: idle timeout", aborted.Error())

	wrapped := &api.ConnectionAbortedError{Reason: "shutdown", Err: errors.New("cause")}
	assert.Equal(t, "connection aborted: shutdown: cause", wrapped.Error())
}

func TestContractErrorClasses(t *testing.T) {
	assert.True(t, errdefs.IsInvalidArgument(api.ErrBufferTooLarge))
	assert.True(t, errdefs.IsFailedPrecondition(api.ErrInvalidBlockState))
	assert.True(t, errdefs.IsOutOfRange(api.ErrPinOutOfRange))
	assert.True(t, errdefs.IsUnavailable(api.ErrPoolDisposed))
	assert.True(t, errdefs.IsUnavailable(api.ErrOperationDisposed))
}

func TestIsGaugeMetric(t *testing.T) {
	for _, e := range api.GaugeMetrics {
		assert.True(t, api.IsGaugeMetric(e), e)
	}
	for _, e := range api.CounterMetrics {
		assert.False(t, api.IsGaugeMetric(e), e)
	}
}

func TestSequenceSlice(t *testing.T) {
	s := api.NewSequence([]byte("abc"), []byte("def"))
	assert.Equal(t, "cdef", string(s.Slice(2).Bytes()))
	assert.Equal(t, "ef", string(s.Slice(4).Bytes()))
	assert.Equal(t, "def", string(s.Slice(3).Bytes()))
	assert.True(t, s.Slice(6).IsEmpty())
	assert.Equal(t, s, s.Slice(0))
}
