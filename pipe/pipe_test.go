package pipe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/pipe"
	"github.com/momentics/hioload-transport/pool"
)

func write(t *testing.T, w *pipe.Writer, s string) {
	t.Helper()
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	_, err = w.Flush(context.Background())
	require.NoError(t, err)
}

func TestPipe_WriteFlushRead(t *testing.T) {
	p := pipe.New(pipe.Options{})
	r, w := p.Reader(), p.Writer()

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	_, ok, err := r.TryRead()
	require.NoError(t, err)
	assert.False(t, ok, "unflushed data is invisible")

	_, err = w.Flush(context.Background())
	require.NoError(t, err)
	res, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(res.Buffer.Bytes()))
	assert.False(t, res.Completed)
	require.NoError(t, r.AdvanceTo(res.Buffer.Len(), res.Buffer.Len()))

	_, ok, err = r.TryRead()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, p.Length())
}

func TestPipe_ExaminedWaitsForMoreData(t *testing.T) {
	p := pipe.New(pipe.Options{})
	r, w := p.Reader(), p.Writer()
	write(t, w, "hello world")

	res, err := r.Read(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.AdvanceTo(5, res.Buffer.Len()))

	_, ok, err := r.TryRead()
	require.NoError(t, err)
	assert.False(t, ok, "everything was examined")

	write(t, w, "!")
	res, err = r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, " world!", string(res.Buffer.Bytes()))
	require.NoError(t, r.AdvanceTo(0, 0))
}

func TestPipe_PoolSegmentsReleased(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool())
	p := pipe.New(pipe.Options{Pool: d, PauseWriterThreshold: -1})
	r, w := p.Reader(), p.Writer()

	payload := bytes.Repeat([]byte("0123456789"), 1000)
	write(t, w, string(payload))

	res, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), res.Buffer.Len())
	assert.False(t, res.Buffer.IsSingleSegment())
	assert.Equal(t, payload, res.Buffer.Bytes())
	require.NoError(t, r.AdvanceTo(res.Buffer.Len(), res.Buffer.Len()))
	assert.Equal(t, 1, d.Outstanding(), "only the tail segment is kept")

	w.Complete(nil)
	r.Complete(nil)
	assert.Zero(t, d.Outstanding())
	require.NoError(t, d.Dispose())
	require.NoError(t, d.Errors())
}

func TestPipe_LargeBufferUsesHeap(t *testing.T) {
	d := pool.NewDiagnosticPool(pool.NewPinnedBlockPool())
	p := pipe.New(pipe.Options{Pool: d})
	w := p.Writer()

	buf, err := w.GetBuffer(pool.BlockSize * 2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(buf), pool.BlockSize*2)
	assert.Zero(t, d.Outstanding())
}

func TestPipe_Backpressure(t *testing.T) {
	p := pipe.New(pipe.Options{PauseWriterThreshold: 8, ResumeWriterThreshold: 4})
	r, w := p.Reader(), p.Writer()

	_, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	done := make(chan api.FlushResult, 1)
	go func() {
		res, err := w.Flush(context.Background())
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case <-done:
		t.Fatal("flush returned above the pause threshold")
	case <-time.After(20 * time.Millisecond):
	}

	res, err := r.Read(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.AdvanceTo(res.Buffer.Len(), res.Buffer.Len()))

	select {
	case fr := <-done:
		assert.False(t, fr.Canceled)
		assert.False(t, fr.Completed)
	case <-time.After(time.Second):
		t.Fatal("flush did not resume")
	}
}

func TestPipe_CancelPendingFlush(t *testing.T) {
	p := pipe.New(pipe.Options{PauseWriterThreshold: 1})
	w := p.Writer()
	_, err := w.Write([]byte("xy"))
	require.NoError(t, err)

	done := make(chan api.FlushResult, 1)
	go func() {
		res, _ := w.Flush(context.Background())
		done <- res
	}()
	time.Sleep(10 * time.Millisecond)
	w.CancelPendingFlush()

	select {
	case res := <-done:
		assert.True(t, res.Canceled)
	case <-time.After(time.Second):
		t.Fatal("flush not canceled")
	}
}

func TestPipe_CancelPendingRead(t *testing.T) {
	p := pipe.New(pipe.Options{})
	r := p.Reader()

	done := make(chan api.ReadResult, 1)
	go func() {
		res, err := r.Read(context.Background())
		assert.NoError(t, err)
		done <- res
	}()
	time.Sleep(10 * time.Millisecond)
	r.CancelPendingRead()

	select {
	case res := <-done:
		assert.True(t, res.Canceled)
		assert.True(t, res.Buffer.IsEmpty())
	case <-time.After(time.Second):
		t.Fatal("read not canceled")
	}
	require.NoError(t, r.AdvanceTo(0, 0))
}

func TestPipe_ReadContextCanceled(t *testing.T) {
	p := pipe.New(pipe.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Reader().Read(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipe_WriterCompleteWithError(t *testing.T) {
	p := pipe.New(pipe.Options{})
	r, w := p.Reader(), p.Writer()
	boom := errors.New("boom")

	_, err := w.Write([]byte("bye"))
	require.NoError(t, err)
	w.Complete(boom)

	res, err := r.Read(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, res.Completed)
	assert.Equal(t, "bye", string(res.Buffer.Bytes()))

	_, err = w.GetBuffer(1)
	require.ErrorIs(t, err, api.ErrWriterCompleted)
	require.ErrorIs(t, w.Advance(0), api.ErrWriterCompleted)
}

func TestPipe_ReaderCompleteWithError(t *testing.T) {
	p := pipe.New(pipe.Options{})
	r, w := p.Reader(), p.Writer()
	boom := errors.New("boom")
	r.Complete(boom)

	_, err := w.Write([]byte("x"))
	require.NoError(t, err)
	res, err := w.Flush(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, res.Completed)

	_, err = r.Read(context.Background())
	require.ErrorIs(t, err, api.ErrReaderCompleted)
}

func TestPipe_ContractErrors(t *testing.T) {
	p := pipe.New(pipe.Options{})
	r, w := p.Reader(), p.Writer()

	require.ErrorIs(t, r.AdvanceTo(0, 0), api.ErrNoReadToAdvance)
	require.ErrorIs(t, w.Advance(1), api.ErrAdvanceRange)

	write(t, w, "abc")
	res, err := r.Read(context.Background())
	require.NoError(t, err)
	_, err = r.Read(context.Background())
	require.ErrorIs(t, err, api.ErrReadInProgress)

	require.ErrorIs(t, r.AdvanceTo(4, 4), api.ErrAdvanceRange)
	require.ErrorIs(t, r.AdvanceTo(2, 1), api.ErrAdvanceRange)
	require.NoError(t, r.AdvanceTo(res.Buffer.Len(), res.Buffer.Len()))
}

func TestDuplexPair_CrossWired(t *testing.T) {
	transport, app := pipe.NewDuplexPair(pipe.Options{}, pipe.Options{})

	write(t, transport.Writer(), "from socket")
	res, err := app.Input().Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from socket", string(res.Buffer.Bytes()))
	require.NoError(t, app.Input().AdvanceTo(res.Buffer.Len(), res.Buffer.Len()))

	write(t, app.Writer(), "to socket")
	res, err = transport.Input().Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "to socket", string(res.Buffer.Bytes()))
	require.NoError(t, transport.Input().AdvanceTo(res.Buffer.Len(), res.Buffer.Len()))
}
