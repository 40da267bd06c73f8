// File: pipe/writer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipe

import (
	"context"
	"fmt"

	"github.com/momentics/hioload-transport/api"
)

// Writer is the producing end of a Pipe.
type Writer struct {
	p *Pipe
}

// GetBuffer returns free memory of at least sizeHint bytes at the tail of
// the pipe, allocating a new segment when the tail is too small.
func (w *Writer) GetBuffer(sizeHint int) ([]byte, error) {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writerCompleted {
		return nil, api.ErrWriterCompleted
	}
	sizeHint = max(sizeHint, 1)
	if p.tail == nil || len(p.tail.buf)-p.tail.end < sizeHint {
		if err := p.allocateLocked(sizeHint); err != nil {
			return nil, err
		}
	}
	return p.tail.buf[p.tail.end:], nil
}

// Advance commits n bytes written into the last buffer.
func (w *Writer) Advance(n int) error {
	p := w.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writerCompleted {
		return api.ErrWriterCompleted
	}
	free := 0
	if p.tail != nil {
		free = len(p.tail.buf) - p.tail.end
	}
	if n < 0 || n > free {
		return fmt.Errorf("advance %d with %d free: %w", n, free, api.ErrAdvanceRange)
	}
	p.tail.end += n
	p.unflushed += int64(n)
	return nil
}

// Write copies b into the pipe. Data becomes visible on Flush.
func (w *Writer) Write(b []byte) (int, error) {
	written := 0
	for len(b) > 0 {
		buf, err := w.GetBuffer(1)
		if err != nil {
			return written, err
		}
		n := copy(buf, b)
		if err := w.Advance(n); err != nil {
			return written, err
		}
		written += n
		b = b[n:]
	}
	return written, nil
}

// Flush publishes written bytes. It blocks while the reader lags behind
// the pause threshold, until canceled or the reader completes.
func (w *Writer) Flush(ctx context.Context) (api.FlushResult, error) {
	p := w.p
	p.mu.Lock()
	if p.writerCompleted {
		p.mu.Unlock()
		return api.FlushResult{}, api.ErrWriterCompleted
	}
	if p.commitLocked() {
		wake(p.readerWake)
	}
	for {
		switch {
		case p.flushCanceled:
			p.flushCanceled = false
			p.mu.Unlock()
			return api.FlushResult{Canceled: true}, nil
		case p.readerCompleted:
			err := p.readerErr
			p.mu.Unlock()
			return api.FlushResult{Completed: true}, err
		case !p.writerPaused:
			p.mu.Unlock()
			return api.FlushResult{}, nil
		}
		p.mu.Unlock()
		select {
		case <-p.writerWake:
		case <-ctx.Done():
			return api.FlushResult{}, ctx.Err()
		}
		p.mu.Lock()
	}
}

// CancelPendingFlush makes the pending, or next, Flush return with
// Canceled set.
func (w *Writer) CancelPendingFlush() {
	w.p.mu.Lock()
	w.p.flushCanceled = true
	w.p.mu.Unlock()
	wake(w.p.writerWake)
}

// Complete marks the writer done. Written data is committed first; a
// non-nil err is returned to the reader with its final result.
func (w *Writer) Complete(err error) {
	w.p.completeWriter(err)
}

var _ api.PipeWriter = (*Writer)(nil)
