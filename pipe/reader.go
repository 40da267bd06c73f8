// File: pipe/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipe

import (
	"context"
	"fmt"

	"github.com/momentics/hioload-transport/api"
)

// Reader is the consuming end of a Pipe.
type Reader struct {
	p *Pipe
}

// Read blocks until new data is flushed, the writer completes or the read
// is canceled. Every successful Read must be followed by AdvanceTo before
// the next Read.
func (r *Reader) Read(ctx context.Context) (api.ReadResult, error) {
	p := r.p
	p.mu.Lock()
	for {
		res, ok, err := r.tryReadLocked()
		if ok || err != nil {
			p.mu.Unlock()
			return res, err
		}
		p.mu.Unlock()
		select {
		case <-p.readerWake:
		case <-ctx.Done():
			return api.ReadResult{}, ctx.Err()
		}
		p.mu.Lock()
	}
}

// TryRead returns a result only when one is available without blocking.
func (r *Reader) TryRead() (api.ReadResult, bool, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	return r.tryReadLocked()
}

func (r *Reader) tryReadLocked() (api.ReadResult, bool, error) {
	p := r.p
	if p.readerCompleted {
		return api.ReadResult{}, false, api.ErrReaderCompleted
	}
	if p.reading {
		return api.ReadResult{}, false, api.ErrReadInProgress
	}

	var res api.ReadResult
	switch {
	case p.readCanceled:
		p.readCanceled = false
		res.Canceled = true
	case p.writerCompleted:
		res.Completed = true
	case p.flushedTotal > p.examinedTotal:
	default:
		return api.ReadResult{}, false, nil
	}

	res.Buffer = p.bufferLocked()
	p.reading = true
	p.readStart = p.consumedTotal
	p.readLen = res.Buffer.Len()
	if res.Completed {
		return res, true, p.writerErr
	}
	return res, true, nil
}

// AdvanceTo releases consumed bytes and records examined bytes. Both are
// offsets into the buffer returned by the last read.
func (r *Reader) AdvanceTo(consumed, examined int64) error {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.reading {
		return api.ErrNoReadToAdvance
	}
	if consumed < 0 || examined < consumed || examined > p.readLen {
		return fmt.Errorf("advance consumed=%d examined=%d of %d: %w", consumed, examined, p.readLen, api.ErrAdvanceRange)
	}
	p.reading = false
	p.consumeLocked(consumed)
	p.consumedTotal += consumed
	p.examinedTotal = max(p.examinedTotal, p.readStart+examined)

	if p.writerPaused && p.flushedTotal-p.consumedTotal <= p.opts.ResumeWriterThreshold {
		p.writerPaused = false
		wake(p.writerWake)
	}
	return nil
}

// CancelPendingRead makes the pending, or next, Read return with
// Canceled set.
func (r *Reader) CancelPendingRead() {
	r.p.mu.Lock()
	r.p.readCanceled = true
	r.p.mu.Unlock()
	wake(r.p.readerWake)
}

// Complete marks the reader done. A blocked Flush returns Completed.
func (r *Reader) Complete(err error) {
	r.p.completeReader(err)
}

var _ api.PipeReader = (*Reader)(nil)
