// File: pipe/pipe.go
// Package pipe implements a pool-backed, single-reader single-writer byte
// pipe with explicit buffer ownership and writer backpressure.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipe

import (
	"sync"

	"github.com/momentics/hioload-transport/api"
)

// segment is one link of the buffer chain. Bytes [start, committed) are
// visible to the reader, [committed, end) are written but not flushed.
type segment struct {
	block     api.Block
	buf       []byte
	start     int
	committed int
	end       int
	next      *segment
}

func (s *segment) release() {
	if s.block != nil {
		_ = s.block.Release()
		s.block = nil
	}
	s.buf = nil
}

// Pipe couples a Reader and a Writer over a shared segment chain.
type Pipe struct {
	mu   sync.Mutex
	opts Options

	head    *segment // oldest unconsumed segment
	tail    *segment // segment being written
	flushed *segment // last segment touched by a flush

	unflushed     int64
	flushedTotal  int64 // absolute offset of the flushed end
	consumedTotal int64 // absolute offset of the read start
	examinedTotal int64

	reading       bool
	readStart     int64
	readLen       int64
	readCanceled  bool
	flushCanceled bool
	writerPaused  bool

	writerCompleted bool
	writerErr       error
	readerCompleted bool
	readerErr       error

	readerWake chan struct{}
	writerWake chan struct{}

	reader Reader
	writer Writer
}

// New creates a pipe.
func New(opts Options) *Pipe {
	p := &Pipe{
		opts:       opts.withDefaults(),
		readerWake: make(chan struct{}, 1),
		writerWake: make(chan struct{}, 1),
	}
	p.reader.p = p
	p.writer.p = p
	return p
}

// Reader returns the consuming end.
func (p *Pipe) Reader() *Reader { return &p.reader }

// Writer returns the producing end.
func (p *Pipe) Writer() *Writer { return &p.writer }

// Length returns flushed bytes not yet consumed.
func (p *Pipe) Length() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushedTotal - p.consumedTotal
}

func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// allocateLocked appends a segment with at least sizeHint free bytes.
func (p *Pipe) allocateLocked(sizeHint int) error {
	seg := &segment{}
	if pool := p.opts.Pool; pool != nil && sizeHint <= pool.BlockSize() {
		b, err := pool.Rent(sizeHint)
		if err != nil {
			return err
		}
		seg.block = b
		seg.buf = b.Bytes()
	} else {
		seg.buf = make([]byte, max(sizeHint, p.opts.MinimumSegmentSize))
	}
	if p.tail == nil {
		p.head, p.tail, p.flushed = seg, seg, seg
		return nil
	}
	p.tail.next = seg
	p.tail = seg
	return nil
}

// commitLocked makes unflushed bytes visible to the reader.
func (p *Pipe) commitLocked() bool {
	if p.unflushed == 0 {
		return false
	}
	for s := p.flushed; s != nil; s = s.next {
		s.committed = s.end
	}
	p.flushed = p.tail
	p.flushedTotal += p.unflushed
	p.unflushed = 0
	if t := p.opts.PauseWriterThreshold; t > 0 && p.flushedTotal-p.consumedTotal >= t {
		p.writerPaused = true
	}
	return true
}

// bufferLocked builds the readable view.
func (p *Pipe) bufferLocked() api.Sequence {
	var segs [][]byte
	for s := p.head; s != nil; s = s.next {
		if s.committed > s.start {
			segs = append(segs, s.buf[s.start:s.committed])
		}
		if s == p.flushed {
			break
		}
	}
	return api.NewSequence(segs...)
}

// consumeLocked drops n bytes from the head of the chain, returning
// segments that are fully read and no longer written to.
func (p *Pipe) consumeLocked(n int64) {
	for n > 0 && p.head != nil {
		s := p.head
		avail := int64(s.committed - s.start)
		if n < avail {
			s.start += int(n)
			return
		}
		n -= avail
		s.start = s.committed
		if s == p.tail || s.committed < s.end {
			return
		}
		p.head = s.next
		if p.flushed == s {
			p.flushed = p.head
		}
		s.release()
	}
}

func (p *Pipe) releaseAllLocked() {
	for s := p.head; s != nil; {
		next := s.next
		s.release()
		s = next
	}
	p.head, p.tail, p.flushed = nil, nil, nil
}

func (p *Pipe) completeWriter(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writerCompleted {
		return
	}
	p.commitLocked()
	p.writerCompleted = true
	p.writerErr = err
	if p.readerCompleted {
		p.releaseAllLocked()
	}
	wake(p.readerWake)
}

func (p *Pipe) completeReader(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readerCompleted {
		return
	}
	p.readerCompleted = true
	p.readerErr = err
	p.reading = false
	p.writerPaused = false
	if p.writerCompleted {
		p.releaseAllLocked()
	}
	wake(p.writerWake)
}
