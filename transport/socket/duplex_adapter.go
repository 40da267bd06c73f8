// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"context"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/pipe"
)

// duplexAdapter starts the connection on first blocking use.
type duplexAdapter struct {
	input  *lazyReader
	output *lazyWriter
}

func newDuplexAdapter(c *Connection) *duplexAdapter {
	return &duplexAdapter{
		input:  &lazyReader{c: c, r: c.application.Reader()},
		output: &lazyWriter{c: c, w: c.application.Writer()},
	}
}

func (d *duplexAdapter) Input() api.PipeReader  { return d.input }
func (d *duplexAdapter) Output() api.PipeWriter { return d.output }

type lazyReader struct {
	c *Connection
	r *pipe.Reader
}

func (l *lazyReader) Read(ctx context.Context) (api.ReadResult, error) {
	l.c.Start()
	return l.r.Read(ctx)
}

func (l *lazyReader) TryRead() (api.ReadResult, bool, error) {
	l.c.Start()
	return l.r.TryRead()
}

func (l *lazyReader) AdvanceTo(consumed, examined int64) error {
	return l.r.AdvanceTo(consumed, examined)
}

func (l *lazyReader) CancelPendingRead() { l.r.CancelPendingRead() }
func (l *lazyReader) Complete(err error)  { l.r.Complete(err) }

type lazyWriter struct {
	c *Connection
	w *pipe.Writer
}

func (l *lazyWriter) GetBuffer(sizeHint int) ([]byte, error) { return l.w.GetBuffer(sizeHint) }
func (l *lazyWriter) Advance(n int) error                    { return l.w.Advance(n) }

func (l *lazyWriter) Write(p []byte) (int, error) {
	l.c.Start()
	return l.w.Write(p)
}

func (l *lazyWriter) Flush(ctx context.Context) (api.FlushResult, error) {
	l.c.Start()
	return l.w.Flush(ctx)
}

func (l *lazyWriter) CancelPendingFlush() { l.w.CancelPendingFlush() }
func (l *lazyWriter) Complete(err error)  { l.w.Complete(err) }
