// File: pipe/duplex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipe

import "github.com/momentics/hioload-transport/api"

// Duplex pairs the reader of one pipe with the writer of another.
type Duplex struct {
	reader *Reader
	writer *Writer
}

// NewDuplex wraps an existing reader and writer.
func NewDuplex(r *Reader, w *Writer) *Duplex {
	return &Duplex{reader: r, writer: w}
}

// Input returns the reading side.
func (d *Duplex) Input() api.PipeReader { return d.reader }

// Output returns the writing side.
func (d *Duplex) Output() api.PipeWriter { return d.writer }

// Reader returns the concrete reading side.
func (d *Duplex) Reader() *Reader { return d.reader }

// Writer returns the concrete writing side.
func (d *Duplex) Writer() *Writer { return d.writer }

// NewDuplexPair builds two pipes and cross-wires them. Bytes written to
// transport.Output() are read from application.Input() (configured by
// inputOpts) and vice versa (outputOpts).
func NewDuplexPair(inputOpts, outputOpts Options) (transport, application *Duplex) {
	input := New(inputOpts)
	output := New(outputOpts)
	transport = &Duplex{reader: output.Reader(), writer: input.Writer()}
	application = &Duplex{reader: input.Reader(), writer: output.Writer()}
	return transport, application
}

var _ api.DuplexPipe = (*Duplex)(nil)
