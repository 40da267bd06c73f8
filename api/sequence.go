// File: api/sequence.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Sequence is a read-only view over one or more discontiguous segments.
type Sequence struct {
	segs   [][]byte
	length int64
}

// NewSequence wraps segs without copying. Empty segments are skipped.
func NewSequence(segs ...[]byte) Sequence {
	s := Sequence{}
	for _, seg := range segs {
		if len(seg) == 0 {
			continue
		}
		s.segs = append(s.segs, seg)
		s.length += int64(len(seg))
	}
	return s
}

// Len returns the total number of bytes.
func (s Sequence) Len() int64 { return s.length }

// IsEmpty reports whether the sequence holds no bytes.
func (s Sequence) IsEmpty() bool { return s.length == 0 }

// IsSingleSegment reports whether the data is contiguous.
func (s Sequence) IsSingleSegment() bool { return len(s.segs) <= 1 }

// Segments returns the underlying views. Callers must not retain them past
// the owning read.
func (s Sequence) Segments() [][]byte { return s.segs }

// First returns the first segment or nil.
func (s Sequence) First() []byte {
	if len(s.segs) == 0 {
		return nil
	}
	return s.segs[0]
}

// CopyTo copies as many bytes as fit into dst.
func (s Sequence) CopyTo(dst []byte) int {
	n := 0
	for _, seg := range s.segs {
		if n == len(dst) {
			break
		}
		n += copy(dst[n:], seg)
	}
	return n
}

// Bytes returns a standalone copy of the data.
func (s Sequence) Bytes() []byte {
	out := make([]byte, s.length)
	s.CopyTo(out)
	return out
}

// Slice returns the view starting at offset from.
func (s Sequence) Slice(from int64) Sequence {
	if from <= 0 {
		return s
	}
	if from >= s.length {
		return Sequence{}
	}
	out := Sequence{length: s.length - from}
	for i, seg := range s.segs {
		l := int64(len(seg))
		if from < l {
			out.segs = make([][]byte, 0, len(s.segs)-i)
			out.segs = append(out.segs, seg[from:])
			out.segs = append(out.segs, s.segs[i+1:]...)
			break
		}
		from -= l
	}
	return out
}
