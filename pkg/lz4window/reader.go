package lz4window

import "io"

// sliceByteReader reads from a byte slice.
type sliceByteReader struct {
	data []byte
	pos  int
}

// ReadByte reads a byte from the slice.
func (r *sliceByteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}

	b := r.data[r.pos]
	r.pos++

	return b, nil
}

// boundedSink copies into a fixed buffer. Writes that do not fit are
// counted but dropped, and the sink stays overflowed from then on, so a
// decode keeps consuming input and reports the failure at the end.
type boundedSink struct {
	buf      []byte
	n        int
	overflow bool
}

func (s *boundedSink) Write(p []byte) (int, error) {
	if s.overflow || s.n+len(p) > len(s.buf) {
		s.overflow = true
	} else {
		copy(s.buf[s.n:], p)
	}
	s.n += len(p)
	return len(p), nil
}
