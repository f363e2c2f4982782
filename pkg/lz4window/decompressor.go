package lz4window

import (
	"errors"
	"fmt"
	"io"
)

const (
	// WindowSize is the size of the circular history buffer.
	WindowSize = 2560
	// MinMatch is the match length encoded by a low nibble of zero.
	MinMatch = 4

	runMask = 15
)

// Decompressor holds the circular window shared by consecutive blocks.
//
// Thread Safety: a Decompressor is not safe for concurrent use.
type Decompressor struct {
	window [WindowSize]byte
	pos    int
}

// New returns a Decompressor with an empty window.
func New() *Decompressor {
	return &Decompressor{}
}

// Pos reports the current write cursor within the window.
func (d *Decompressor) Pos() int {
	return d.pos
}

// Reset clears the window and rewinds the cursor.
func (d *Decompressor) Reset() {
	d.window = [WindowSize]byte{}
	d.pos = 0
}

// Decode decodes in, minus its trailing padding bytes, into out. It returns
// the number of bytes the stream produced, which exceeds len(out) when
// ErrOutputOverflow is reported.
func (d *Decompressor) Decode(padding int, in, out []byte) (int, error) {
	if padding < 0 || padding > len(in) {
		return 0, fmt.Errorf("%w: %d of %d bytes", ErrBadPadding, padding, len(in))
	}

	stream := in[:len(in)-padding]
	sink := &boundedSink{buf: out}
	n, err := d.Stream(&sliceByteReader{data: stream}, len(stream), sink)
	if err != nil {
		return n, err
	}
	if sink.overflow {
		return n, fmt.Errorf("%w: produced %d bytes into %d", ErrOutputOverflow, n, len(out))
	}

	return n, nil
}

// Stream decodes size bytes read from src and writes the result to dst.
// Output reaches dst whenever the window wraps and once more at the end of
// the stream. It returns the number of bytes written.
func (d *Decompressor) Stream(src io.ByteReader, size int, dst io.Writer) (int, error) {
	if size <= 0 {
		return 0, ErrEmptyBlock
	}

	r := &run{d: d, src: src, left: size, dst: dst, mark: d.pos}
	if err := r.decode(); err != nil {
		return r.emitted, err
	}
	if err := r.flush(); err != nil {
		return r.emitted, err
	}

	return r.emitted, nil
}

// run is the state of a single Stream call.
type run struct {
	d       *Decompressor
	src     io.ByteReader
	left    int
	dst     io.Writer
	mark    int
	emitted int
}

func (r *run) decode() error {
	for r.left > 0 {
		token, err := r.next()
		if err != nil {
			return err
		}

		literals, err := r.length(int(token >> 4))
		if err != nil {
			return err
		}
		for range literals {
			b, err := r.next()
			if err != nil {
				return err
			}
			if err := r.put(b); err != nil {
				return err
			}
		}

		if r.left == 0 {
			return nil
		}

		lo, err := r.next()
		if err != nil {
			return err
		}
		hi, err := r.next()
		if err != nil {
			return err
		}
		delta := int(lo) | int(hi)<<8
		if delta == 0 {
			return ErrZeroOffset
		}
		if delta > WindowSize {
			return fmt.Errorf("%w: %d", ErrOffsetTooFar, delta)
		}

		matchLen, err := r.length(int(token & runMask))
		if err != nil {
			return err
		}
		if err := r.copyMatch(delta, matchLen+MinMatch); err != nil {
			return err
		}
	}

	return nil
}

func (r *run) next() (byte, error) {
	if r.left == 0 {
		return 0, ErrTruncatedStream
	}

	b, err := r.src.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrTruncatedStream
		}
		return 0, err
	}
	r.left--

	return b, nil
}

// length extends a nibble of 15 with following bytes until one is not 255.
func (r *run) length(n int) (int, error) {
	if n != runMask {
		return n, nil
	}
	for {
		b, err := r.next()
		if err != nil {
			return 0, err
		}
		n += int(b)
		if b != 255 {
			return n, nil
		}
	}
}

func (r *run) copyMatch(delta, n int) error {
	w := &r.d.window
	pos := r.d.pos
	ref := pos - delta
	if ref < 0 {
		ref += WindowSize
	}

	if pos+n < WindowSize && ref+n < WindowSize && (pos >= ref+n || ref >= pos+n) {
		copy(w[pos:pos+n], w[ref:ref+n])
		r.d.pos += n
		return nil
	}

	// Overlapping or wrapping: byte by byte so freshly written bytes repeat.
	for range n {
		b := w[ref]
		ref++
		if ref == WindowSize {
			ref = 0
		}
		if err := r.put(b); err != nil {
			return err
		}
	}

	return nil
}

func (r *run) put(b byte) error {
	r.d.window[r.d.pos] = b
	r.d.pos++
	if r.d.pos == WindowSize {
		if err := r.flush(); err != nil {
			return err
		}
		r.d.pos = 0
		r.mark = 0
	}

	return nil
}

// flush writes the bytes staged since mark.
func (r *run) flush() error {
	if r.d.pos <= r.mark {
		return nil
	}

	n, err := r.dst.Write(r.d.window[r.mark:r.d.pos])
	r.emitted += n
	r.mark = r.d.pos
	if err != nil {
		return fmt.Errorf("write decoded bytes: %w", err)
	}

	return nil
}
