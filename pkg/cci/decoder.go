// Package cci reads sectors from CCI disc-image containers.
package cci

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eunmann/cci-extract/pkg/format"
	"github.com/eunmann/cci-extract/pkg/lz4window"
	"github.com/eunmann/cci-extract/pkg/sectorspace"
)

// maxStoredSize bounds the stored bytes of one sector before allocation.
const maxStoredSize = 64 << 10

// Decoder serves decoded 2048-byte sectors of one container.
//
// Thread Safety: all methods are safe for concurrent use. Reads are
// serialized, since the decompressor window is shared by every sector.
type Decoder struct {
	mu     sync.Mutex
	space  sectorspace.Space
	lz     *lz4window.Decompressor
	log    zerolog.Logger
	closed bool

	// next is the sector expected to follow the last successful read.
	next uint32
}

// Open resolves path into its slice files and loads every slice index. On
// failure all slices opened so far are closed.
func Open(path string, opts ...Option) (*Decoder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	paths, err := cfg.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("resolve slices: %w", err)
	}

	d := &Decoder{lz: lz4window.New(), log: cfg.log}
	for _, p := range paths {
		if err := d.addSlice(cfg.open, p); err != nil {
			_ = d.space.Close()
			return nil, err
		}
	}

	d.log.Debug().
		Str("path", path).
		Int("slices", len(paths)).
		Uint32("sectors", d.space.TotalSectors()).
		Msg("container opened")

	return d, nil
}

func (d *Decoder) addSlice(open format.Opener, path string) error {
	f, err := open(path)
	if err != nil {
		return fmt.Errorf("open slice %s: %w", path, err)
	}

	idx, err := format.LoadIndex(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("load slice %s: %w", path, err)
	}

	s := &sectorspace.Slice{Path: path, File: f, Index: idx}
	if err := d.space.AddSlice(s); err != nil {
		_ = f.Close()
		return err
	}

	d.log.Debug().
		Str("slice", path).
		Uint32("start", s.Start).
		Uint32("sectors", s.Count()).
		Uint64("uncompressed_size", idx.Header.UncompressedSize).
		Msg("slice loaded")

	return nil
}

// TotalSectors returns the number of sectors in the container.
func (d *Decoder) TotalSectors() uint32 {
	return d.space.TotalSectors()
}

// ReadSector decodes sector into buf, which must be exactly 2048 bytes.
//
// The decompressor window carries over from one read to the next, so
// back-references that reach into earlier sectors only decode correctly when
// sectors are read in ascending order starting from 0.
func (d *Decoder) ReadSector(sector uint32, buf []byte) error {
	if len(buf) != format.BlockSize {
		return fmt.Errorf("%w: got %d", ErrBadBufferSize, len(buf))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	s, local, ok := d.space.Resolve(sector)
	if !ok {
		return fmt.Errorf("%w: %d of %d", ErrSectorOutOfRange, sector, d.space.TotalSectors())
	}

	entry, size, err := s.Index.Span(local)
	if err != nil {
		return fmt.Errorf("sector %d in %s: %w", sector, s.Path, err)
	}

	if sector != d.next {
		d.log.Debug().
			Uint32("sector", sector).
			Uint32("expected", d.next).
			Msg("sector read out of order")
	}

	if size == format.BlockSize && !entry.Compressed {
		if err := readFull(s.File, buf, entry.Offset); err != nil {
			return fmt.Errorf("read sector %d from %s: %w", sector, s.Path, err)
		}
		d.next = sector + 1
		return nil
	}

	if size == 0 || size > maxStoredSize {
		return fmt.Errorf("%w: sector %d stores %d bytes", ErrDecodeFailed, sector, size)
	}

	raw := make([]byte, size)
	if err := readFull(s.File, raw, entry.Offset); err != nil {
		return fmt.Errorf("read sector %d from %s: %w", sector, s.Path, err)
	}

	n, err := d.lz.Decode(int(raw[0]), raw[1:], buf)
	if err != nil {
		return fmt.Errorf("%w: sector %d: %w", ErrDecodeFailed, sector, err)
	}
	if n != format.BlockSize {
		return fmt.Errorf("%w: sector %d decoded to %d bytes", ErrDecodeFailed, sector, n)
	}

	d.next = sector + 1
	return nil
}

// readFull fills p from r at off. A trailing io.EOF alongside a full read is
// not an error.
func readFull(r io.ReaderAt, p []byte, off uint64) error {
	n, err := r.ReadAt(p, int64(off))
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read %d of %d bytes at %#x", io.ErrUnexpectedEOF, n, len(p), off)
	}
	return err
}

// Close releases every slice handle. Later calls return nil.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	return d.space.Close()
}
