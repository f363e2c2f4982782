package cci

import (
	"fmt"
	"io"

	"github.com/eunmann/cci-extract/pkg/format"
)

// SliceInfo describes one slice of an open container.
type SliceInfo struct {
	Path             string
	Start            uint32
	End              uint32
	Sectors          uint32
	UncompressedSize uint64
}

// Location is where a sector's stored bytes live.
type Location struct {
	Sector     uint32
	Slice      int
	Path       string
	Offset     uint64
	StoredSize uint64
	Compressed bool
}

// Slices returns the slices in sector order.
func (d *Decoder) Slices() []SliceInfo {
	slices := d.space.Slices()
	out := make([]SliceInfo, len(slices))
	for i, s := range slices {
		out[i] = SliceInfo{
			Path:             s.Path,
			Start:            s.Start,
			End:              s.End,
			Sectors:          s.Count(),
			UncompressedSize: s.Index.Header.UncompressedSize,
		}
	}
	return out
}

// Locate reports where sector is stored without reading it.
func (d *Decoder) Locate(sector uint32) (Location, error) {
	s, local, ok := d.space.Resolve(sector)
	if !ok {
		return Location{}, fmt.Errorf("%w: %d of %d", ErrSectorOutOfRange, sector, d.space.TotalSectors())
	}

	entry, size, err := s.Index.Span(local)
	if err != nil {
		return Location{}, fmt.Errorf("sector %d in %s: %w", sector, s.Path, err)
	}

	loc := Location{
		Sector:     sector,
		Path:       s.Path,
		Offset:     entry.Offset,
		StoredSize: size,
		Compressed: entry.Compressed,
	}
	for i, candidate := range d.space.Slices() {
		if candidate == s {
			loc.Slice = i
			break
		}
	}
	return loc, nil
}

// WriteTo decodes every sector in order and writes it to w.
func (d *Decoder) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, format.BlockSize)
	var written int64
	for sector := range d.TotalSectors() {
		if err := d.ReadSector(sector, buf); err != nil {
			return written, err
		}
		n, err := w.Write(buf)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write sector %d: %w", sector, err)
		}
	}
	return written, nil
}
