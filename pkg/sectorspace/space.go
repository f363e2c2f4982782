// Package sectorspace maps a global sector number onto the slice file that
// stores it.
package sectorspace

import (
	"errors"
	"fmt"
	"math"

	"github.com/eunmann/cci-extract/pkg/format"
)

// ErrSpaceOverflow is returned when the slices hold more sectors than a
// uint32 sector number can address.
var ErrSpaceOverflow = errors.New("sector space exceeds uint32")

// Slice is one physical file of a container.
type Slice struct {
	Path  string
	File  format.File
	Index *format.Index

	// Start and End are the inclusive global sector range. Both are zero
	// for a slice without sectors, which never resolves.
	Start uint32
	End   uint32
}

// Count returns the number of sectors held by the slice.
func (s *Slice) Count() uint32 {
	return s.Index.SectorCount
}

// Space is the ordered, gapless union of slices.
//
// Thread Safety: a Space is built by one goroutine and is read-only
// afterwards.
type Space struct {
	slices []*Slice
	total  uint64
}

// AddSlice appends s, numbering its sectors after those already added.
func (sp *Space) AddSlice(s *Slice) error {
	count := uint64(s.Count())
	if sp.total+count > math.MaxUint32 {
		return fmt.Errorf("%w: adding %s (%d sectors) to %d", ErrSpaceOverflow, s.Path, count, sp.total)
	}

	s.Start, s.End = 0, 0
	if count > 0 {
		s.Start = uint32(sp.total)
		s.End = uint32(sp.total + count - 1)
	}
	sp.total += count
	sp.slices = append(sp.slices, s)

	return nil
}

// TotalSectors returns the number of addressable sectors.
func (sp *Space) TotalSectors() uint32 {
	return uint32(sp.total)
}

// Resolve returns the slice holding sector and the sector's index within it.
func (sp *Space) Resolve(sector uint32) (*Slice, uint32, bool) {
	for _, s := range sp.slices {
		if s.Count() == 0 {
			continue
		}
		if sector >= s.Start && sector <= s.End {
			return s, sector - s.Start, true
		}
	}
	return nil, 0, false
}

// Slices returns the slices in numbering order.
func (sp *Space) Slices() []*Slice {
	return sp.slices
}

// Close closes every slice handle and returns the first error.
func (sp *Space) Close() error {
	var firstErr error
	for _, s := range sp.slices {
		if s.File == nil {
			continue
		}
		if err := s.File.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close slice %s: %w", s.Path, err)
		}
	}
	return firstErr
}
