package format

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	entryCompressedBit = 0x80000000
	entryOffsetMask    = 0x7FFFFFFF
	entryWidth         = 4

	// cap on entries preallocated before the table has actually been read
	maxPrealloc = 1 << 20
)

// IndexEntry locates the stored bytes of one sector within a slice file.
type IndexEntry struct {
	Offset     uint64
	Compressed bool
}

// DecodeIndexEntry unpacks a raw table word: bit 31 is the compressed flag,
// bits 0-30 shifted left by alignment are the byte offset.
func DecodeIndexEntry(raw uint32, alignment uint8) IndexEntry {
	return IndexEntry{
		Offset:     uint64(raw&entryOffsetMask) << alignment,
		Compressed: raw&entryCompressedBit != 0,
	}
}

// Index is the parsed header and sector table of one slice. Entries holds
// SectorCount+1 values; the last one is a sentinel marking the end of the
// final sector's bytes.
type Index struct {
	Header      Header
	Entries     []IndexEntry
	SectorCount uint32
}

// Span returns the entry for local sector i and the number of stored bytes
// between it and its successor.
func (idx *Index) Span(i uint32) (IndexEntry, uint64, error) {
	if uint64(i)+1 >= uint64(len(idx.Entries)) {
		return IndexEntry{}, 0, fmt.Errorf("%w: sector %d of %d", ErrBoundsCheck, i, idx.SectorCount)
	}
	entry := idx.Entries[i]
	next := idx.Entries[i+1].Offset
	if next < entry.Offset {
		return IndexEntry{}, 0, fmt.Errorf("%w: %w: sector %d at %#x, successor at %#x",
			ErrInvalidIndex, ErrCorruptEntry, i, entry.Offset, next)
	}
	return entry, next - entry.Offset, nil
}

// LoadIndex reads and validates the header of a slice, then reads its index
// table. No checksum is computed.
func LoadIndex(r io.ReaderAt) (*Index, error) {
	buf := make([]byte, HeaderSize)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header, err := DecodeHeader(buf[:n])
	if err != nil {
		return nil, err
	}

	sectors := header.SectorCount()
	if sectors >= math.MaxUint32 {
		return nil, fmt.Errorf("%w: %w (%d sectors)", ErrInvalidIndex, ErrTooManySectors, sectors)
	}
	if header.IndexOffset > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %w: index offset %#x", ErrInvalidIndex, ErrTruncated, header.IndexOffset)
	}

	entries, err := readEntries(r, int64(header.IndexOffset), sectors+1, header.IndexAlignment)
	if err != nil {
		return nil, err
	}

	return &Index{
		Header:      header,
		Entries:     entries,
		SectorCount: uint32(sectors),
	}, nil
}

func readEntries(r io.ReaderAt, off int64, count uint64, alignment uint8) ([]IndexEntry, error) {
	section := io.NewSectionReader(r, off, int64(count)*entryWidth)
	br := bufio.NewReaderSize(section, 64*1024)

	entries := make([]IndexEntry, 0, min(count, maxPrealloc))
	var word [entryWidth]byte
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, word[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: %w: entry %d of %d at offset %#x", ErrInvalidIndex, ErrTruncated, i, count, off)
			}
			return nil, fmt.Errorf("read index entry %d: %w", i, err)
		}
		entries = append(entries, DecodeIndexEntry(binary.LittleEndian.Uint32(word[:]), alignment))
	}
	return entries, nil
}
