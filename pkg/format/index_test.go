package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecodeIndexEntry(t *testing.T) {
	tests := []struct {
		raw        uint32
		offset     uint64
		compressed bool
	}{
		{0x80000010, 0x40, true},
		{0x00000010, 0x40, false},
		{0x00000000, 0, false},
		{0xFFFFFFFF, 0x1FFFFFFFC, true},
	}

	for _, tt := range tests {
		got := DecodeIndexEntry(tt.raw, IndexAlignment)
		if got.Offset != tt.offset || got.Compressed != tt.compressed {
			t.Errorf("DecodeIndexEntry(%#x) = %+v, want {Offset:%#x Compressed:%v}", tt.raw, got, tt.offset, tt.compressed)
		}
	}
}

// buildSlice returns a header followed by a table of raw entry words.
func buildSlice(sectors uint64, words []uint32) []byte {
	h := validTestHeader()
	h.UncompressedSize = sectors * BlockSize
	h.IndexOffset = HeaderSize
	buf := encodeTestHeader(h)
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf
}

func TestLoadIndex(t *testing.T) {
	// two sectors: one stored raw, one compressed, plus the sentinel
	words := []uint32{
		0x40 >> IndexAlignment,
		(0x40 + BlockSize) >> IndexAlignment,
		0x80000000 | (0x40+BlockSize+0x100)>>IndexAlignment,
	}
	idx, err := LoadIndex(bytes.NewReader(buildSlice(2, words)))
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}

	if idx.SectorCount != 2 {
		t.Fatalf("SectorCount = %d, want 2", idx.SectorCount)
	}
	if len(idx.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(idx.Entries))
	}

	entry, size, err := idx.Span(0)
	if err != nil {
		t.Fatalf("Span(0) failed: %v", err)
	}
	if entry.Offset != 0x40 || entry.Compressed || size != BlockSize {
		t.Errorf("Span(0) = %+v size %d, want offset 0x40 raw size %d", entry, size, BlockSize)
	}

	entry, size, err = idx.Span(1)
	if err != nil {
		t.Fatalf("Span(1) failed: %v", err)
	}
	if entry.Offset != 0x40+BlockSize || entry.Compressed || size != 0x100 {
		t.Errorf("Span(1) = %+v size %d, want offset %#x size 0x100", entry, size, 0x40+BlockSize)
	}

	if _, _, err := idx.Span(2); !errors.Is(err, ErrBoundsCheck) {
		t.Errorf("Span(2) = %v, want ErrBoundsCheck", err)
	}
}

func TestLoadIndexEmptySlice(t *testing.T) {
	idx, err := LoadIndex(bytes.NewReader(buildSlice(0, []uint32{0x10})))
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if idx.SectorCount != 0 || len(idx.Entries) != 1 {
		t.Errorf("got %d sectors, %d entries; want 0 and 1", idx.SectorCount, len(idx.Entries))
	}
}

func TestLoadIndexTruncatedTable(t *testing.T) {
	// three sectors need four entries
	_, err := LoadIndex(bytes.NewReader(buildSlice(3, []uint32{1, 2, 3})))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("LoadIndex = %v, want ErrTruncated", err)
	}
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("error %v should match ErrInvalidIndex", err)
	}
}

func TestLoadIndexTruncatedHeader(t *testing.T) {
	_, err := LoadIndex(bytes.NewReader(buildSlice(1, nil)[:12]))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("LoadIndex = %v, want ErrTruncated", err)
	}
}

func TestLoadIndexBadHeader(t *testing.T) {
	buf := buildSlice(1, []uint32{8, 520})
	buf[28] = 7 // version
	_, err := LoadIndex(bytes.NewReader(buf))
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("LoadIndex = %v, want ErrBadVersion", err)
	}
}

func TestLoadIndexTooManySectors(t *testing.T) {
	h := validTestHeader()
	h.UncompressedSize = (1 << 32) * BlockSize
	_, err := LoadIndex(bytes.NewReader(encodeTestHeader(h)))
	if !errors.Is(err, ErrTooManySectors) {
		t.Fatalf("LoadIndex = %v, want ErrTooManySectors", err)
	}
}

func TestSpanCorruptEntry(t *testing.T) {
	idx := &Index{
		Entries:     []IndexEntry{{Offset: 0x800}, {Offset: 0x400}},
		SectorCount: 1,
	}
	if _, _, err := idx.Span(0); !errors.Is(err, ErrCorruptEntry) {
		t.Errorf("Span(0) = %v, want ErrCorruptEntry", err)
	}
}
