package format

import (
	"encoding/binary"
	"errors"
	"testing"
)

type testHeader struct {
	Magic            uint32
	HeaderSize       uint32
	UncompressedSize uint64
	IndexOffset      uint64
	BlockSize        uint32
	Version          uint8
	IndexAlignment   uint8
}

func validTestHeader() testHeader {
	return testHeader{
		Magic:            Magic,
		HeaderSize:       HeaderSize,
		UncompressedSize: 3 * BlockSize,
		IndexOffset:      HeaderSize,
		BlockSize:        BlockSize,
		Version:          Version,
		IndexAlignment:   IndexAlignment,
	}
}

func encodeTestHeader(h testHeader) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderSize)
	binary.LittleEndian.PutUint64(buf[8:16], h.UncompressedSize)
	binary.LittleEndian.PutUint64(buf[16:24], h.IndexOffset)
	binary.LittleEndian.PutUint32(buf[24:28], h.BlockSize)
	buf[28] = h.Version
	buf[29] = h.IndexAlignment
	return buf
}

func TestDecodeHeaderValid(t *testing.T) {
	h, err := DecodeHeader(encodeTestHeader(validTestHeader()))
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if h.Magic != Magic {
		t.Errorf("Magic = %#x, want %#x", h.Magic, Magic)
	}
	if h.UncompressedSize != 3*BlockSize {
		t.Errorf("UncompressedSize = %d, want %d", h.UncompressedSize, 3*BlockSize)
	}
	if h.IndexOffset != HeaderSize {
		t.Errorf("IndexOffset = %d, want %d", h.IndexOffset, HeaderSize)
	}
	if got := h.SectorCount(); got != 3 {
		t.Errorf("SectorCount() = %d, want 3", got)
	}
}

func TestDecodeHeaderFieldMutations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testHeader)
		want   error
	}{
		{"magic", func(h *testHeader) { h.Magic = 0x4F534943 }, ErrBadMagic},
		{"header size", func(h *testHeader) { h.HeaderSize = 24 }, ErrBadHeaderSize},
		{"block size", func(h *testHeader) { h.BlockSize = 4096 }, ErrBadBlockSize},
		{"version", func(h *testHeader) { h.Version = 2 }, ErrBadVersion},
		{"alignment", func(h *testHeader) { h.IndexAlignment = 0 }, ErrBadAlignment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validTestHeader()
			tt.mutate(&h)
			_, err := DecodeHeader(encodeTestHeader(h))
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeHeader() = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("error %v should also match ErrInvalidHeader", err)
			}
		})
	}
}

func TestDecodeHeaderUncheckedFields(t *testing.T) {
	// sizes and reserved bytes are read but never validated
	h := validTestHeader()
	h.UncompressedSize = 12345
	h.IndexOffset = 0xFFFF
	buf := encodeTestHeader(h)
	buf[30], buf[31] = 0xAA, 0xBB

	got, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if got.Reserved != 0xBBAA {
		t.Errorf("Reserved = %#x, want 0xbbaa", got.Reserved)
	}
	if got.SectorCount() != 6 {
		t.Errorf("SectorCount() = %d, want 6", got.SectorCount())
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	full := encodeTestHeader(validTestHeader())
	for _, n := range []int{0, 3, 4, 7, 20, 27, 29} {
		_, err := DecodeHeader(full[:n])
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("DecodeHeader(%d bytes) = %v, want ErrTruncated", n, err)
		}
	}
	if _, err := DecodeHeader(full[:30]); err != nil {
		t.Errorf("DecodeHeader(30 bytes) = %v, want nil (reserved is optional)", err)
	}
}

func TestDecodeHeaderValidatesBeforeTruncation(t *testing.T) {
	h := validTestHeader()
	h.Magic = 0
	_, err := DecodeHeader(encodeTestHeader(h)[:6])
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("DecodeHeader(bad magic, 6 bytes) = %v, want ErrBadMagic", err)
	}
}
