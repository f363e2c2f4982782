// Package format defines the on-disk layout of CCI disc-image slices: the
// fixed 32-byte header and the sector offset table that follows it.
package format

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic identifies CCI slice files ("CCIM" little-endian).
	Magic uint32 = 0x4D494343
	// HeaderSize is the only accepted value of the header size field.
	HeaderSize = 32
	// BlockSize is the decoded sector size in bytes.
	BlockSize = 2048
	// Version is the only supported format version.
	Version = 1
	// IndexAlignment is the shift applied to stored index offsets.
	IndexAlignment = 2
)

// Field offsets within the header.
const (
	offMagic            = 0
	offHeaderSize       = 4
	offUncompressedSize = 8
	offIndexOffset      = 16
	offBlockSize        = 24
	offVersion          = 28
	offIndexAlignment   = 29
	offReserved         = 30
)

// Header is the fixed record at the start of every slice file.
type Header struct {
	Magic            uint32
	HeaderSize       uint32
	UncompressedSize uint64 // Decoded bytes held by this slice.
	IndexOffset      uint64 // Byte offset of the index table.
	BlockSize        uint32
	Version          uint8
	IndexAlignment   uint8
	Reserved         uint16
}

// SectorCount returns the number of whole sectors described by the header.
func (h Header) SectorCount() uint64 {
	if h.BlockSize == 0 {
		return 0
	}
	return h.UncompressedSize / uint64(h.BlockSize)
}

// DecodeHeader parses and validates a header. Fields are checked in on-disk
// order, so a short buffer is only reported once every field before the
// missing one has passed validation.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header

	if err := need(buf, offHeaderSize, "magic"); err != nil {
		return h, err
	}
	h.Magic = binary.LittleEndian.Uint32(buf[offMagic:offHeaderSize])
	if h.Magic != Magic {
		return h, fmt.Errorf("%w: %w (got %#08x)", ErrInvalidHeader, ErrBadMagic, h.Magic)
	}

	if err := need(buf, offUncompressedSize, "header size"); err != nil {
		return h, err
	}
	h.HeaderSize = binary.LittleEndian.Uint32(buf[offHeaderSize:offUncompressedSize])
	if h.HeaderSize != HeaderSize {
		return h, fmt.Errorf("%w: %w (got %d)", ErrInvalidHeader, ErrBadHeaderSize, h.HeaderSize)
	}

	if err := need(buf, offBlockSize, "sizes"); err != nil {
		return h, err
	}
	h.UncompressedSize = binary.LittleEndian.Uint64(buf[offUncompressedSize:offIndexOffset])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[offIndexOffset:offBlockSize])

	if err := need(buf, offVersion, "block size"); err != nil {
		return h, err
	}
	h.BlockSize = binary.LittleEndian.Uint32(buf[offBlockSize:offVersion])
	if h.BlockSize != BlockSize {
		return h, fmt.Errorf("%w: %w (got %d)", ErrInvalidHeader, ErrBadBlockSize, h.BlockSize)
	}

	if err := need(buf, offIndexAlignment, "version"); err != nil {
		return h, err
	}
	h.Version = buf[offVersion]
	if h.Version != Version {
		return h, fmt.Errorf("%w: %w (got %d)", ErrInvalidHeader, ErrBadVersion, h.Version)
	}

	if err := need(buf, offReserved, "index alignment"); err != nil {
		return h, err
	}
	h.IndexAlignment = buf[offIndexAlignment]
	if h.IndexAlignment != IndexAlignment {
		return h, fmt.Errorf("%w: %w (got %d)", ErrInvalidHeader, ErrBadAlignment, h.IndexAlignment)
	}

	// reserved is ignored, and tolerated if missing
	if len(buf) >= HeaderSize {
		h.Reserved = binary.LittleEndian.Uint16(buf[offReserved:HeaderSize])
	}

	return h, nil
}

func need(buf []byte, end int, field string) error {
	if len(buf) < end {
		return fmt.Errorf("%w: %w reading %s (have %d of %d bytes)", ErrInvalidHeader, ErrTruncated, field, len(buf), end)
	}
	return nil
}
