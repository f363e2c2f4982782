// Package ccitest builds CCI slice images and raw LZ4 streams for tests.
package ccitest

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/eunmann/cci-extract/pkg/format"
)

// Sequence is one token-led record of an LZ4 stream. A zero Match ends the
// stream after the literals.
type Sequence struct {
	Literals []byte
	Delta    uint16
	Match    int
}

// Encode serializes sequences, using length extension bytes where needed.
func Encode(seqs ...Sequence) []byte {
	var out []byte
	for _, s := range seqs {
		lit := len(s.Literals)
		ml := 0
		if s.Match > 0 {
			ml = s.Match - 4
		}

		token := byte(min(lit, 15))<<4 | byte(min(ml, 15))
		out = append(out, token)
		if lit >= 15 {
			out = appendLength(out, lit-15)
		}
		out = append(out, s.Literals...)
		if s.Match == 0 {
			continue
		}
		out = binary.LittleEndian.AppendUint16(out, s.Delta)
		if ml >= 15 {
			out = appendLength(out, ml-15)
		}
	}
	return out
}

func appendLength(out []byte, n int) []byte {
	for n >= 255 {
		out = append(out, 255)
		n -= 255
	}
	return append(out, byte(n))
}

// Block is one stored sector. Raw blocks are written verbatim with the
// compressed flag clear. Otherwise Stream is written behind a padding byte
// and followed by Padding zero bytes.
type Block struct {
	Raw     []byte
	Stream  []byte
	Padding int
}

// StreamBlock wraps an encoded stream, choosing the padding that keeps the
// next block aligned.
func StreamBlock(stream []byte) Block {
	unit := 1 << format.IndexAlignment
	return Block{Stream: stream, Padding: (unit - (1+len(stream))%unit) % unit}
}

// RawBlock stores a decoded sector uncompressed.
func RawBlock(sector []byte) Block {
	return Block{Raw: sector}
}

// Compress stores a sector LZ4-compressed, or raw when compression does not
// shrink it.
func Compress(sector []byte) Block {
	dst := make([]byte, lz4.CompressBlockBound(len(sector)))
	n, err := lz4.CompressBlock(sector, dst, nil)
	if err != nil || n == 0 || n+1 >= len(sector) {
		return RawBlock(sector)
	}
	return StreamBlock(dst[:n])
}

func (b Block) bytes() []byte {
	if b.Raw != nil {
		return b.Raw
	}
	out := make([]byte, 0, 1+len(b.Stream)+b.Padding)
	out = append(out, byte(b.Padding))
	out = append(out, b.Stream...)
	return append(out, make([]byte, b.Padding)...)
}

// Image lays out a slice holding one sector per block.
func Image(blocks ...Block) []byte {
	unit := uint64(1) << format.IndexAlignment
	count := uint64(len(blocks))

	out := make([]byte, format.HeaderSize, format.HeaderSize+4*(count+1))
	binary.LittleEndian.PutUint32(out[0:], format.Magic)
	binary.LittleEndian.PutUint32(out[4:], format.HeaderSize)
	binary.LittleEndian.PutUint64(out[8:], count*format.BlockSize)
	binary.LittleEndian.PutUint64(out[16:], format.HeaderSize)
	binary.LittleEndian.PutUint32(out[24:], format.BlockSize)
	out[28] = format.Version
	out[29] = format.IndexAlignment

	var data []byte
	offset := uint64(format.HeaderSize) + 4*(count+1)
	for i, b := range blocks {
		if offset%unit != 0 {
			panic(fmt.Sprintf("ccitest: block %d misaligned at %d", i, offset))
		}
		raw := uint32(offset >> format.IndexAlignment)
		if b.Raw == nil {
			raw |= 1 << 31
		}
		out = binary.LittleEndian.AppendUint32(out, raw)

		stored := b.bytes()
		data = append(data, stored...)
		offset += uint64(len(stored))
	}
	if offset%unit != 0 {
		panic(fmt.Sprintf("ccitest: image end misaligned at %d", offset))
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(offset>>format.IndexAlignment))

	return append(out, data...)
}

// Sectors compresses each sector and lays them out as one slice.
func Sectors(sectors ...[]byte) []byte {
	blocks := make([]Block, len(sectors))
	for i, s := range sectors {
		blocks[i] = Compress(s)
	}
	return Image(blocks...)
}

// Pattern returns a compressible sector whose content depends on seed.
func Pattern(seed int) []byte {
	out := make([]byte, format.BlockSize)
	for i := range out {
		out[i] = byte((i/16 + seed) % 7 * 31)
	}
	return out
}

// Noise returns an incompressible sector.
func Noise(seed int) []byte {
	out := make([]byte, format.BlockSize)
	x := uint32(seed)*2654435761 + 1
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x)
	}
	return out
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
