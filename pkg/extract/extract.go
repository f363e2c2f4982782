// Package extract dumps every sector of a container, in order, to a writer
// or file, optionally zstd-compressed and hashed.
package extract

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/eunmann/cci-extract/internal/logctx"
	"github.com/eunmann/cci-extract/pkg/fileutil"
	"github.com/eunmann/cci-extract/pkg/format"
	"github.com/eunmann/cci-extract/pkg/logging"
)

// ErrUnknownCompression is returned for a Compression value other than none
// or zstd.
var ErrUnknownCompression = errors.New("unknown output compression")

// Compression selects the output encoding.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// SectorSource is the read side of an open container.
type SectorSource interface {
	TotalSectors() uint32
	ReadSector(sector uint32, buf []byte) error
}

// Options configures an extraction.
type Options struct {
	// Compression of the written image. Empty means none.
	Compression Compression
	// Hash computes a BLAKE3 digest of the decoded image.
	Hash bool
	// ContinueOnError writes a zero-filled sector for every sector that
	// fails to read and keeps going. Otherwise the first failure aborts.
	ContinueOnError bool
	// ProgressEvery is the number of sectors between progress events.
	// Zero disables progress logging.
	ProgressEvery uint32
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		Compression:   CompressionNone,
		ProgressEvery: 16384,
	}
}

// Result summarizes an extraction.
type Result struct {
	Sectors       uint32
	FailedSectors []uint32
	// Bytes is the decoded image size.
	Bytes int64
	// Written is the number of bytes handed to the destination, after
	// compression.
	Written int64
	// Digest is the hex BLAKE3 digest of the decoded image when hashing.
	Digest   string
	Duration time.Duration
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Extract reads sectors 0 through TotalSectors-1 and writes them to w. The
// context is checked between sectors.
func Extract(ctx context.Context, src SectorSource, w io.Writer, opts Options) (*Result, error) {
	log := logctx.FromContext(ctx)
	start := time.Now()

	counted := &countingWriter{w: w}
	var out io.Writer = counted

	var enc *zstd.Encoder
	switch opts.Compression {
	case "", CompressionNone:
	case CompressionZstd:
		var err error
		enc, err = zstd.NewWriter(counted, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		out = enc
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, opts.Compression)
	}

	var hasher *blake3.Hasher
	if opts.Hash {
		hasher = blake3.New()
		out = io.MultiWriter(out, hasher)
	}

	total := src.TotalSectors()
	res := &Result{Sectors: total}
	tracker := logging.NewProgressTracker("extract", int64(total), log)
	buf := make([]byte, format.BlockSize)
	batchStart := time.Now()
	var batch int64

	for sector := range total {
		if err := ctx.Err(); err != nil {
			closeEncoder(enc)
			return res, fmt.Errorf("extract stopped at sector %d: %w", sector, err)
		}

		if err := src.ReadSector(sector, buf); err != nil {
			if !opts.ContinueOnError {
				closeEncoder(enc)
				return res, fmt.Errorf("read sector %d: %w", sector, err)
			}
			log.Warn().Err(err).Uint32("sector", sector).Msg("sector unreadable, writing zeros")
			clear(buf)
			res.FailedSectors = append(res.FailedSectors, sector)
			tracker.RecordFailed(1)
		} else {
			batch++
		}

		if _, err := out.Write(buf); err != nil {
			closeEncoder(enc)
			return res, fmt.Errorf("write sector %d: %w", sector, err)
		}
		res.Bytes += format.BlockSize

		if opts.ProgressEvery > 0 && (sector+1)%opts.ProgressEvery == 0 {
			tracker.Record(batch, time.Since(batchStart))
			tracker.Report("extracting")
			batch, batchStart = 0, time.Now()
		}
	}
	tracker.Record(batch, time.Since(batchStart))

	if enc != nil {
		if err := enc.Close(); err != nil {
			return res, fmt.Errorf("finish zstd stream: %w", err)
		}
	}
	if hasher != nil {
		res.Digest = hex.EncodeToString(hasher.Sum(nil))
	}
	res.Written = counted.n
	res.Duration = time.Since(start)

	logging.PhaseComplete(log, "extract", res.Duration).
		Count("sectors", int64(total)).
		Int("failed_sectors", len(res.FailedSectors)).
		Bytes("bytes", res.Bytes).
		Bytes("written", res.Written).
		Throughput(res.Bytes).
		Log("extraction complete")

	return res, nil
}

func closeEncoder(enc *zstd.Encoder) {
	if enc != nil {
		_ = enc.Close()
	}
}

// ExtractFile extracts into outPath through a temporary file in tmpDir, so a
// failed run never leaves a partial image at outPath. An empty tmpDir uses
// the output directory.
func ExtractFile(ctx context.Context, src SectorSource, outPath, tmpDir string, opts Options) (*Result, error) {
	var res *Result
	err := fileutil.WriteAtomic(tmpDir, outPath, func(f *os.File) error {
		bw := bufio.NewWriterSize(f, 1<<20)
		var err error
		res, err = Extract(ctx, src, bw, opts)
		if err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	logging.FileCreated(logctx.FromContext(ctx), "extract", res.Duration).
		Str("path", outPath).
		Bytes("bytes", res.Written).
		Log("image written")

	return res, nil
}
