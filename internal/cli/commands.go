package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/eunmann/cci-extract/internal/logctx"
	"github.com/eunmann/cci-extract/pkg/extract"
	"github.com/eunmann/cci-extract/pkg/fileutil"
	"github.com/eunmann/cci-extract/pkg/humanfmt"
	"github.com/eunmann/cci-extract/pkg/logging"
	"github.com/eunmann/cci-extract/pkg/s3fetch"
	"github.com/eunmann/cci-extract/pkg/sectormap"
)

func commandContext(ctx context.Context, command, container string) context.Context {
	ctx = logctx.WithLogger(ctx, logging.WithCommand(command))
	return logctx.WithStr(ctx, "container", container)
}

func runInfo(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("info", pflag.ContinueOnError)
	g, src, err := parseCommand(fs, args)
	if err != nil {
		return helpOK(err)
	}
	ctx = commandContext(ctx, "info", src)

	d, cleanup, err := openContainer(ctx, src, g)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := sectormap.Collect(d)
	if err != nil {
		return err
	}
	stats := sectormap.Summary(rows)

	fmt.Fprintf(stdout, "container: %s\n", src)
	for i, s := range d.Slices() {
		span := "empty"
		if s.Sectors > 0 {
			span = fmt.Sprintf("sectors %d-%d", s.Start, s.End)
		}
		fmt.Fprintf(stdout, "slice %d: %s (%s, %s)\n", i, s.Path, span, humanfmt.BytesUint64(s.UncompressedSize))
	}
	fmt.Fprintf(stdout, "sectors: %d (%d compressed)\n", stats.Sectors, stats.Compressed)
	fmt.Fprintf(stdout, "decoded size: %s\n", humanfmt.BytesUint64(stats.Decoded))
	fmt.Fprintf(stdout, "stored size: %s (%s)\n", humanfmt.BytesUint64(stats.Stored), humanfmt.Ratio(stats.Stored, stats.Decoded))
	return nil
}

func runExtract(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	out := fs.StringP("out", "o", "", "output image path (default: container name with .iso)")
	useZstd := fs.Bool("zstd", false, "zstd-compress the output image")
	hash := fs.Bool("hash", false, "print the BLAKE3 digest of the decoded image")
	keepGoing := fs.Bool("continue-on-error", false, "zero-fill unreadable sectors instead of failing")
	every := fs.Uint32("progress-every", extract.DefaultOptions().ProgressEvery, "sectors between progress events (0 disables)")

	g, src, err := parseCommand(fs, args)
	if err != nil {
		return helpOK(err)
	}
	ctx = commandContext(ctx, "extract", src)

	opts := extract.DefaultOptions()
	opts.Hash = *hash
	opts.ContinueOnError = *keepGoing
	opts.ProgressEvery = *every
	if *useZstd {
		opts.Compression = extract.CompressionZstd
	}

	outPath := *out
	if outPath == "" {
		outPath = defaultOutput(src, *useZstd)
	}
	d, cleanup, err := openContainer(ctx, src, g)
	if err != nil {
		return err
	}
	defer cleanup()

	// Without --tmp the image is staged next to the output.
	var scratch string
	if g.tmp != "" {
		scratch, err = scratchDir(g.tmp)
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(scratch) }()
	}

	res, err := extract.ExtractFile(ctx, d, outPath, scratch, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %s: %d sectors, %s\n", outPath, res.Sectors, humanfmt.Bytes(res.Written))
	if n := len(res.FailedSectors); n > 0 {
		fmt.Fprintf(stdout, "%d sectors unreadable, zero-filled\n", n)
	}
	if res.Digest != "" {
		fmt.Fprintf(stdout, "blake3 %s\n", res.Digest)
	}
	return nil
}

func runMap(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("map", pflag.ContinueOnError)
	out := fs.StringP("out", "o", "", "output Parquet file (required)")

	g, src, err := parseCommand(fs, args)
	if err != nil {
		return helpOK(err)
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	ctx = commandContext(ctx, "map", src)

	d, cleanup, err := openContainer(ctx, src, g)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	stats, err := sectormap.WriteFile(*out, d)
	if err != nil {
		return err
	}
	logging.FileCreated(logctx.FromContext(ctx), "map", time.Since(start)).
		Str("path", *out).
		Count("sectors", int64(stats.Sectors)).
		Log("sector map written")

	fmt.Fprintf(stdout, "wrote %s: %d sectors\n", *out, stats.Sectors)
	return nil
}

// helpOK turns a -h request into a clean exit.
func helpOK(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

// defaultOutput names the image after the container: "dir/game.1.cci"
// becomes "dir/game.iso". S3 containers are written to the working
// directory.
func defaultOutput(src string, compressed bool) string {
	dir, base := filepath.Split(src)
	if s3fetch.IsS3URI(src) {
		dir, base = "", path.Base(src)
	}

	pattern, multi := fileutil.SlicePattern(base)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if multi {
		name = strings.TrimSuffix(pattern, ".?"+filepath.Ext(base))
	}

	name += ".iso"
	if compressed {
		name += ".zst"
	}
	return filepath.Join(dir, name)
}
