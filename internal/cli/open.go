package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eunmann/cci-extract/internal/logctx"
	"github.com/eunmann/cci-extract/pkg/cci"
	"github.com/eunmann/cci-extract/pkg/logging"
	"github.com/eunmann/cci-extract/pkg/s3fetch"
)

// newS3Client is replaced in tests.
var newS3Client = func(ctx context.Context) (*s3fetch.Client, error) {
	return s3fetch.NewClient(ctx, s3fetch.DefaultDownloaderConfig())
}

// openContainer opens a local container, or downloads an s3:// container
// into the temporary directory first. The returned cleanup closes the
// decoder and removes any downloaded slices.
func openContainer(ctx context.Context, path string, g globals) (*cci.Decoder, func(), error) {
	log := logctx.FromContext(ctx)
	opts := []cci.Option{cci.WithLogger(log), cci.WithMmap(g.mmap)}

	if !s3fetch.IsS3URI(path) {
		d, err := cci.Open(path, opts...)
		if err != nil {
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil
	}

	client, err := newS3Client(ctx)
	if err != nil {
		return nil, nil, err
	}
	dir, err := scratchDir(g.tmp)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	fetcher := s3fetch.NewFetcher(client, s3fetch.FetchConfig{URI: path, DownloadDir: dir})
	res, err := fetcher.Fetch(ctx)
	if err != nil {
		_ = fetcher.Cleanup()
		return nil, nil, err
	}
	logging.PhaseComplete(log, "fetch", time.Since(start)).
		Int("slices", len(res.LocalFiles)).
		Bytes("bytes", res.Bytes).
		Throughput(res.Bytes).
		Log("container downloaded")

	opts = append(opts, cci.WithSlices(res.LocalFiles...))
	d, err := cci.Open(path, opts...)
	if err != nil {
		_ = fetcher.Cleanup()
		return nil, nil, err
	}
	return d, func() {
		_ = d.Close()
		if err := fetcher.Cleanup(); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("remove downloaded slices")
		}
	}, nil
}

// scratchDir creates a directory owned by this run under base, or under the
// system temp dir when base is empty. Only that directory is ever removed;
// other files in base are left alone.
func scratchDir(base string) (string, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", fmt.Errorf("create tmp dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(base, "cci-extract-*")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}
