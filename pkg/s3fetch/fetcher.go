package s3fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/eunmann/cci-extract/internal/logctx"
	"github.com/eunmann/cci-extract/pkg/logging"
)

// FetchConfig configures a container fetch.
type FetchConfig struct {
	// URI is the s3:// URI of the container or of any one of its slices.
	URI string
	// DownloadDir receives the slices under their original base names.
	DownloadDir string
	// Concurrency is the number of slices downloaded at once (default: 4).
	Concurrency int
	// KeepFiles leaves DownloadDir in place on Cleanup.
	KeepFiles bool
}

// FetchResult lists the downloaded slices in sector order.
type FetchResult struct {
	Bucket     string
	Keys       []string
	LocalFiles []string
	Bytes      int64
}

// Fetcher downloads every slice of a container.
type Fetcher struct {
	client *Client
	cfg    FetchConfig
}

// NewFetcher creates a fetcher.
func NewFetcher(client *Client, cfg FetchConfig) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Fetcher{client: client, cfg: cfg}
}

// Fetch resolves the container's slice keys and downloads them concurrently.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	bucket, key, err := ParseS3URI(f.cfg.URI)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: missing object key", ErrInvalidURI)
	}

	keys, err := f.client.ListSlices(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	log := logctx.FromContext(ctx)
	localFiles := make([]string, len(keys))
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for i, k := range keys {
		g.Go(func() error {
			localPath := filepath.Join(f.cfg.DownloadDir, sanitizeFilename(k))
			res, err := f.client.DownloadFile(gctx, bucket, k, localPath)
			if err != nil {
				return err
			}
			total.Add(res.BytesDownloaded)
			localFiles[i] = localPath

			logging.SliceFetched(log, "fetch", res.Duration).
				Str("key", k).
				Bytes("bytes", res.BytesDownloaded).
				Throughput(res.BytesDownloaded).
				LogDebug("slice downloaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("download slices: %w", err)
	}

	return &FetchResult{
		Bucket:     bucket,
		Keys:       keys,
		LocalFiles: localFiles,
		Bytes:      total.Load(),
	}, nil
}

// Cleanup removes the download directory unless KeepFiles is set.
func (f *Fetcher) Cleanup() error {
	if f.cfg.KeepFiles {
		return nil
	}
	return os.RemoveAll(f.cfg.DownloadDir)
}

// sanitizeFilename reduces an S3 key to its final path component.
func sanitizeFilename(key string) string {
	return filepath.Base(key)
}
