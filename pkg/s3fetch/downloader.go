package s3fetch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DownloaderConfig configures the S3 download manager.
type DownloaderConfig struct {
	// Concurrency is the number of concurrent range requests per object.
	// Default: NumCPU clamped to [4, 16].
	Concurrency int

	// PartSize is the size of each range request in bytes. Default: 16MB.
	PartSize int64
}

// DefaultDownloaderConfig returns defaults based on the current machine.
func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		Concurrency: min(max(runtime.NumCPU(), 4), 16),
		PartSize:    16 * 1024 * 1024,
	}
}

// Downloader wraps the AWS S3 download manager.
type Downloader struct {
	manager *manager.Downloader
	config  DownloaderConfig
}

// NewDownloader creates a Downloader over api. Zero config fields take
// their defaults.
func NewDownloader(api manager.DownloadAPIClient, cfg DownloaderConfig) *Downloader {
	defaults := DefaultDownloaderConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = defaults.PartSize
	}

	mgr := manager.NewDownloader(api, func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
	})

	return &Downloader{manager: mgr, config: cfg}
}

// DownloadResult describes a completed download.
type DownloadResult struct {
	BytesDownloaded int64
	Duration        time.Duration
}

// DownloadToFile downloads an object to destPath. A failed download removes
// the partial file.
func (d *Downloader) DownloadToFile(ctx context.Context, bucket, key, destPath string) (*DownloadResult, error) {
	startTime := time.Now()

	file, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}

	n, err := d.manager.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := file.Close()
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("close %s: %w", destPath, closeErr)
	}

	return &DownloadResult{
		BytesDownloaded: n,
		Duration:        time.Since(startTime),
	}, nil
}
