package s3fetch

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/eunmann/cci-extract/pkg/fileutil"
)

// API is the part of the S3 client used for listing and downloading slices.
type API interface {
	manager.DownloadAPIClient
	s3.ListObjectsV2APIClient
}

// Client lists and downloads container slices stored in S3.
type Client struct {
	api        API
	downloader *Downloader
}

// NewClient creates a client from the default AWS configuration chain.
func NewClient(ctx context.Context, cfg DownloaderConfig) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewClientWithAPI(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewClientWithAPI creates a client over an existing S3 API implementation.
func NewClientWithAPI(api API, cfg DownloaderConfig) *Client {
	return &Client{
		api:        api,
		downloader: NewDownloader(api, cfg),
	}
}

// ListSlices returns the sorted keys of every slice of the container at key.
// Multi-part names ("game.1.cci") match their siblings under the same prefix
// the way local paths do; any other key is returned alone.
func (c *Client) ListSlices(ctx context.Context, bucket, key string) ([]string, error) {
	dir, base := path.Split(key)
	pattern, multi := fileutil.SlicePattern(base)
	if !multi {
		return []string{key}, nil
	}

	full := dir + pattern
	prefix := full[:strings.IndexByte(full, '?')]

	var keys []string
	pages := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if k := aws.ToString(obj.Key); fileutil.MatchPattern(full, k) {
				keys = append(keys, k)
			}
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: s3://%s/%s", fileutil.ErrNoSlices, bucket, full)
	}

	sort.Strings(keys)
	return keys, nil
}

// DownloadFile downloads one object to destPath.
func (c *Client) DownloadFile(ctx context.Context, bucket, key, destPath string) (*DownloadResult, error) {
	return c.downloader.DownloadToFile(ctx, bucket, key, destPath)
}
