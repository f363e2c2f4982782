package s3fetch

import (
	"errors"
	"fmt"
	"strings"
)

const uriScheme = "s3://"

// ErrInvalidURI indicates a malformed s3:// URI.
var ErrInvalidURI = errors.New("invalid S3 URI")

// IsS3URI reports whether path names an S3 object rather than a local file.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, uriScheme)
}

// ParseS3URI splits an S3 URI into bucket and key. The key may be empty.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("%w: must start with %s", ErrInvalidURI, uriScheme)
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, uriScheme), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: missing bucket name", ErrInvalidURI)
	}

	return bucket, key, nil
}
