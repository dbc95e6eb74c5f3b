// Package loader reads input files such as precomputed descriptor tables
// from the local filesystem or object storage.
package loader

import (
	"context"
	"strings"
)

// FileLoader returns the raw content of the file at path.
type FileLoader interface {
	GetFile(ctx context.Context, path string) ([]byte, error)
}

// S3Scheme prefixes paths that are read from the configured bucket.
const S3Scheme = "s3://"

// IsS3Path reports whether path points into object storage.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, S3Scheme)
}

// SplitS3Path returns bucket and key of an "s3://bucket/key" path.
func SplitS3Path(path string) (bucket, key string) {
	rest := strings.TrimPrefix(path, S3Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	return bucket, key
}

// CacheKey identifies a file in the loader caches.
func CacheKey(path string) string {
	return strings.TrimSpace(path)
}
