package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/chembl/compound-target-pairs-dataset/pkg/loader"
)

// ObjectGetter is the part of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3FileLoader loads file contents from an S3 bucket. Paths are either plain
// keys in the default bucket or "s3://bucket/key".
type S3FileLoader struct {
	bucket string
	client ObjectGetter

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3FileLoader creates a loader on an existing client.
func NewS3FileLoader(bucket string, client ObjectGetter) *S3FileLoader {
	return &S3FileLoader{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

func (l *S3FileLoader) locate(path string) (string, string) {
	if loader.IsS3Path(path) {
		return loader.SplitS3Path(path)
	}
	return l.bucket, path
}

// GetFile retrieves the object at path. Results are cached.
func (l *S3FileLoader) GetFile(ctx context.Context, path string) ([]byte, error) {
	cacheKey := loader.CacheKey(path)

	l.cacheMu.RLock()
	if cached, ok := l.cache[cacheKey]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(cacheKey, func() (any, error) {
		bucket, key := l.locate(cacheKey)
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid S3 location %q", path)
		}

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get %s from S3: %w", path, err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		byts := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[cacheKey] = byts
		l.cacheMu.Unlock()

		return byts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
