package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chembl/compound-target-pairs-dataset/internal/util"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// ResultPrefix is the key prefix below which the files of a run are stored.
const ResultPrefix = "cti"

// Bucket returns the configured bucket name.
func Bucket() string {
	return util.GetEnvString("AWS_BUCKET", "chembl-cti")
}

func NewS3Client(ctx context.Context) (*s3.Client, error) {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// ObjectPutter is the upload part of the S3 client.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func PutFile(ctx context.Context, client ObjectPutter, bucket, key string, file io.ReadSeeker) error {
	mimeType := mime.TypeByExtension(path.Ext(key))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

// RunKey is the object key of a result file of runID.
func RunKey(runID, file string) string {
	return path.Join(ResultPrefix, runID, filepath.Base(file))
}

// UploadFiles stores local files under cti/<runID>/ and returns their keys
// in the order given.
func UploadFiles(ctx context.Context, client ObjectPutter, bucket, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, p := range files {
		key := RunKey(runID, p)
		err := func() error {
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()
			return PutFile(ctx, client, bucket, key, f)
		}()
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
		logger.Debug("[Storage] Uploaded file", "key", key)
	}
	return keys, nil
}
