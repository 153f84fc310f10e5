// Package archive keeps a copy of every imported source file in S3-compatible
// object storage (AWS S3, Cloudflare R2, MinIO).
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/config"
)

// Archive stores imported files by key.
type Archive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Enabled() bool
}

// Noop discards everything. It is used when no bucket is configured.
type Noop struct{}

var _ Archive = Noop{}

func (Noop) Put(context.Context, string, string, []byte) error { return nil }

func (Noop) Get(context.Context, string) ([]byte, error) { return nil, apperrors.ErrNotFound }

func (Noop) Enabled() bool { return false }

// S3Archive stores files in one bucket.
type S3Archive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

var _ Archive = (*S3Archive)(nil)

// New returns an S3Archive when cfg names a bucket, otherwise Noop.
func New(ctx context.Context, cfg *config.ArchiveConfig, logger *zap.Logger) (Archive, error) {
	if !cfg.IsEnabled() {
		return Noop{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		// R2 and MinIO reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	logger.Info("File archive enabled",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint))

	return &S3Archive{client: client, bucket: cfg.Bucket, logger: logger.Named("archive")}, nil
}

// Put uploads data under key.
func (a *S3Archive) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	a.logger.Debug("Archived file", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Get downloads the object at key. A missing object is apperrors.ErrNotFound.
func (a *S3Archive) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Enabled reports true.
func (a *S3Archive) Enabled() bool { return true }

var unsafeKeyChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// ImportKey builds the object key for an imported file:
// imports/YYYY/MM/<uuid>/<sanitized filename>.
func ImportKey(now time.Time, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Trim(unsafeKeyChars.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("imports/%s/%s/%s", now.UTC().Format("2006/01"), uuid.NewString(), base)
}
