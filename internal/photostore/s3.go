// Package photostore uploads client photos to S3-compatible object storage
// and hands back public URLs.
package photostore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/m3rciful/clientdesk/internal/config"
	"github.com/m3rciful/clientdesk/internal/logger"
)

// uploadTimeout bounds a single object upload; a timeout is reported as a
// recoverable failure to the caller.
const uploadTimeout = 30 * time.Second

// Uploader stores binary image data and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// S3Store implements Uploader against an S3-compatible endpoint.
type S3Store struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store builds the client from configuration.
func NewS3Store(cfg config.PhotoStoreConfig) (*S3Store, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("photostore: client init: %w", err)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: base,
	}, nil
}

var _ Uploader = (*S3Store)(nil)

// Upload puts the object with public-read semantics and returns its URL.
func (s *S3Store) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	start := time.Now()
	_, err := s.client.PutObject(ctx, s.bucket, filename, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "image/jpeg",
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		logger.S3.Error("upload failed",
			slog.String("event", "s3.upload"),
			slog.String("bucket", s.bucket),
			slog.String("object", filename),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("photostore: upload %s: %w", filename, err)
	}

	logger.S3.Debug("upload complete",
		slog.String("event", "s3.upload"),
		slog.String("bucket", s.bucket),
		slog.String("object", filename),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", logger.Took(start)),
	)
	return s.publicBaseURL + "/" + url.PathEscape(filename), nil
}

// ObjectName derives a unique JPEG object name for an owner id.
func ObjectName(ownerID int64) string {
	return fmt.Sprintf("%d_%s.jpg", ownerID, uuid.NewString())
}
