package audio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Config configures S3Store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// Prefix is prepended to every object key, e.g. "clips/".
	Prefix string
	// PublicURL is the base clips are reachable at. Defaults to
	// <scheme>://<endpoint>/<bucket>.
	PublicURL string
}

// S3Store uploads clips to an S3-compatible bucket and returns their
// public URL. Expiry is left to the bucket lifecycle policy.
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
	base   string
	log    *zap.Logger
}

// NewS3Store connects to the endpoint and verifies the bucket exists.
func NewS3Store(ctx context.Context, cfg S3Config, log *zap.Logger) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	base := strings.TrimSuffix(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		base:   base,
		log:    log.Named("audio.s3"),
	}, nil
}

// Save uploads clip and returns its public URL.
func (s *S3Store) Save(ctx context.Context, clip *Clip) (string, error) {
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	clip.CreatedAt = time.Now()
	key := s.prefix + clip.ID + clip.Ext()

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(clip.Data), int64(len(clip.Data)), minio.PutObjectOptions{
		ContentType:  clip.ContentType(),
		UserMetadata: map[string]string{"uploaded-at": clip.CreatedAt.Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	s.log.Debug("clip uploaded",
		zap.String("key", key),
		zap.String("size", humanize.Bytes(uint64(len(clip.Data)))))

	return s.base + "/" + key, nil
}

// Close is a no-op; the minio client holds no persistent resources.
func (s *S3Store) Close() error { return nil }
