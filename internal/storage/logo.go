// Package storage keeps establishment logos in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/diewo77/go-repairs/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MaxLogoSize is the largest accepted upload.
const MaxLogoSize = 2 << 20

var (
	ErrTooLarge        = errors.New("logo exceeds the size limit")
	ErrUnsupportedType = errors.New("logo must be a PNG, JPEG, WEBP or GIF image")
	ErrEmpty           = errors.New("logo is empty")
)

var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DetectLogoType sniffs data and returns its content type and file extension.
// The declared file name is ignored; only the bytes count.
func DetectLogoType(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmpty
	}
	if len(data) > MaxLogoSize {
		return "", "", ErrTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := logoExtensions[ct]
	if !ok {
		return "", "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, ct)
	}
	return ct, ext, nil
}

// LogoStore persists logo images and returns their public URL.
type LogoStore interface {
	Upload(ctx context.Context, establishmentID uint, data []byte) (string, error)
}

// MinIOStore is a LogoStore backed by MinIO.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       *zap.Logger
}

// NewMinIOStore connects to the configured endpoint and makes sure the bucket
// exists and is publicly readable, since logos are shown on the public tracking page.
func NewMinIOStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		if err := client.SetBucketPolicy(ctx, cfg.Bucket, publicReadPolicy(cfg.Bucket)); err != nil {
			return nil, fmt.Errorf("set bucket policy: %w", err)
		}
		log.Info("bucket created", zap.String("bucket", cfg.Bucket))
	}
	return &MinIOStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
		log:       log,
	}, nil
}

// Upload validates data and stores it under a fresh name.
func (s *MinIOStore) Upload(ctx context.Context, establishmentID uint, data []byte) (string, error) {
	contentType, ext, err := DetectLogoType(data)
	if err != nil {
		return "", err
	}
	name := ObjectName(establishmentID, ext)
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}
	s.log.Info("logo uploaded", zap.String("object", name), zap.Int("bytes", len(data)))
	return s.URL(name), nil
}

// URL is the public address of object name.
func (s *MinIOStore) URL(name string) string {
	return s.publicURL + "/" + name
}

// ObjectName is "<establishment>/<uuid><ext>".
func ObjectName(establishmentID uint, ext string) string {
	return fmt.Sprintf("%d/%s%s", establishmentID, uuid.NewString(), ext)
}

func publicBase(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: cfg.Endpoint, Path: path.Join("/", cfg.Bucket)}
	return u.String()
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
