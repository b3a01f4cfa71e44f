package s3storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharanvel/certvault/internal/config"
)

// Storage wraps MinIO/S3 interactions for certificate files and generated QR
// artifacts.
type Storage struct {
	client     *minio.Client
	certBucket string
	qrBucket   string
	region     string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client:     client,
		certBucket: cfg.CertificateBucket,
		qrBucket:   cfg.QRBucket,
		region:     cfg.S3Region,
	}, nil
}

// EnsureBuckets makes sure the certificate/QR buckets exist before use.
func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.certBucket, s.qrBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
				return fmt.Errorf("make bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// UploadCertificate stores the raw uploaded document.
func (s *Storage) UploadCertificate(ctx context.Context, objectKey string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.certBucket, objectKey, reader, int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("upload certificate object: %w", err)
	}
	return nil
}

// DownloadCertificate fetches the raw document bytes, used by the indexer.
func (s *Storage) DownloadCertificate(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.certBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get certificate object: %w", err)
	}
	defer obj.Close()
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read certificate object: %w", err)
	}
	return buf, nil
}

// UploadQRCode stores a generated QR PNG.
func (s *Storage) UploadQRCode(ctx context.Context, objectKey string, png []byte) error {
	opts := minio.PutObjectOptions{ContentType: "image/png"}
	_, err := s.client.PutObject(ctx, s.qrBucket, objectKey, bytes.NewReader(png), int64(len(png)), opts)
	if err != nil {
		return fmt.Errorf("upload qr object: %w", err)
	}
	return nil
}

// PresignQRCodeURL returns a signed GET URL for a stored QR image.
func (s *Storage) PresignQRCodeURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.qrBucket, objectKey, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign qr object: %w", err)
	}
	return u.String(), nil
}
