package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignTTL = 24 * time.Hour

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinio creates the store and ensures the bucket exists.
func NewMinio(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &MinioStore{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	log.Printf("minio store initialized, bucket %q", cfg.Bucket)
	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("created bucket %q", s.bucket)
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ref := uuid.NewString() + extensionFor(contentType)
	_, err := s.client.PutObject(ctx, s.bucket, ref, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return ref, nil
}

func (s *MinioStore) Download(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s *MinioStore) PresignUpload(ctx context.Context, contentType string) (string, string, error) {
	ref := uuid.NewString() + extensionFor(contentType)
	u, err := s.client.PresignedPutObject(ctx, s.bucket, ref, presignTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return ref, u.String(), nil
}

func (s *MinioStore) Resolve(ctx context.Context, ref string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		// generation outputs are PLY point clouds
		return ".ply"
	}
}
