package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "github.com/mosaicpm/mosaic/backend/config"
)

// FileInfo describes an object after a successful upload.
type FileInfo struct {
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// StorageService stores and removes user-uploaded media such as avatars.
type StorageService interface {
	// UploadFile stores the file under the owner's prefix and returns its
	// public URL and metadata.
	UploadFile(ctx context.Context, file io.Reader, filename, contentType string, size int64, userID uuid.UUID) (*FileInfo, error)

	// DeleteFile removes a previously uploaded object given its public URL.
	DeleteFile(ctx context.Context, fileURL string) error
}

// R2StorageService keeps media in a Cloudflare R2 bucket through the
// S3-compatible API.
type R2StorageService struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewR2StorageService builds an S3 client pointed at the configured R2
// endpoint with static credentials.
func NewR2StorageService(cfg *appconfig.Config) (*R2StorageService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: cfg.MediaStorageEndpoint}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.MediaStorageRegion),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.MediaStorageKey,
			cfg.MediaStorageSecret,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage credentials: %w", err)
	}

	base := cfg.MediaStorageEndpoint
	if !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return &R2StorageService{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.MediaStorageBucket,
		baseURL: base + "/" + cfg.MediaStorageBucket,
	}, nil
}

// UploadFile implements StorageService.
func (s *R2StorageService) UploadFile(ctx context.Context, file io.Reader, filename, contentType string, size int64, userID uuid.UUID) (*FileInfo, error) {
	// Keyed by owner so a user's objects share a prefix. A random suffix
	// keeps repeated uploads of the same filename from colliding.
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("%s/%s-%s%s", userID, userID, uuid.New(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}

	return &FileInfo{
		URL:        s.baseURL + "/" + key,
		Filename:   filename,
		Size:       size,
		MimeType:   contentType,
		UploadedAt: time.Now(),
	}, nil
}

// DeleteFile implements StorageService.
func (s *R2StorageService) DeleteFile(ctx context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, s.baseURL) {
		return fmt.Errorf("file URL %q is not in bucket %q", fileURL, s.bucket)
	}
	key := strings.TrimPrefix(fileURL, s.baseURL+"/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// NewStorageService returns the storage backend selected by configuration.
// R2 is currently the only backend.
func NewStorageService(cfg *appconfig.Config) (StorageService, error) {
	svc, err := NewR2StorageService(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
