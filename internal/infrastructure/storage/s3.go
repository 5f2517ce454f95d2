// Package storage provides object storage for ledger record attachments.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	infraconfig "github.com/comercio/backend/internal/infrastructure/config"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned when an upload's content type is not
// in the receipt allowlist.
var ErrUnsupportedType = errors.New("unsupported attachment content type")

// allowedTypes maps accepted receipt content types to file extensions.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// AttachmentStore uploads receipt files and returns their public URLs.
type AttachmentStore interface {
	// UploadAttachment stores a receipt for a ledger record and returns
	// the URL to persist on the record.
	UploadAttachment(ctx context.Context, storeID, recordID uuid.UUID, data []byte, contentType string) (string, error)

	// DeleteAttachment removes a previously uploaded object by its URL.
	DeleteAttachment(ctx context.Context, fileURL string) error
}

// S3AttachmentStore implements AttachmentStore against any
// S3-compatible backend (AWS S3, MinIO, etc.).
type S3AttachmentStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3AttachmentStore creates an attachment store from configuration.
func NewS3AttachmentStore(cfg *infraconfig.StorageConfig) (*S3AttachmentStore, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" && endpoint != "" {
		publicURL = endpoint + "/" + cfg.Bucket
	}

	return &S3AttachmentStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

// UploadAttachment stores a receipt under
// stores/<storeID>/ledger/<recordID>/<random><ext>.
func (s *S3AttachmentStore) UploadAttachment(ctx context.Context, storeID, recordID uuid.UUID, data []byte, contentType string) (string, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	if len(data) == 0 {
		return "", errors.New("attachment is empty")
	}

	key := path.Join("stores", storeID.String(), "ledger", recordID.String(), uuid.New().String()+ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return s.publicURL + "/" + key, nil
}

// DeleteAttachment removes an object by its public URL.
func (s *S3AttachmentStore) DeleteAttachment(ctx context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, s.publicURL+"/") {
		return fmt.Errorf("attachment URL %q does not belong to this bucket", fileURL)
	}
	key := strings.TrimPrefix(fileURL, s.publicURL+"/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

var _ AttachmentStore = (*S3AttachmentStore)(nil)
