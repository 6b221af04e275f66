package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/infrastructure/config"
	"github.com/taskdeck/core/internal/ports"
)

// S3Uploader stores task attachments in an S3 bucket. Uploads are
// best-effort from the caller's perspective: the task service logs and
// swallows any error returned here.
type S3Uploader struct {
	client *s3.Client
	cfg    config.StorageConfig
}

// NewS3Uploader builds an uploader from explicit configuration. Credentials
// come from the config struct when set, otherwise from the default AWS
// provider chain.
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig) (ports.AttachmentUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
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
	})

	return &S3Uploader{client: client, cfg: cfg}, nil
}

// Upload puts the object under a key derived from the task id and the
// original filename, and returns the public retrieval URL. The call is
// bounded by the configured upload timeout so an unreachable object store
// cannot hang task creation.
func (u *S3Uploader) Upload(ctx context.Context, taskID uuid.UUID, filename string, content io.Reader) (string, error) {
	key := ObjectKey(taskID, filename)

	if u.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.UploadTimeout)
		defer cancel()
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   content,
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	return u.publicURL(key), nil
}

func (u *S3Uploader) publicURL(key string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.cfg.Bucket, key)
}

// ObjectKey derives the bucket key for an attachment. Prefixing with the
// task id keeps identical filenames on different tasks from colliding.
func ObjectKey(taskID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s_%s", taskID, filename)
}
