package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	appconfig "main/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaStore commits an uploaded image to external storage and returns its
// public URL. Avatars and note thumbnails both go through it.
type MediaStore interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// S3MediaStore stores media in an S3-compatible bucket (AWS or MinIO).
type S3MediaStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3MediaStore(ctx context.Context, mc appconfig.MediaConfig) (*S3MediaStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(mc.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			mc.AccessKey,
			mc.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load media storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if mc.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(mc.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := mc.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", mc.Bucket, mc.Region)
	}

	return &S3MediaStore{
		client:    client,
		bucket:    mc.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func storageKey(name string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Ext(name))
}

func (s *S3MediaStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := storageKey(name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", name, err)
	}

	return s.publicURL + "/" + key, nil
}
