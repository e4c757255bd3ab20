package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// test seams for the AWS SDK
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
)

// S3Options configures the off-site copy target. Works against AWS or any
// S3-compatible endpoint (MinIO etc.).
type S3Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// RandomStorageKey returns a date-partitioned object key for a new snapshot.
func RandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("backups/%d/%d/%d/%v.json", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Service) getS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.RootUser,
			opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
	})

	return client, nil
}

// UploadToS3 exports the full state and puts it under a fresh object key.
// Returns the key so the caller can record where the snapshot went.
func (s *Service) UploadToS3(ctx context.Context, opts S3Options) (string, error) {
	payload, err := s.ExportJSON(ctx)
	if err != nil {
		return "", err
	}

	client, err := s.getS3Client(ctx, opts)
	if err != nil {
		return "", err
	}

	key := RandomStorageKey()
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &opts.Bucket,
		Key:    &key,
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading backup: %w", err)
	}

	return key, nil
}

// DownloadFromS3 fetches a snapshot object and imports it.
func (s *Service) DownloadFromS3(ctx context.Context, opts S3Options, key string) error {
	client, err := s.getS3Client(ctx, opts)
	if err != nil {
		return err
	}

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: &opts.Bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("error downloading backup: %w", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return err
	}

	return s.Import(ctx, raw)
}
