package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// StorageService stores course assets and certificates in the S3 compatible
// Supabase bucket
type StorageService interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Upload(ctx context.Context, key, contentType string, body []byte) error
}

type s3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	expiry        time.Duration
	logger        zerolog.Logger
}

func NewS3Storage(client *s3.Client, bucket string, logger zerolog.Logger) StorageService {
	return &s3Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		expiry:        15 * time.Minute,
		logger:        logger.With().Str("service", "StorageService").Logger(),
	}
}

func (s *s3Storage) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned PUT URL")
		return "", fmt.Errorf("failed to generate presigned PUT URL: %w", err)
	}
	return req.URL, nil
}

func (s *s3Storage) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned GET URL")
		return "", fmt.Errorf("failed to generate presigned GET URL: %w", err)
	}
	return req.URL, nil
}

func (s *s3Storage) Upload(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to upload object")
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// disabledStorage is used when no storage credentials are configured.
type disabledStorage struct{}

func NewDisabledStorage() StorageService {
	return disabledStorage{}
}

func (disabledStorage) PresignUpload(context.Context, string, string) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledStorage) PresignDownload(context.Context, string) (string, error) {
	return "", ErrStorageDisabled
}

func (disabledStorage) Upload(context.Context, string, string, []byte) error {
	return ErrStorageDisabled
}
