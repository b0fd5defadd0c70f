// Package storage archives carrier labels in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/shipping"
	infraconfig "github.com/orderdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	labelPrefix        = "labels"
	labelContentType   = "application/pdf"
	maxLabelBytes      = 10 << 20
	defaultPresign     = 15 * time.Minute
	defaultDownloadTTL = 30 * time.Second
)

var _ shipping.LabelArchive = (*S3LabelArchive)(nil)

// S3LabelArchive copies carrier label documents into a bucket under
// labels/<tenant>/<order>/<tracking>.pdf and hands out presigned GET URLs.
type S3LabelArchive struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	httpClient        *http.Client
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// Option is a functional option for configuring S3LabelArchive
type Option func(*S3LabelArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3LabelArchive) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long download URLs stay valid
func WithPresignExpiration(d time.Duration) Option {
	return func(s *S3LabelArchive) {
		s.presignExpiration = d
	}
}

// WithHTTPClient sets the client used to download carrier documents
func WithHTTPClient(c *http.Client) Option {
	return func(s *S3LabelArchive) {
		s.httpClient = c
	}
}

// NewS3LabelArchive creates an archive from configuration. It works with AWS S3
// and S3-compatible services (MinIO, R2) through Endpoint and UsePathStyle.
func NewS3LabelArchive(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...Option) (*S3LabelArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("storage access key id and secret access key must be set together")
		}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	var endpoint string
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid storage endpoint %q", cfg.Endpoint)
		}
		endpoint = cfg.Endpoint
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	downloadTimeout := cfg.DownloadTimeout
	if downloadTimeout <= 0 {
		downloadTimeout = defaultDownloadTTL
	}

	archive := &S3LabelArchive{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		httpClient:        &http.Client{Timeout: downloadTimeout},
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiry,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	if archive.presignExpiration <= 0 {
		archive.presignExpiration = defaultPresign
	}
	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3LabelArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating label bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive downloads the carrier document at sourceURL and stores it
func (s *S3LabelArchive) Archive(ctx context.Context, tenantID, orderID uuid.UUID, trackingNumber, sourceURL string) (string, error) {
	key, err := LabelKey(tenantID, orderID, trackingNumber)
	if err != nil {
		return "", err
	}

	body, err := s.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(labelContentType),
		Metadata: map[string]string{
			"tenant-id":       tenantID.String(),
			"order-id":        orderID.String(),
			"tracking-number": trackingNumber,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload label: %w", err)
	}

	s.logger.Debug("Label archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)
	return key, nil
}

// URL returns a presigned GET URL for key
func (s *S3LabelArchive) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, nil
}

// Bucket returns the bucket name
func (s *S3LabelArchive) Bucket() string {
	return s.bucket
}

func (s *S3LabelArchive) download(ctx context.Context, sourceURL string) ([]byte, error) {
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("label source %q is not an http(s) URL", sourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download label: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("label download returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLabelBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read label: %w", err)
	}
	if len(body) > maxLabelBytes {
		return nil, fmt.Errorf("label exceeds %d bytes", maxLabelBytes)
	}
	if len(body) == 0 {
		return nil, errors.New("label download was empty")
	}
	return body, nil
}

// LabelKey builds labels/<tenant>/<order>/<tracking>.pdf
func LabelKey(tenantID, orderID uuid.UUID, trackingNumber string) (string, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil {
		return "", errors.New("tenant and order ids are required")
	}
	tracking := sanitizeSegment(trackingNumber)
	if tracking == "" {
		return "", errors.New("tracking number is required")
	}
	return strings.Join([]string{labelPrefix, tenantID.String(), orderID.String(), tracking + ".pdf"}, "/"), nil
}

// sanitizeSegment keeps characters safe in an object key segment
func sanitizeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(s))
}
