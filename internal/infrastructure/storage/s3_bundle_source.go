package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	infraconfig "github.com/erp/provisioner/internal/infrastructure/config"
	"go.uber.org/zap"
)

// s3API is the part of the S3 client the bundle source uses
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3BundleSource reads bundles stored under a key prefix of an S3 bucket.
// It works with any S3-compatible storage (AWS S3, MinIO, RustFS, etc.)
type S3BundleSource struct {
	client s3API
	bucket string
	prefix string
	logger *zap.Logger
}

// S3BundleSourceOption is a functional option for configuring S3BundleSource
type S3BundleSourceOption func(*S3BundleSource)

// WithLogger sets a custom logger for S3BundleSource
func WithLogger(logger *zap.Logger) S3BundleSourceOption {
	return func(s *S3BundleSource) {
		s.logger = logger
	}
}

// NewS3BundleSource creates a source from configuration. Static credentials
// are used when both keys are set, otherwise the default AWS credential chain.
func NewS3BundleSource(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3BundleSourceOption) (*S3BundleSource, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, errors.New("storage access key id and secret access key must be set together")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3BundleSource(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func newS3BundleSource(client s3API, bucket, prefix string, opts ...S3BundleSourceOption) *S3BundleSource {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	s := &S3BundleSource{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalizeEndpoint adds a scheme to bare host:port endpoints. An empty
// endpoint means the AWS default.
func normalizeEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// List returns the *.json object keys below the prefix, relative to it
func (s *S3BundleSource) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bundles in s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if name == "" || !strings.HasSuffix(strings.ToLower(name), ".json") {
				continue
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	s.logger.Debug("listed template bundles", zap.String("bucket", s.bucket), zap.Int("count", len(names)))
	return names, nil
}

// Open streams one bundle object
func (s *S3BundleSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" {
		return nil, errors.New("bundle name is required")
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Template bundle not found: "+name)
		}
		return nil, fmt.Errorf("failed to fetch bundle %s: %w", name, err)
	}
	return out.Body, nil
}

// Upload stores a bundle under the prefix, replacing any object of that name
func (s *S3BundleSource) Upload(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return errors.New("bundle name is required")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload bundle %s: %w", name, err)
	}
	s.logger.Info("uploaded template bundle", zap.String("bucket", s.bucket), zap.String("key", s.prefix+name))
	return nil
}

// Bucket returns the bucket name
func (s *S3BundleSource) Bucket() string {
	return s.bucket
}

// Ensure S3BundleSource implements BundleSource
var _ appprov.BundleSource = (*S3BundleSource)(nil)
