package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures the R2 object store client.
type Options struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// R2Store persists binary artifacts in a Cloudflare R2 bucket through the
// S3-compatible API. It is constructed once at process start and injected
// wherever storage access is needed.
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewR2Store creates an R2 storage client from static credentials.
func NewR2Store(ctx context.Context, opts Options) (*R2Store, error) {
	if opts.AccountID == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("storage: R2 credentials not configured")
	}
	if opts.BucketName == "" {
		return nil, fmt.Errorf("storage: bucket name is required")
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	return &R2Store{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    opts.BucketName,
		publicURL: trimTrailingSlash(opts.PublicURL),
	}, nil
}

// Put uploads data under key and returns the public URL of the stored object.
func (s *R2Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// Get downloads the object stored under key.
func (s *R2Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// PublicURL returns the externally reachable URL for a stored key.
func (s *R2Store) PublicURL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s", s.bucket, key)
}

// ResolveKey maps a previously issued public URL back to the storage key it
// was built from. Bare keys pass through unchanged.
func (s *R2Store) ResolveKey(url string) string {
	return ResolveKey(s.publicURL, s.bucket, url)
}

func trimTrailingSlash(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}
