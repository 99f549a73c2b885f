// Package remote builds the S3 client for a sync run and reads object metadata.
package remote

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/internal/s3api"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

const defaultRegion = "us-east-1"

// Client wraps the S3 API used by a sync run.
type Client struct {
	api    s3api.S3API
	logger *slog.Logger
}

// New creates a Client authenticated with the vault credentials.
// Shared AWS config (region, retry mode) is still honoured; only the
// credential chain is replaced.
func New(ctx context.Context, creds s3types.Credentials, opts ...Option) (*Client, error) {
	if !creds.Valid() {
		return nil, errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("access key and secret key are required")
	}

	clientCfg := &ClientConfig{
		MaxRetries: 3,
		Logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(clientCfg.Endpoint)
		})
	}
	if clientCfg.Timeout > 0 {
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	clientCfg.Logger.Debug("s3 client configured",
		"region", cfg.Region,
		"endpoint", clientCfg.Endpoint,
		"path_style", clientCfg.ForcePathStyle,
	)

	return &Client{
		api:    s3.NewFromConfig(cfg, s3Opts...),
		logger: clientCfg.Logger,
	}, nil
}

// NewWithAPI creates a Client over a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithAPI(api s3api.S3API) *Client {
	return &Client{
		api:    api,
		logger: slog.Default(),
	}
}

// API returns the underlying S3 API.
//
//nolint:ireturn // callers need the interface to stay mockable.
func (c *Client) API() s3api.S3API {
	return c.api
}

// HeadMetadata reads the sync sidecar metadata of an object.
// A missing object returns an error matching errors.ErrObjectNotFound.
func (c *Client) HeadMetadata(ctx context.Context, bucket, key string) (*s3types.RemoteObjectMeta, error) {
	result, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, convertAWSError("headObject", bucket, key, err)
	}

	meta := s3types.MetaFromMetadata(result.Metadata)
	return &meta, nil
}

// convertAWSError maps SDK errors onto the package sentinels.
func convertAWSError(op, bucket, key string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &notFound) || stderrors.As(err, &noSuchKey) {
		return errors.NewObjectError(op, bucket, key, errors.ErrObjectNotFound)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return errors.NewObjectError(op, bucket, key, errors.ErrObjectNotFound)
		case "AccessDenied", "Forbidden":
			return errors.NewObjectError(op, bucket, key, stderrors.Join(errors.ErrAccessDenied, err))
		}
	}

	return errors.NewObjectError(op, bucket, key, err)
}
