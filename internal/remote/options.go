package remote

import (
	"log/slog"
	"time"
)

// ClientConfig holds the settings used to build a Client.
type ClientConfig struct {
	Region         string
	Endpoint       string
	ForcePathStyle bool
	MaxRetries     int
	Timeout        time.Duration
	Logger         *slog.Logger
}

// Option configures a Client using the functional options pattern.
type Option func(*ClientConfig)

// WithRegion sets the AWS region. Defaults to us-east-1 when neither this
// option nor the shared AWS config provides one.
func WithRegion(region string) Option {
	return func(c *ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL for S3-compatible services.
func WithEndpoint(endpoint string) Option {
	return func(c *ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces path-style addressing (bucket in the path, not the host).
func WithForcePathStyle(forcePathStyle bool) Option {
	return func(c *ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithMaxRetries sets the maximum number of attempts for a request.
func WithMaxRetries(maxRetries int) Option {
	return func(c *ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the HTTP client timeout for individual requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}
