// Package s3api defines the subset of the S3 client used by sync-dir-s3.
// Keeping it narrow lets tests substitute an in-memory implementation.
package s3api

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the interface for the S3 operations a sync run performs.
type S3API interface {
	// HeadObject retrieves object metadata without the body.
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)

	// PutObject uploads a single object.
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Ensure that the actual S3 client implements our interface
var _ S3API = (*s3.Client)(nil)
