// Package errors provides error types and sentinels for sync-dir-s3.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a failed operation against a bucket, an object or the local vault.
// It wraps the underlying error with enough context to print a single useful line.
type Error struct {
	// Op is the operation that failed (e.g., "headObject", "putObject", "vault.load")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors. These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3: object not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3: invalid object key")

	// ErrInvalidPassword indicates that the vault could not be opened with the given password.
	// Wrong passwords, corrupted files and truncated files all map to this error.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrCredentialsNotFound indicates that no vault file exists yet
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrVaultLocked indicates that another process holds the vault lock
	ErrVaultLocked = errors.New("locked by another process")

	// ErrUserDeclined indicates that a confirmation prompt was answered with no
	ErrUserDeclined = errors.New("declined by user")

	// ErrSyncFailed indicates that at least one file could not be synced
	ErrSyncFailed = errors.New("one or more files failed to sync")

	// ErrContentChanged indicates that a file was modified while it was being uploaded
	ErrContentChanged = errors.New("file changed during upload")
)

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidBucketName) ||
		errors.Is(err, ErrInvalidObjectKey)
}

// IsInvalidPassword checks if an error came from a failed vault decryption.
func IsInvalidPassword(err error) bool {
	return errors.Is(err, ErrInvalidPassword)
}

// IsUserDeclined checks if an error represents a declined confirmation.
func IsUserDeclined(err error) bool {
	return errors.Is(err, ErrUserDeclined)
}
