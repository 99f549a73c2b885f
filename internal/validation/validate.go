// Package validation checks bucket names, object keys and metadata before
// they are sent to S3.
package validation

import (
	"strings"
	"unicode"

	"github.com/input-output-hk/sync-dir-s3/errors"
)

const maxObjectKeyLength = 1024

// ValidateBucketName validates that a bucket name is DNS-compliant according to AWS S3 rules.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(msg)
	}

	if bucket == "" {
		return fail("bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}
	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return fail("bucket name cannot start or end with a hyphen or dot")
	}
	if isIPAddress(bucket) {
		return fail("bucket name cannot be formatted as an IP address")
	}
	if strings.Contains(bucket, "..") || strings.Contains(bucket, ".-") || strings.Contains(bucket, "-.") {
		return fail("bucket name cannot contain adjacent periods")
	}

	return nil
}

// ValidateObjectKey validates that an object key is usable as a sync destination.
// Keys must be non-empty, relative, free of ".." segments and control characters.
func ValidateObjectKey(key string) error {
	fail := func(msg string) error {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(msg)
	}

	if key == "" {
		return fail("object key cannot be empty")
	}
	if len(key) > maxObjectKeyLength {
		return fail("object key cannot exceed 1024 bytes")
	}
	if strings.HasPrefix(key, "/") {
		return fail("object key cannot start with a slash")
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return fail("object key cannot contain path traversal sequences")
		}
	}
	for _, char := range key {
		if unicode.IsControl(char) {
			return fail("object key cannot contain control characters")
		}
	}

	return nil
}

// SanitizeMetadata returns a copy of metadata whose keys and values are printable ASCII.
// S3 transmits user metadata as HTTP headers, so anything else is dropped.
func SanitizeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}

	sanitized := make(map[string]string, len(metadata))
	for key, value := range metadata {
		sanitized[printableASCII(key)] = printableASCII(value)
	}
	return sanitized
}

func printableASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return -1
		}
		return r
	}, s)
}

func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress checks if a string is formatted as an IPv4 address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}
