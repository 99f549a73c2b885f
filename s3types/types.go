// Package s3types provides shared type definitions for sync-dir-s3.
package s3types

import (
	"time"
)

// ObjectACL represents the access control list applied to uploaded objects.
type ObjectACL string

// Supported object ACLs
const (
	// ACLPrivate grants private access (default)
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"
)

// SSEType represents the server-side encryption type for objects.
type SSEType string

// SSES3 uses S3-managed encryption keys.
const SSES3 SSEType = "AES256"

// User metadata keys stored alongside every uploaded object.
// S3 lower-cases user metadata keys, so these are lower-case already.
const (
	MetaFingerprint  = "md5"
	MetaUploaderInfo = "uploadedfrom"
)

// Credentials is the record kept in the vault.
type Credentials struct {
	AccessKey string `json:"key"`
	SecretKey string `json:"secret"`
}

// Valid reports whether both halves of the key pair are present.
func (c Credentials) Valid() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// SyncTarget is the destination of a run. It is resolved once and never mutated.
type SyncTarget struct {
	// Bucket is the destination bucket name
	Bucket string

	// PublicRead uploads objects with the public-read ACL instead of private
	PublicRead bool
}

// ACL returns the canned ACL to apply for this target.
func (t SyncTarget) ACL() ObjectACL {
	if t.PublicRead {
		return ACLPublicRead
	}
	return ACLPrivate
}

// FileEntry is a single candidate file of a run.
type FileEntry struct {
	// LocalPath is the path of the file on the local filesystem
	LocalPath string

	// RemoteKey is the object key the file is stored under
	RemoteKey string

	// Size is the file size in bytes at enumeration time
	Size int64
}

// Listing is the outcome of enumerating a sync root.
type Listing struct {
	// Entries are the candidate files, sorted by local path
	Entries []FileEntry

	// Failures are paths below the root that could not be read
	Failures []SyncFailure
}

// Total returns the number of paths the run has to account for.
func (l *Listing) Total() int {
	return len(l.Entries) + len(l.Failures)
}

// RemoteObjectMeta is the sidecar metadata stored with each uploaded object.
type RemoteObjectMeta struct {
	// ContentFingerprint is the content hash of the uploaded bytes
	ContentFingerprint string

	// UploaderInfo identifies the host that performed the upload
	UploaderInfo string
}

// ToMetadata converts the sidecar into S3 user metadata.
func (m RemoteObjectMeta) ToMetadata() map[string]string {
	return map[string]string{
		MetaFingerprint:  m.ContentFingerprint,
		MetaUploaderInfo: m.UploaderInfo,
	}
}

// MetaFromMetadata reads the sidecar out of S3 user metadata.
// Missing keys yield empty fields.
func MetaFromMetadata(md map[string]string) RemoteObjectMeta {
	return RemoteObjectMeta{
		ContentFingerprint: md[MetaFingerprint],
		UploaderInfo:       md[MetaUploaderInfo],
	}
}

// Classification is the outcome of change detection for one file.
type Classification string

const (
	// Unchanged means the remote object already holds the same content
	Unchanged Classification = "unchanged"

	// NeedsUpload means the file must be uploaded
	NeedsUpload Classification = "needs-upload"
)

// FailureKind groups per-file failures by origin.
type FailureKind string

const (
	// FailureIO is a local read or open failure
	FailureIO FailureKind = "io"

	// FailureRemote is a storage service failure during head or put
	FailureRemote FailureKind = "remote"

	// FailureInvalid is a request rejected before it was sent
	FailureInvalid FailureKind = "invalid"

	// FailureCanceled is a file that was never attempted because the run was cancelled
	FailureCanceled FailureKind = "canceled"
)

// PlannedEntry is a FileEntry after change detection.
type PlannedEntry struct {
	Entry FileEntry

	// Decision is meaningful only when Err is nil
	Decision Classification

	// Fingerprint is the freshly computed local content hash
	Fingerprint string

	// Reason describes why this decision was taken
	Reason string

	// Err is set when detection failed for this file
	Err error

	// Kind classifies Err
	Kind FailureKind
}

// SyncFailure records one file that could not be synced.
type SyncFailure struct {
	Entry FileEntry
	Kind  FailureKind
	Err   error
}

// SyncResult is the aggregate outcome of a run.
type SyncResult struct {
	// Updated is the number of files uploaded
	Updated int

	// Unchanged is the number of files skipped because their content matched
	Unchanged int

	// Failures lists every file that could not be synced
	Failures []SyncFailure

	// BytesUploaded is the total size of the uploaded files
	BytesUploaded int64

	// Duration is how long the run took
	Duration time.Duration
}

// OK reports whether the run had no failures.
func (r *SyncResult) OK() bool {
	return len(r.Failures) == 0
}

// Total returns the number of files accounted for.
func (r *SyncResult) Total() int {
	return r.Updated + r.Unchanged + len(r.Failures)
}

// Outcome is the per-file result reported to a ProgressTracker.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
)

// ProgressTracker receives one tick per processed entry.
// Implementations must be safe for concurrent use.
type ProgressTracker interface {
	// Tick is called exactly once per entry, in completion order
	Tick(entry FileEntry, outcome Outcome)

	// Complete is called once after the last tick
	Complete()
}
