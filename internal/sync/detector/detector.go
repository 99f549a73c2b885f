// Package detector decides, per file, whether an upload is needed.
//
// A file is unchanged only when the remote object exists and carries a stored
// fingerprint equal to the fingerprint of the local content. Everything else
// needs an upload.
package detector

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// Reasons attached to a PlannedEntry.
const (
	ReasonNewFile       = "new file"
	ReasonModified      = "modified"
	ReasonUnchanged     = "unchanged"
	ReasonNoFingerprint = "no fingerprint"
)

// MetadataSource reads the sidecar metadata of a remote object.
// A missing object must be reported with an error matching errors.ErrObjectNotFound.
type MetadataSource interface {
	HeadMetadata(ctx context.Context, bucket, key string) (*s3types.RemoteObjectMeta, error)
}

// Detector fingerprints local files and compares them with remote metadata.
type Detector struct {
	filesystem fs.Filesystem
	remote     MetadataSource
	logger     *slog.Logger
}

// New creates a Detector.
func New(filesystem fs.Filesystem, remote MetadataSource, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		filesystem: filesystem,
		remote:     remote,
		logger:     logger,
	}
}

// Fingerprint streams the file through MD5 and returns the lower-case hex digest.
func (d *Detector) Fingerprint(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := d.filesystem.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for fingerprint: %w", err)
	}
	defer file.Close()

	hash := md5.New() //nolint:gosec // see import
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to compute fingerprint: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// Classify compares a local fingerprint with the remote sidecar.
// remote is nil when the object does not exist.
func Classify(fingerprint string, remote *s3types.RemoteObjectMeta) (s3types.Classification, string) {
	switch {
	case remote == nil:
		return s3types.NeedsUpload, ReasonNewFile
	case remote.ContentFingerprint == "":
		return s3types.NeedsUpload, ReasonNoFingerprint
	case remote.ContentFingerprint != fingerprint:
		return s3types.NeedsUpload, ReasonModified
	default:
		return s3types.Unchanged, ReasonUnchanged
	}
}

// Detect classifies a single entry. It never returns an error: failures are
// recorded on the PlannedEntry with their kind.
func (d *Detector) Detect(ctx context.Context, bucket string, entry s3types.FileEntry) s3types.PlannedEntry {
	planned := s3types.PlannedEntry{Entry: entry}

	if err := ctx.Err(); err != nil {
		planned.Err = err
		planned.Kind = s3types.FailureCanceled
		return planned
	}

	remote, err := d.remote.HeadMetadata(ctx, bucket, entry.RemoteKey)
	if err != nil {
		if !errors.IsObjectNotFound(err) {
			planned.Err = err
			planned.Kind = s3types.FailureRemote
			return planned
		}
		remote = nil
	}

	fingerprint, err := d.Fingerprint(ctx, entry.LocalPath)
	if err != nil {
		planned.Err = errors.NewError("fingerprint", err).WithKey(entry.RemoteKey)
		planned.Kind = s3types.FailureIO
		return planned
	}

	planned.Fingerprint = fingerprint
	planned.Decision, planned.Reason = Classify(fingerprint, remote)

	d.logger.Debug("classified file",
		"path", entry.LocalPath,
		"key", entry.RemoteKey,
		"decision", planned.Decision,
		"reason", planned.Reason,
	)
	return planned
}

// Plan classifies every entry with at most limit detections in flight.
// The result is index-aligned with entries.
func (d *Detector) Plan(ctx context.Context, bucket string, entries []s3types.FileEntry, limit int) []s3types.PlannedEntry {
	if limit <= 0 {
		limit = 1
	}

	planned := make([]s3types.PlannedEntry, len(entries))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, entry := range entries {
		g.Go(func() error {
			planned[i] = d.Detect(ctx, bucket, entry)
			return nil
		})
	}
	_ = g.Wait()

	return planned
}
