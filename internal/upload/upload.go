// Package upload performs the PutObject request for a single planned file.
package upload

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/internal/s3api"
	"github.com/input-output-hk/sync-dir-s3/internal/validation"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// Uploader streams local files to S3 with the sync sidecar metadata attached.
type Uploader struct {
	s3Client     s3api.S3API
	filesystem   fs.Filesystem
	uploaderInfo string
	logger       *slog.Logger
}

// New creates an Uploader. uploaderInfo is stored on every object.
func New(s3Client s3api.S3API, filesystem fs.Filesystem, uploaderInfo string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		s3Client:     s3Client,
		filesystem:   filesystem,
		uploaderInfo: uploaderInfo,
		logger:       logger,
	}
}

// Upload sends the file of planned to the target bucket and returns the number of bytes sent.
func (u *Uploader) Upload(ctx context.Context, target s3types.SyncTarget, planned s3types.PlannedEntry) (int64, error) {
	entry := planned.Entry

	if err := validation.ValidateObjectKey(entry.RemoteKey); err != nil {
		return 0, err
	}

	file, err := u.filesystem.Open(entry.LocalPath)
	if err != nil {
		return 0, errors.NewError("open", err).WithKey(entry.RemoteKey)
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !stderrors.Is(err, io.EOF) && !stderrors.Is(err, io.ErrUnexpectedEOF) {
		return 0, errors.NewError("read", err).WithKey(entry.RemoteKey)
	}

	// Metadata goes out ahead of the body, so the fingerprint is taken from
	// the open file rather than trusted from detection time.
	fingerprint, size, err := fingerprintOf(file)
	if err != nil {
		return 0, errors.NewError("read", err).WithKey(entry.RemoteKey)
	}
	if fingerprint != planned.Fingerprint {
		u.logger.Debug("file changed since detection", "path", entry.LocalPath, "detected", planned.Fingerprint, "current", fingerprint)
	}

	body := newHashingBody(file)
	meta := s3types.RemoteObjectMeta{
		ContentFingerprint: fingerprint,
		UploaderInfo:       u.uploaderInfo,
	}

	input := &s3.PutObjectInput{
		Bucket:               aws.String(target.Bucket),
		Key:                  aws.String(entry.RemoteKey),
		Body:                 body,
		ContentType:          aws.String(DetectContentType(entry.LocalPath, head[:n])),
		ContentLength:        aws.Int64(size),
		ACL:                  awstypes.ObjectCannedACL(target.ACL()),
		Metadata:             validation.SanitizeMetadata(meta.ToMetadata()),
		ServerSideEncryption: awstypes.ServerSideEncryption(s3types.SSES3),
	}

	u.logger.Debug("uploading file",
		"path", entry.LocalPath,
		"bucket", target.Bucket,
		"key", entry.RemoteKey,
		"content_type", aws.ToString(input.ContentType),
		"acl", target.ACL(),
	)

	if _, err := u.s3Client.PutObject(ctx, input); err != nil {
		return 0, errors.NewObjectError("putObject", target.Bucket, entry.RemoteKey, err)
	}

	// The stored object no longer matches its fingerprint; the next run
	// re-uploads it because the local hash differs from the recorded one.
	if sent, ok := body.Sum(); ok && sent != fingerprint {
		return 0, errors.NewError("verify", errors.ErrContentChanged).WithKey(entry.RemoteKey)
	}

	return size, nil
}

// KindOf classifies an error returned by Upload.
func KindOf(err error) s3types.FailureKind {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return s3types.FailureCanceled
	}
	if errors.IsInvalidInput(err) {
		return s3types.FailureInvalid
	}

	var opErr *errors.Error
	if stderrors.As(err, &opErr) && opErr.Op == "putObject" {
		return s3types.FailureRemote
	}
	return s3types.FailureIO
}
