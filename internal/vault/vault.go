// Package vault stores the S3 credential record encrypted under a user password.
//
// The vault is a single file in the user's home directory. It is written
// atomically (temp file + rename) while holding an exclusive file lock, so a
// crash or a concurrent run never leaves a half-written vault behind.
package vault

import (
	"context"
	stderrors "errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/input-output-hk/sync-dir-s3/errors"
	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// FileName is the vault file name inside the home directory.
const FileName = ".sync-dir-s3"

const lockRetryDelay = 50 * time.Millisecond

// Vault reads and writes the encrypted credential file.
type Vault struct {
	fs     fs.Filesystem
	path   string
	logger *slog.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithPath overrides the vault location.
func WithPath(path string) Option {
	return func(v *Vault) {
		v.path = path
	}
}

// WithFilesystem sets the filesystem used for vault I/O.
func WithFilesystem(filesystem fs.Filesystem) Option {
	return func(v *Vault) {
		v.fs = filesystem
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// DefaultPath returns $HOME/.sync-dir-s3.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// New creates a Vault. Without WithPath the vault lives at DefaultPath.
func New(opts ...Option) (*Vault, error) {
	v := &Vault{
		fs:     fs.NewOSFS("/"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.path == "" {
		path, err := DefaultPath()
		if err != nil {
			return nil, errors.NewError("vault.new", err)
		}
		v.path = path
	}

	abs, err := filepath.Abs(v.path)
	if err != nil {
		return nil, errors.NewError("vault.new", err)
	}
	v.path = abs

	return v, nil
}

// Path returns the absolute vault file path.
func (v *Vault) Path() string {
	return v.path
}

// Exists reports whether the vault file is present. It never fails; an
// unreadable location is reported as absent.
func (v *Vault) Exists() bool {
	ok, err := v.fs.Exists(v.path)
	if err != nil {
		v.logger.Debug("vault stat failed", "path", v.path, "error", err)
		return false
	}
	return ok
}

// Encrypt seals record under password. See the package-level Encrypt.
func (v *Vault) Encrypt(password string, record s3types.Credentials) ([]byte, error) {
	return Encrypt(password, record)
}

// Decrypt opens blob with password. See the package-level Decrypt.
func (v *Vault) Decrypt(password string, blob []byte) (s3types.Credentials, error) {
	return Decrypt(password, blob)
}

// Load reads the vault and decrypts it.
// A missing vault yields an error matching both ErrCredentialsNotFound and fs.ErrNotExist.
func (v *Vault) Load(password string) (s3types.Credentials, error) {
	blob, err := v.fs.ReadFile(v.path)
	if err != nil {
		if stderrors.Is(err, iofs.ErrNotExist) {
			return s3types.Credentials{}, errors.NewError("vault.load",
				fmt.Errorf("%w: %w", errors.ErrCredentialsNotFound, err))
		}
		return s3types.Credentials{}, errors.NewError("vault.load", err)
	}

	record, err := Decrypt(password, blob)
	if err != nil {
		return s3types.Credentials{}, errors.NewError("vault.load", err)
	}

	v.logger.Debug("vault loaded", "path", v.path)
	return record, nil
}

// Save encrypts record and replaces the vault file atomically.
// It waits for the vault lock until ctx is done, then fails with ErrVaultLocked.
func (v *Vault) Save(ctx context.Context, password string, record s3types.Credentials) error {
	if !record.Valid() {
		return errors.NewError("vault.save", errors.ErrInvalidInput).
			WithMessage("access key and secret key are required")
	}

	blob, err := Encrypt(password, record)
	if err != nil {
		return errors.NewError("vault.save", err)
	}

	if err := v.fs.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return errors.NewError("vault.save", err)
	}

	lock := flock.New(v.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil || stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			err = errors.ErrVaultLocked
		}
		return errors.NewError("vault.save", err)
	}
	// The lock file stays in place. Removing it would let a waiter lock the
	// unlinked inode while a newer run locks a fresh file at the same path.
	defer func() {
		if err := lock.Unlock(); err != nil {
			v.logger.Warn("failed to release vault lock", "path", lock.Path(), "error", err)
		}
	}()

	if err := v.writeAtomic(blob); err != nil {
		return errors.NewError("vault.save", err)
	}

	v.logger.Debug("vault saved", "path", v.path)
	return nil
}

// writeAtomic writes data next to the vault and renames it into place.
func (v *Vault) writeAtomic(data []byte) error {
	tmpPath := fmt.Sprintf("%s.tmp.%d", v.path, time.Now().UnixNano())

	f, err := v.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = v.fs.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if s, ok := f.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			_ = f.Close()
			cleanup()
			return fmt.Errorf("sync temp file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := v.fs.Rename(tmpPath, v.path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
