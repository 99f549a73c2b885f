// Package enumerator produces the candidate file set for a sync run.
//
// A run either lists the regular files directly inside the sync root or walks
// the whole tree. Each file is paired with the object key it syncs to.
package enumerator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/input-output-hk/sync-dir-s3/internal/fs"
	"github.com/input-output-hk/sync-dir-s3/s3types"
)

// Enumerator lists local files and assigns their remote keys.
type Enumerator struct {
	filesystem fs.Filesystem
	keys       KeyPolicy
	matcher    *PatternMatcher
	skip       map[string]struct{}
	logger     *slog.Logger
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithExclude sets doublestar exclude patterns.
func WithExclude(patterns ...string) Option {
	return func(e *Enumerator) {
		matcher, invalid := NewPatternMatcher(patterns)
		for _, p := range invalid {
			e.logger.Warn("ignoring invalid exclude pattern", "pattern", p)
		}
		e.matcher = matcher
	}
}

// WithSkipPaths never returns the given files, e.g. the vault itself.
func WithSkipPaths(paths ...string) Option {
	return func(e *Enumerator) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				e.skip[abs] = struct{}{}
			}
		}
	}
}

// WithLogger sets the logger. Pass it before WithExclude to capture pattern warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enumerator) {
		e.logger = logger
	}
}

// New creates an Enumerator reading from filesystem and keying with keys.
func New(filesystem fs.Filesystem, keys KeyPolicy, opts ...Option) *Enumerator {
	e := &Enumerator{
		filesystem: filesystem,
		keys:       keys,
		skip:       make(map[string]struct{}),
		logger:     slog.Default(),
	}
	e.matcher, _ = NewPatternMatcher(nil)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enumerate returns the files under root, sorted by local path.
// With recursive false only the regular files directly inside root are returned.
//
// Only a failure to read root itself is returned as an error. Paths below it
// that cannot be read are reported in the listing's Failures and skipped.
func (e *Enumerator) Enumerate(ctx context.Context, root string, recursive bool) (*s3types.Listing, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	listing := &s3types.Listing{}
	if recursive {
		err = e.walk(ctx, absRoot, listing)
	} else {
		err = e.list(ctx, absRoot, listing)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(listing.Entries, func(i, j int) bool {
		return listing.Entries[i].LocalPath < listing.Entries[j].LocalPath
	})
	sort.Slice(listing.Failures, func(i, j int) bool {
		return listing.Failures[i].Entry.LocalPath < listing.Failures[j].Entry.LocalPath
	})

	e.logger.Debug("enumerated files", "path", absRoot, "recursive", recursive,
		"count", len(listing.Entries), "failed", len(listing.Failures))
	return listing, nil
}

// list collects the regular files directly inside root.
func (e *Enumerator) list(ctx context.Context, root string, listing *s3types.Listing) error {
	infos, err := e.filesystem.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to list directory %s: %w", root, err)
	}

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(root, info.Name())
		entry, ok, err := e.consider(root, path, info)
		if err != nil {
			e.failed(listing, root, path, s3types.FailureInvalid, err)
			continue
		}
		if ok {
			listing.Entries = append(listing.Entries, entry)
		}
	}
	return nil
}

// walk collects every regular file below root.
func (e *Enumerator) walk(ctx context.Context, root string, listing *s3types.Listing) error {
	err := e.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			isDir := info != nil && info.IsDir()
			if !e.ignored(root, path, isDir) {
				e.failed(listing, root, path, s3types.FailureIO, err)
			}
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && e.matcher.Excluded(e.rel(root, path), true) {
				return filepath.SkipDir
			}
			return nil
		}

		entry, ok, err := e.consider(root, path, info)
		if err != nil {
			e.failed(listing, root, path, s3types.FailureInvalid, err)
			return nil
		}
		if ok {
			listing.Entries = append(listing.Entries, entry)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	return nil
}

// failed records a path that could not be enumerated. The key is filled in
// when it can still be derived so the report names the affected object.
func (e *Enumerator) failed(listing *s3types.Listing, root, path string, kind s3types.FailureKind, err error) {
	key, _ := e.keys.Key(root, path)
	e.logger.Warn("skipping unreadable path", "path", path, "error", err)
	listing.Failures = append(listing.Failures, s3types.SyncFailure{
		Entry: s3types.FileEntry{LocalPath: path, RemoteKey: key},
		Kind:  kind,
		Err:   err,
	})
}

// consider turns a directory entry into a FileEntry when it is an included regular file.
// Symlinks are followed; links to directories are not descended into.
func (e *Enumerator) consider(root, path string, info os.FileInfo) (s3types.FileEntry, bool, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := e.filesystem.Stat(path)
		if err != nil {
			e.logger.Debug("skipping dangling symlink", "path", path, "error", err)
			return s3types.FileEntry{}, false, nil
		}
		info = target
	}

	if !info.Mode().IsRegular() {
		return s3types.FileEntry{}, false, nil
	}
	if e.ignored(root, path, false) {
		return s3types.FileEntry{}, false, nil
	}

	key, err := e.keys.Key(root, path)
	if err != nil {
		return s3types.FileEntry{}, false, fmt.Errorf("failed to derive key for %s: %w", path, err)
	}

	return s3types.FileEntry{
		LocalPath: path,
		RemoteKey: key,
		Size:      info.Size(),
	}, true, nil
}

// ignored reports whether path would be left out of the run even if it were readable.
func (e *Enumerator) ignored(root, path string, isDir bool) bool {
	if _, skipped := e.skip[path]; skipped {
		return true
	}
	return e.matcher.Excluded(e.rel(root, path), isDir)
}

func (e *Enumerator) rel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
