package testutil

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/input-output-hk/sync-dir-s3/internal/fs"
)

// FaultyFS wraps a Filesystem and fails every access to the paths in Denied
// and everything below them. A denied directory behaves like one whose
// listing cannot be read.
type FaultyFS struct {
	fs.Filesystem

	// Denied maps a path to the error returned for it. A nil value means EACCES.
	Denied map[string]error
}

// NewFaultyFS wraps inner, denying access to paths.
func NewFaultyFS(inner fs.Filesystem, paths ...string) *FaultyFS {
	denied := make(map[string]error, len(paths))
	for _, p := range paths {
		denied[p] = nil
	}
	return &FaultyFS{Filesystem: inner, Denied: denied}
}

func (f *FaultyFS) denied(op, path string) error {
	for p, err := range f.Denied {
		if path != p && !strings.HasPrefix(path, p+string(filepath.Separator)) {
			continue
		}
		if err == nil {
			err = syscall.EACCES
		}
		return &iofs.PathError{Op: op, Path: path, Err: err}
	}
	return nil
}

func (f *FaultyFS) Open(name string) (fs.File, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return f.Filesystem.Open(name)
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (fs.File, error) {
	if err := f.denied("open", name); err != nil {
		return nil, err
	}
	return f.Filesystem.OpenFile(name, flag, perm)
}

func (f *FaultyFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	if err := f.denied("readdir", dirname); err != nil {
		return nil, err
	}
	return f.Filesystem.ReadDir(dirname)
}

func (f *FaultyFS) ReadFile(path string) ([]byte, error) {
	if err := f.denied("read", path); err != nil {
		return nil, err
	}
	return f.Filesystem.ReadFile(path)
}

// Walk reports a denied directory with its read error and never descends into it.
// A denied file is reported with a nil FileInfo.
func (f *FaultyFS) Walk(root string, walkFn filepath.WalkFunc) error {
	return f.Filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return walkFn(path, info, err)
		}
		denyErr := f.denied("readdir", path)
		if denyErr == nil {
			return walkFn(path, info, nil)
		}
		if !info.IsDir() {
			return walkFn(path, nil, denyErr)
		}
		if err := walkFn(path, info, denyErr); err != nil {
			return err
		}
		return filepath.SkipDir
	})
}
