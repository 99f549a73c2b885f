package fs

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS is a Filesystem backed by go-billy.
type FS struct {
	fs billy.Filesystem
}

var _ Filesystem = (*FS)(nil)

// NewInMemoryFS returns an empty memfs-backed filesystem.
func NewInMemoryFS() *FS {
	return &FS{fs: memfs.New()}
}

// NewOSFS returns a filesystem over the host OS rooted at path.
func NewOSFS(path string) *FS {
	return &FS{fs: osfs.New(path)}
}

// pathErr records op and path unless err already carries them.
func pathErr(op, path string, err error) error {
	if _, ok := err.(*fs.PathError); ok {
		return err
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}

func (b *FS) wrap(f billy.File) File {
	return &billyFile{file: f, fs: b}
}

// Exists reports whether path exists. Only unexpected stat errors are returned.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, pathErr("stat", path, err)
	}
}

func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return pathErr("mkdir", path, err)
	}
	return nil
}

//nolint:ireturn // callers stay backend agnostic.
func (b *FS) Open(name string) (File, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, pathErr("open", name, err)
	}
	return b.wrap(f), nil
}

//nolint:ireturn // callers stay backend agnostic.
func (b *FS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := b.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, pathErr("open", name, err)
	}
	return b.wrap(f), nil
}

func (b *FS) ReadDir(dirname string) ([]os.FileInfo, error) {
	infos, err := b.fs.ReadDir(dirname)
	if err != nil {
		return nil, pathErr("readdir", dirname, err)
	}
	return infos, nil
}

func (b *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, pathErr("read", path, err)
	}
	return data, nil
}

func (b *FS) Remove(name string) error {
	if err := b.fs.Remove(name); err != nil {
		return pathErr("remove", name, err)
	}
	return nil
}

// Rename replaces newpath with oldpath.
func (b *FS) Rename(oldpath, newpath string) error {
	if err := b.fs.Rename(oldpath, newpath); err != nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}
	return nil
}

// Stat follows symlinks.
func (b *FS) Stat(name string) (os.FileInfo, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return nil, pathErr("stat", name, err)
	}
	return info, nil
}

// Walk visits root and everything below it in lexical order. Entries are
// reported with Lstat semantics, so symlinks are not followed.
func (b *FS) Walk(root string, walkFn filepath.WalkFunc) error {
	if err := util.Walk(b.fs, root, walkFn); err != nil {
		return pathErr("walk", root, err)
	}
	return nil
}

// WriteFile creates or truncates filename.
func (b *FS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, filename, data, perm); err != nil {
		return pathErr("write", filename, err)
	}
	return nil
}
