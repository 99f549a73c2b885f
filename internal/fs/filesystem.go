// Package fs provides the filesystem abstraction used by sync-dir-s3.
//
// Every component that touches local files goes through Filesystem so that
// tests can run against an in-memory tree.
package fs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File is an open file. Read returns io.EOF unwrapped.
type File interface {
	io.ReadWriteSeeker
	io.Closer
	Name() string
	Stat() (fs.FileInfo, error)
}

// Filesystem is the set of operations sync-dir-s3 performs on local files.
type Filesystem interface {
	Exists(path string) (bool, error)
	MkdirAll(path string, perm os.FileMode) error
	Open(name string) (File, error)
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	ReadDir(dirname string) ([]os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	Walk(root string, walkFn filepath.WalkFunc) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
}
