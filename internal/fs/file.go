package fs

import (
	stderrors "errors"
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
)

type billyFile struct {
	file billy.File
	fs   *FS
}

func (f *billyFile) Name() string {
	return f.file.Name()
}

func (f *billyFile) Read(p []byte) (int, error) {
	n, err := f.file.Read(p)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return n, pathErr("read", f.Name(), err)
	}
	return n, err
}

func (f *billyFile) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	if err != nil {
		return n, pathErr("write", f.Name(), err)
	}
	return n, nil
}

func (f *billyFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.file.Seek(offset, whence)
	if err != nil {
		return pos, pathErr("seek", f.Name(), err)
	}
	return pos, nil
}

func (f *billyFile) Stat() (fs.FileInfo, error) {
	return f.fs.Stat(f.Name())
}

func (f *billyFile) Close() error {
	if err := f.file.Close(); err != nil {
		return pathErr("close", f.Name(), err)
	}
	return nil
}

// Sync flushes to stable storage when the backend file supports it. The
// osfs chroot wrapper does not, in which case Sync is a no-op.
func (f *billyFile) Sync() error {
	s, ok := f.file.(interface{ Sync() error })
	if !ok {
		return nil
	}
	if err := s.Sync(); err != nil {
		return pathErr("sync", f.Name(), err)
	}
	return nil
}
