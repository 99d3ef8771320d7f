package buildstore

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// FS is a filesystem with ability to open files in either append-only,
// write-only, or read only mode. Parent directories are created as needed
// when opening files for writing.
type FS interface {
	// OpenAppend creates or opens a file in append-only mode, meaning all written
	// data is appended to the end.
	OpenAppend(name string) (io.WriteCloser, error)
	// OpenWrite creates or truncates a file in write-only mode.
	OpenWrite(name string) (io.WriteCloser, error)
	// OpenRead opens a file in read-only-mode, reading data from the start of
	// the file.
	OpenRead(name string) (io.ReadCloser, error)
	// ListDirEntries will list all files, directories, symlinks, and other entries
	// inside a directory, non-recursively. It does not include the current "."
	// or parent ".." directory names.
	ListDirEntries(name string) ([]fs.DirEntry, error)
	// EditLocked creates or opens a file for reading and writing, and holds an
	// exclusive lock on it, also between processes, until it is closed.
	EditLocked(name string) (LockedFile, error)
}

// LockedFile is a file opened via FS.EditLocked.
type LockedFile interface {
	io.ReadWriteSeeker
	io.Closer
	Truncate(size int64) error
}

// NewFS creates a filesystem that will use the given directory as the base
// directory when creating or reading files.
func NewFS(dir string) FS {
	return osFS{dir: dir}
}

type osFS struct {
	dir string
}

func (fs osFS) path(name string) string {
	return filepath.Join(fs.dir, filepath.FromSlash(name))
}

func (fs osFS) mkdirFor(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0775)
}

func (fs osFS) OpenAppend(name string) (io.WriteCloser, error) {
	path := fs.path(name)
	if err := fs.mkdirFor(path); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
}

func (fs osFS) OpenWrite(name string) (io.WriteCloser, error) {
	path := fs.path(name)
	if err := fs.mkdirFor(path); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

func (fs osFS) OpenRead(name string) (io.ReadCloser, error) {
	path := fs.path(name)
	return os.OpenFile(path, os.O_RDONLY, 0644)
}

func (fs osFS) ListDirEntries(name string) ([]fs.DirEntry, error) {
	path := fs.path(name)
	return os.ReadDir(path)
}

func (fs osFS) EditLocked(name string) (LockedFile, error) {
	path := fs.path(name)
	if err := fs.mkdirFor(path); err != nil {
		return nil, err
	}
	file, err := lockedfile.Edit(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}
