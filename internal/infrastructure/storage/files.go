package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yasakei/xos/internal/shared/errs"
	"github.com/yasakei/xos/internal/shared/paths"
)

// Permissions for created entries
const (
	DirPerm  fs.FileMode = 0o755
	FilePerm fs.FileMode = 0o644
)

const tempPrefix = ".tmp-"

// EnsureDir creates dir and any missing parents. An existing directory is
// not an error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return errs.FromOS("storage.mkdir", "failed to create directory", err)
	}
	return nil
}

// TempName returns the name of a temporary sibling used for atomic writes.
// Temporary names start with a dot so directory listings skip them.
func TempName() string {
	return tempPrefix + uuid.NewString()
}

// WriteFileAtomic writes data to path by writing a temporary sibling and
// renaming it over path. Missing parents are created. Concurrent writers
// race on the rename and the last one wins.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp := filepath.Join(dir, TempName())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePerm)
	if err != nil {
		return errs.FromOS("storage.write", "failed to save file", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.IOError, "storage.write", "failed to save file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.IOError, "storage.write", "failed to save file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.IOError, "storage.write", "failed to save file", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.IOError, "storage.write", "failed to save file", err)
	}
	return nil
}

// CreateExclusive creates path with data and fails with Conflict if path
// already exists.
func CreateExclusive(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errs.Wrap(errs.Conflict, "storage.create", "already exists", err)
		}
		return errs.FromOS("storage.create", "failed to create file", err)
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return errs.Wrap(errs.IOError, "storage.create", "failed to create file", werr)
	}
	return nil
}

// ReadFile reads path. A missing file is NotFound and a directory is
// InvalidPath.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.FromOS("storage.read", "file not found", err)
	}
	if info.IsDir() {
		return nil, errs.New(errs.InvalidPath, "storage.read", "path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FromOS("storage.read", "failed to read file", err)
	}
	return data, nil
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errs.FromOS("storage.stat", "failed to inspect path", err)
	}
}

// RemoveAll removes path recursively. A missing path is not an error.
func RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errs.FromOS("storage.remove", "failed to delete item", err)
	}
	return nil
}

// Move renames src to dst, creating the parents of dst. A missing src is
// NotFound; a dst inside src is InvalidPath. Moving onto itself is a no-op.
func Move(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return errs.FromOS("storage.move", "source not found", err)
	}
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	if src == dst {
		return nil
	}
	if paths.Within(src, dst) {
		return errs.New(errs.InvalidPath, "storage.move", "cannot move an item into itself")
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return errs.FromOS("storage.move", "failed to rename item", err)
	}
	return nil
}

// CopyFile copies the regular file src to dst, replacing dst atomically.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.FromOS("storage.copy", "failed to open source", err)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return errs.Wrap(errs.IOError, "storage.copy", "failed to read source", err)
	}
	return WriteFileAtomic(dst, data)
}
