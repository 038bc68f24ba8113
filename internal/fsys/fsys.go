// Package fsys is the file system seam used by the patch and export passes.
// Production code uses [Real]; tests substitute their own [FS] to inject
// failures.
package fsys

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FS is the subset of file operations the exporter needs.
type FS interface {
	// ReadFile returns the whole content of path.
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the content of path in one step.
	WriteFile(path string, data []byte) error
	// Exists reports whether path exists. Errors other than "not exist" are returned.
	Exists(path string) (bool, error)
	// MkdirAll creates path and any missing parents.
	MkdirAll(path string, perm os.FileMode) error
}

// Real implements [FS] on the local file system.
type Real struct{}

// NewReal returns a new [Real] file system.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// newFileMode is applied to files WriteFile creates. The temp file behind
// an atomic write is 0600.
const newFileMode os.FileMode = 0o644

// WriteFile replaces path through a temp file and rename, keeping the mode
// of the existing file. New files get newFileMode. Symlinks are followed so
// the link itself survives.
func (r *Real) WriteFile(path string, data []byte) error {
	created := false
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		target = path
		created = true
	}
	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return err
	}
	if created {
		return os.Chmod(target, newFileMode)
	}
	return nil
}

// Exists checks if a file exists using [os.Stat].
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// A passthrough wrapper for [os.MkdirAll].
func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

var _ FS = (*Real)(nil)
