// Package fileutil holds the temp-file plus rename helpers shared by the
// score cache and the catalog writer.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// RenameFunc replaces newpath with oldpath. Production code uses os.Rename.
type RenameFunc func(oldpath, newpath string) error

// AtomicWriter writes files by staging them in a sibling temp file and
// renaming over the destination, so readers see either the old or the new
// content and never a torn write.
type AtomicWriter struct {
	// Rename defaults to os.Rename when nil.
	Rename RenameFunc
}

// WriteFileAtomic writes data to path with the default AtomicWriter.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return AtomicWriter{}.WriteFile(path, data, perm)
}

// WriteFile stages data next to path and renames it into place. The temp file
// is removed when any step fails.
func (w AtomicWriter) WriteFile(path string, data []byte, perm os.FileMode) error {
	rename := w.Rename
	if rename == nil {
		rename = os.Rename
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// CopyFile snapshots src into dst through the writer, preserving the source
// permissions. The returned digest is the SHA-256 of the copied bytes.
func (w AtomicWriter) CopyFile(src, dst string) ([]byte, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if int64(len(data)) != info.Size() {
		return nil, fmt.Errorf("copy size mismatch: source %d bytes, read %d bytes", info.Size(), len(data))
	}
	if err := w.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// SameContent reports whether two files hold identical bytes.
func SameContent(a, b string) (bool, error) {
	left, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	right, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}
