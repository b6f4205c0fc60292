// Package fileutil implements the filesystem primitives used to execute jobs:
// verified copies that keep timestamps, moves that fall back to copy+delete
// across filesystems, and a placeholder writer for rehearsal runs.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/djherbis/times"
)

// ErrDestinationExists is returned when a copy or move target already exists.
var ErrDestinationExists = errors.New("destination already exists")

// CopyPreserving copies src to dst with SHA256 + size verification, then
// applies the source's permission bits and access/modification times. The data
// is staged in a temporary file next to dst, so dst either appears complete or
// not at all. An existing dst is never overwritten.
func CopyPreserving(src, dst string) error {
	if err := ensureAbsent(dst); err != nil {
		return err
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := copyVerified(src, tmp, srcInfo.Size()); err != nil {
		return err
	}
	if err := tmp.Chmod(srcInfo.Mode().Perm()); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := preserveTimes(src, tmpPath, srcInfo); err != nil {
		return err
	}
	if err := ensureAbsent(dst); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return err
	}
	committed = true
	return nil
}

func copyVerified(src string, out *os.File, srcSize int64) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return err
	}
	if written != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

func preserveTimes(src, dst string, srcInfo os.FileInfo) error {
	atime := srcInfo.ModTime()
	if ts, err := times.Stat(src); err == nil {
		atime = ts.AccessTime()
	}
	return os.Chtimes(dst, atime, srcInfo.ModTime())
}

// Move renames src to dst. When the two paths live on different filesystems it
// falls back to CopyPreserving followed by removal of src. An existing dst is
// never overwritten.
func Move(src, dst string) error {
	if err := ensureAbsent(dst); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	if err := CopyPreserving(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove moved source: %w", err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

func ensureAbsent(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrDestinationExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Mkdir creates a single directory; an existing directory is accepted.
func Mkdir(path string) error {
	err := os.Mkdir(path, 0o755)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrExist) {
		info, statErr := os.Stat(path)
		if statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	return err
}
