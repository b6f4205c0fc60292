package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCopyPreservingKeepsContentAndTimes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	mtime := time.Date(2023, 1, 2, 10, 30, 0, 0, time.Local)
	writeFile(t, src, "hello world", mtime)

	if err := CopyPreserving(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("content mismatch: got %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), mtime)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode = %o, want 640", info.Mode().Perm())
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should remain: %v", err)
	}
}

func TestCopyPreservingRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	writeFile(t, src, "new", time.Time{})
	writeFile(t, dst, "old", time.Time{})

	err := CopyPreserving(src, dst)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("destination was overwritten: %q", got)
	}
}

func TestCopyPreservingLeavesNoTempOnFailure(t *testing.T) {
	dir := t.TempDir()
	err := CopyPreserving(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "dst.jpg"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestMoveRenamesAndRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")
	writeFile(t, src, "data", time.Time{})

	if err := Move(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should be gone, stat err = %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "data" {
		t.Fatalf("content mismatch: %q", got)
	}

	other := filepath.Join(dir, "c.jpg")
	writeFile(t, other, "other", time.Time{})
	if err := Move(other, dst); !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
}

func TestIsCrossDevice(t *testing.T) {
	err := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV}
	if !isCrossDevice(err) {
		t.Fatal("expected EXDEV link error to be detected")
	}
	if isCrossDevice(os.ErrPermission) {
		t.Fatal("permission error misdetected as cross-device")
	}
}

func TestMkdirIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2023")
	if err := Mkdir(dir); err != nil {
		t.Fatal(err)
	}
	if err := Mkdir(dir); err != nil {
		t.Fatalf("second mkdir: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x", time.Time{})
	if err := Mkdir(file); err == nil {
		t.Fatal("expected error when path is a regular file")
	}
}

func TestPlaceholderWritesTextFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeFile(t, src, "media", time.Time{})
	dst := filepath.Join(dir, "out", "a.jpg")

	var fsys Placeholder
	if err := fsys.Mkdir(filepath.Dir(dst)); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Move(src, dst); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(PlaceholderPath(dst))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(body), "move "+src) {
		t.Fatalf("unexpected placeholder body %q", body)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("placeholder move must keep source: %v", err)
	}
	if _, err := os.Stat(dst); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no media should be written, stat err = %v", err)
	}
}
