package fileutil

import (
	"fmt"
	"os"
	"time"
)

// PlaceholderSuffix is appended to the target name of rehearsal writes.
const PlaceholderSuffix = ".txt"

// OS performs real filesystem operations.
type OS struct{}

func (OS) Mkdir(path string) error    { return Mkdir(path) }
func (OS) Copy(src, dst string) error { return CopyPreserving(src, dst) }
func (OS) Move(src, dst string) error { return Move(src, dst) }

// Placeholder creates the real directory structure but writes a small text
// file naming the source instead of copying or moving media. Sources are never
// touched.
type Placeholder struct{}

func (Placeholder) Mkdir(path string) error { return Mkdir(path) }

func (Placeholder) Copy(src, dst string) error { return writePlaceholder("copy", src, dst) }

func (Placeholder) Move(src, dst string) error { return writePlaceholder("move", src, dst) }

// PlaceholderPath returns the file a rehearsal write produces for dst.
func PlaceholderPath(dst string) string {
	return dst + PlaceholderSuffix
}

func writePlaceholder(op, src, dst string) error {
	path := PlaceholderPath(dst)
	if err := ensureAbsent(path); err != nil {
		return err
	}
	body := fmt.Sprintf("%s %s\nwritten %s\n", op, src, time.Now().Format(time.RFC3339))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
