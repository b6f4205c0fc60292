package media

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// File describes one media file. Path and Captured are fixed at construction;
// only a successful move job rewrites Path so later jobs see the new location.
type File struct {
	Path     string
	Captured time.Time
	// Originated marks files that already live inside the destination tree
	// from an earlier run. They are moved rather than copied.
	Originated bool

	size      int64
	sizeErr   error
	sizeKnown bool
	stat      func(string) (os.FileInfo, error)
}

// Option customizes a File at construction.
type Option func(*File)

// WithSize records a known byte length, skipping the lazy stat.
func WithSize(size int64) Option {
	return func(f *File) {
		f.size = size
		f.sizeKnown = true
	}
}

// Originated marks the file as already organized by a previous run.
func Originated() Option {
	return func(f *File) { f.Originated = true }
}

// NewFile builds a descriptor. The capture timestamp must already be resolved
// (see the metadata package); a zero timestamp is rejected.
func NewFile(path string, captured time.Time, opts ...Option) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("media file: empty path")
	}
	if captured.IsZero() {
		return nil, fmt.Errorf("media file %s: capture timestamp missing", path)
	}
	f := &File{Path: path, Captured: captured, stat: os.Stat}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Size returns the file's byte length, stat-ing it on first use. The result
// (or error) is cached for the rest of the run.
func (f *File) Size() (int64, error) {
	if !f.sizeKnown {
		stat := f.stat
		if stat == nil {
			stat = os.Stat
		}
		info, err := stat(f.Path)
		if err != nil {
			f.sizeErr = fmt.Errorf("stat %s: %w", f.Path, err)
		} else {
			f.size = info.Size()
		}
		f.sizeKnown = true
	}
	return f.size, f.sizeErr
}

// Name returns the base name including extension.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Stem returns the base name without its extension.
func (f *File) Stem() string {
	name := f.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Ext returns the extension including the leading dot, as found on disk.
func (f *File) Ext() string {
	return filepath.Ext(f.Path)
}

func (f *File) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Captured.Format(time.DateOnly))
}

// Compare orders files by capture time ascending, then by size descending so
// the larger (presumably higher resolution) copy comes first and wins naming
// collisions. Among equal time and size, originated files come first so the
// organized copy is moved and the source copy becomes its duplicate. Path
// makes the order total. Files whose size cannot be read sort as zero bytes;
// the error surfaces again when the planner asks.
func Compare(a, b *File) int {
	if c := a.Captured.Compare(b.Captured); c != 0 {
		return c
	}
	sa, _ := a.Size()
	sb, _ := b.Size()
	if c := cmp.Compare(sb, sa); c != 0 {
		return c
	}
	if a.Originated != b.Originated {
		if a.Originated {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.Path, b.Path)
}

// Sort orders files in place using Compare.
func Sort(files []*File) {
	slices.SortStableFunc(files, Compare)
}
