package scan

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"photodistributor/internal/logging"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func extensions(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return set
}

func names(t *testing.T, result Result, base string) []string {
	t.Helper()
	var out []string
	for _, f := range result.Files {
		rel, err := filepath.Rel(base, f.Path)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	slices.Sort(out)
	return out
}

func TestScanFiltersByExtension(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	mtime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)
	touch(t, filepath.Join(src, "a.JPG"), mtime)
	touch(t, filepath.Join(src, "nested", "b.jpg"), mtime)
	touch(t, filepath.Join(src, "clip.mov"), mtime)
	touch(t, filepath.Join(src, "notes.txt"), mtime)
	touch(t, filepath.Join(src, "README"), mtime)

	s := New(Options{Sources: []string{src}, Extensions: extensions("JPG", "MOV")}, nil, logging.NewNop())
	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"src/a.JPG", "src/clip.mov", "src/nested/b.jpg"}
	if got := names(t, result, base); !slices.Equal(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	if result.Stats.Ignored != 2 || result.Stats.Fallbacks != 3 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}
	for _, f := range result.Files {
		if !f.Captured.Equal(mtime) || f.Originated {
			t.Fatalf("unexpected descriptor %+v", f)
		}
	}
}

func TestScanDestinationHandling(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(base, "dest")
	mtime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)
	touch(t, filepath.Join(base, "new.jpg"), mtime)
	touch(t, filepath.Join(dest, "2023", "01", "old.jpg"), mtime)
	touch(t, filepath.Join(dest, "WeirdFiles", "1.jpg"), mtime)

	opts := Options{
		Sources:       []string{base},
		Destination:   dest,
		QuarantineDir: "WeirdFiles",
		Extensions:    extensions("JPG"),
	}
	result, err := New(opts, nil, nil).Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := names(t, result, base); !slices.Equal(got, []string{"new.jpg"}) {
		t.Fatalf("destination must be skipped when walking sources, got %v", got)
	}

	opts.Sources = nil
	opts.IncludeDestination = true
	result, err = New(opts, nil, nil).Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := names(t, result, base); !slices.Equal(got, []string{"dest/2023/01/old.jpg"}) {
		t.Fatalf("files = %v", got)
	}
	if !result.Files[0].Originated || result.Stats.Originated != 1 {
		t.Fatalf("destination files must be originated: %+v", result.Stats)
	}
}

func TestScanDeduplicatesOverlappingSources(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "inner", "a.jpg"), time.Date(2023, 1, 2, 0, 0, 0, 0, time.Local))

	s := New(Options{Sources: []string{base, filepath.Join(base, "inner")}, Extensions: extensions("JPG")}, nil, nil)
	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected one file, got %d", len(result.Files))
	}
}

func TestScanMissingSource(t *testing.T) {
	s := New(Options{Sources: []string{filepath.Join(t.TempDir(), "missing")}, Extensions: extensions("JPG")}, nil, nil)
	if _, err := s.Scan(context.Background()); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestScanToleratesMissingDestination(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "src", "a.jpg"), time.Date(2023, 1, 2, 0, 0, 0, 0, time.Local))

	s := New(Options{
		Sources:            []string{filepath.Join(base, "src")},
		Destination:        filepath.Join(base, "library"),
		QuarantineDir:      "WeirdFiles",
		Extensions:         extensions("JPG"),
		IncludeDestination: true,
	}, nil, nil)
	result, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("missing destination must not fail the scan: %v", err)
	}
	if len(result.Files) != 1 || result.Stats.Originated != 0 {
		t.Fatalf("unexpected result %+v", result.Stats)
	}
}

func TestScanHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(Options{Sources: []string{t.TempDir()}, Extensions: extensions("JPG")}, nil, nil)
	if _, err := s.Scan(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
}
