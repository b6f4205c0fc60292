package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type stubExtractor struct {
	ts  time.Time
	err error
}

func (s stubExtractor) CaptureTime(string) (time.Time, error) { return s.ts, s.err }

func TestResolverPrefersEmbeddedTimestamp(t *testing.T) {
	want := time.Date(2021, 7, 4, 12, 30, 0, 0, time.Local)
	r := NewResolver(stubExtractor{ts: want}, nil)

	got, err := r.Resolve("/does/not/matter.jpg")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Time.Equal(want) || got.Source != SourceEXIF {
		t.Fatalf("got %v (%s), want %v (exif)", got.Time, got.Source, want)
	}
}

func TestResolverFallsBackToModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not a photo"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2019, 2, 3, 4, 5, 6, 789, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(nil, nil)
	got, err := r.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Source != SourceModTime {
		t.Fatalf("expected mtime source, got %s", got.Source)
	}
	if !got.Time.Equal(mtime.Truncate(time.Second)) {
		t.Fatalf("got %v want %v", got.Time, mtime.Truncate(time.Second))
	}
}

func TestResolverWrapsForeignErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(stubExtractor{err: errors.New("boom")}, nil)
	got, err := r.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Source != SourceModTime {
		t.Fatalf("expected fallback, got %s", got.Source)
	}
}

func TestResolverFailsOnlyWhenFileIsGone(t *testing.T) {
	r := NewResolver(stubExtractor{err: errors.New("no exif")}, nil)
	if _, err := r.Resolve(filepath.Join(t.TempDir(), "gone.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEXIFReportsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	if err := os.WriteFile(path, []byte("plain bytes, no exif"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := EXIF{}.CaptureTime(path)
	var unavailable *Unavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected *Unavailable, got %v", err)
	}
	if unavailable.Path != path {
		t.Fatalf("unexpected path %q", unavailable.Path)
	}
}
