package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"photodistributor/internal/logging"
	"photodistributor/internal/media"
	"photodistributor/internal/services"
)

type recordingFS struct {
	calls  []string
	failOn string
}

func (r *recordingFS) record(op, target string) error {
	r.calls = append(r.calls, op+" "+target)
	if r.failOn != "" && target == r.failOn {
		return errors.New("disk full")
	}
	return nil
}

func (r *recordingFS) Mkdir(path string) error    { return r.record("mkdir", path) }
func (r *recordingFS) Copy(src, dst string) error { return r.record("copy "+src, dst) }
func (r *recordingFS) Move(src, dst string) error { return r.record("move "+src, dst) }

type countingObserver struct {
	finished int
	failed   int
}

func (c *countingObserver) JobFinished(ev Event) {
	c.finished++
	if ev.Err != nil {
		c.failed++
	}
}

func newFile(t *testing.T, path string) *media.File {
	t.Helper()
	f, err := media.NewFile(path, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), media.WithSize(10))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestMoveRewritesSourcePath(t *testing.T) {
	f := newFile(t, "/dest/old/a.jpg")
	fsys := &recordingFS{}
	jobs := []Job{
		MoveFile(f, "/dest/2023/01/a.jpg"),
		CopyFile(f, "/dest/quarantine/chosen_1.jpg"),
	}

	for _, job := range jobs {
		if err := job.Execute(context.Background(), fsys); err != nil {
			t.Fatal(err)
		}
	}

	if f.Path != "/dest/2023/01/a.jpg" {
		t.Fatalf("source path = %q", f.Path)
	}
	want := []string{
		"move /dest/old/a.jpg /dest/2023/01/a.jpg",
		"copy /dest/2023/01/a.jpg /dest/quarantine/chosen_1.jpg",
	}
	if !slices.Equal(fsys.calls, want) {
		t.Fatalf("calls = %v, want %v", fsys.calls, want)
	}
}

func TestFailedMoveKeepsSourcePath(t *testing.T) {
	f := newFile(t, "/src/a.jpg")
	fsys := &recordingFS{failOn: "/dest/a.jpg"}
	if err := MoveFile(f, "/dest/a.jpg").Execute(context.Background(), fsys); err == nil {
		t.Fatal("expected failure")
	}
	if f.Path != "/src/a.jpg" {
		t.Fatalf("path changed after failed move: %q", f.Path)
	}
}

func TestJobString(t *testing.T) {
	f := newFile(t, "/src/a.jpg")
	cases := map[string]Job{
		"Create directory /dest/2023":  CreateDirectory("/dest/2023"),
		"Copy /src/a.jpg -> /d/a.jpg": CopyFile(f, "/d/a.jpg"),
		"Move /src/a.jpg -> /d/a.jpg": MoveFile(f, "/d/a.jpg"),
	}
	for want, job := range cases {
		if got := job.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}

func TestExecutorHaltsOnFirstFailure(t *testing.T) {
	f := newFile(t, "/src/a.jpg")
	fsys := &recordingFS{failOn: "/dest/2023/01/a.jpg"}
	observer := &countingObserver{}
	executor := NewExecutor(fsys, logging.NewNop(), WithObserver(observer))

	result, err := executor.Run(context.Background(), []Job{
		CreateDirectory("/dest/2023"),
		CreateDirectory("/dest/2023/01"),
		CopyFile(f, "/dest/2023/01/a.jpg"),
		CreateDirectory("/dest/2024"),
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if result.Executed != 2 || result.Created != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(fsys.calls) != 3 {
		t.Fatalf("jobs after the failure must not run, calls = %v", fsys.calls)
	}
	if observer.finished != 3 || observer.failed != 1 {
		t.Fatalf("observer saw %d finished, %d failed", observer.finished, observer.failed)
	}
}

func TestExecutorStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fsys := &recordingFS{}
	executor := NewExecutor(fsys, logging.NewNop())

	result, err := executor.Run(ctx, []Job{CreateDirectory("/dest/2023")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Executed != 0 || len(fsys.calls) != 0 {
		t.Fatalf("no job should run after cancellation: %+v %v", result, fsys.calls)
	}
}

func TestPruneEmptyRemovesNestedEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	mustMkdir := func(parts ...string) string {
		path := filepath.Join(append([]string{root}, parts...)...)
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatal(err)
		}
		return path
	}
	mustMkdir("2022", "03", "deep")
	kept := mustMkdir("2023", "01 - 02")
	mustMkdir("quarantine")
	if err := os.WriteFile(filepath.Join(kept, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneEmpty(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 4 {
		t.Fatalf("removed = %v", removed)
	}
	for _, gone := range []string{"2022", "quarantine"} {
		if _, err := os.Stat(filepath.Join(root, gone)); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s should be removed", gone)
		}
	}
	if _, err := os.Stat(kept); err != nil {
		t.Fatalf("non-empty directory removed: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root must survive: %v", err)
	}
}

func TestPruneEmptyMissingRoot(t *testing.T) {
	removed, err := PruneEmpty(filepath.Join(t.TempDir(), "missing"))
	if err != nil || len(removed) != 0 {
		t.Fatalf("missing root should be a no-op, got %v %v", removed, err)
	}
}
