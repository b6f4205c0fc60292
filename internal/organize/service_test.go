package organize_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"photodistributor/internal/config"
	"photodistributor/internal/destination"
	"photodistributor/internal/jobs"
	"photodistributor/internal/journal"
	"photodistributor/internal/logging"
	"photodistributor/internal/organize"
	"photodistributor/internal/services"
	"photodistributor/internal/testsupport"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.Local)
}

type eventLog struct{ events []jobs.Event }

func (e *eventLog) JobFinished(ev jobs.Event) { e.events = append(e.events, ev) }

func seedSources(t *testing.T, cfg *config.Config) {
	t.Helper()
	src := cfg.Paths.Sources[0]
	testsupport.WriteMedia(t, filepath.Join(src, "a.jpg"), 100, at(2023, 1, 2))
	testsupport.WriteMedia(t, filepath.Join(src, "b.jpg"), 200, at(2023, 1, 9))
	testsupport.WriteMedia(t, filepath.Join(src, "c.jpg"), 300, at(2023, 2, 1))
	testsupport.WriteMedia(t, filepath.Join(src, "trip", "a.jpg"), 400, at(2023, 2, 3))
	testsupport.WriteMedia(t, filepath.Join(src, "copy", "b.jpg"), 200, at(2023, 1, 9))
	testsupport.WriteMedia(t, filepath.Join(src, "edit", "c.jpg"), 150, at(2023, 2, 1))
	testsupport.WriteFile(t, filepath.Join(src, "notes.txt"), 10)
}

func TestRunOrganizesAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	seedSources(t, cfg)
	events := &eventLog{}
	svc := organize.NewService(cfg, store, logging.NewNop(), organize.WithObserver(events))

	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := testsupport.ListFiles(t, cfg.Paths.Destination)
	slices.Sort(got)
	want := []string{
		"2023/01 - 02/a.jpg",
		"2023/01 - 02/a_1.jpg",
		"2023/01 - 02/b.jpg",
		"2023/01 - 02/c.jpg",
		"WeirdFiles/1.jpg",
		"WeirdFiles/chosen_1.jpg",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("destination files =\n%v\nwant\n%v", got, want)
	}
	if report.RunID == "" || len(events.events) != len(report.Plan.Jobs) {
		t.Fatalf("report %+v, %d events", report, len(events.events))
	}

	info, err := os.Stat(filepath.Join(cfg.Paths.Destination, "2023", "01 - 02", "a_1.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(at(2023, 2, 3)) {
		t.Fatalf("copy must keep mtime, got %v", info.ModTime())
	}

	run, err := store.GetRun(context.Background(), report.RunID)
	if err != nil || run == nil || run.Status != journal.StatusCompleted || run.Counts.Copied != 6 {
		t.Fatalf("journal run = %#v, %v", run, err)
	}
	records, err := store.RunJobs(context.Background(), report.RunID)
	if err != nil || len(records) != len(report.Plan.Jobs) {
		t.Fatalf("journal jobs = %d, %v", len(records), err)
	}

	second, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if second.Execution.Copied != 0 || second.Execution.Moved != 0 {
		t.Fatalf("re-run must not copy or move: %+v", second.Execution)
	}
	again := testsupport.ListFiles(t, cfg.Paths.Destination)
	slices.Sort(again)
	if !slices.Equal(again, want) {
		t.Fatalf("re-run changed destination: %v", again)
	}
}

func TestRunRefusesUnrelatedDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	seedSources(t, cfg)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.Destination, "taxes.pdf"), 10)
	events := &eventLog{}
	svc := organize.NewService(cfg, store, nil, organize.WithObserver(events))

	_, err := svc.Run(context.Background(), false)
	if !errors.Is(err, destination.ErrUnrecognizedDestination) {
		t.Fatalf("expected refusal, got %v", err)
	}
	if services.ExitCode(err) != 2 {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
	if len(events.events) != 0 {
		t.Fatalf("no job may run after refusal, saw %d", len(events.events))
	}
	if got := testsupport.ListFiles(t, cfg.Paths.Destination); !slices.Equal(got, []string{"taxes.pdf"}) {
		t.Fatalf("destination modified: %v", got)
	}
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 0 {
		t.Fatalf("refused run must not be journaled: %d, %v", len(runs), err)
	}
}

func TestRunAcceptsJournaledDestinationAfterQuarantinePruned(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.WriteMedia(t, filepath.Join(cfg.Paths.Sources[0], "a.jpg"), 10, at(2022, 5, 1))
	svc := organize.NewService(cfg, store, nil)

	if _, err := svc.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.Destination, "WeirdFiles")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unused quarantine should be pruned, stat err = %v", err)
	}

	testsupport.WriteMedia(t, filepath.Join(cfg.Paths.Sources[0], "b.jpg"), 10, at(2022, 5, 2))
	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("second run refused: %v", err)
	}
	if report.Execution.Copied != 1 {
		t.Fatalf("expected one new copy, got %+v", report.Execution)
	}
}

func TestPlanDoesNotTouchFilesystem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSources(t, cfg)
	svc := organize.NewService(cfg, nil, nil)

	report, err := svc.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Plan.Stats.Quarantined != 1 || report.Plan.Stats.Duplicates != 1 || report.Scan.Files != 6 {
		t.Fatalf("unexpected report %+v %+v", report.Plan.Stats, report.Scan)
	}
	if _, err := os.Stat(cfg.Paths.Destination); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("plan must not create the destination, stat err = %v", err)
	}
}

func TestRunWithPlaceholders(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteMedia(t, filepath.Join(cfg.Paths.Sources[0], "a.jpg"), 10, at(2021, 3, 4))
	svc := organize.NewService(cfg, nil, nil)

	if _, err := svc.Run(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	got := testsupport.ListFiles(t, cfg.Paths.Destination)
	if !slices.Equal(got, []string{"2021/03/a.jpg.txt"}) {
		t.Fatalf("placeholder run wrote %v", got)
	}
}

func TestRunReorganizesDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSources(), testsupport.WithIncludeDestination())
	dest := cfg.Paths.Destination
	testsupport.WriteMedia(t, filepath.Join(dest, "2023", "01 - 03", "a.jpg"), 10, at(2023, 2, 1))
	if err := os.MkdirAll(filepath.Join(dest, "WeirdFiles"), 0o755); err != nil {
		t.Fatal(err)
	}
	svc := organize.NewService(cfg, nil, nil)

	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if report.Execution.Moved != 1 {
		t.Fatalf("expected one move, got %+v", report.Execution)
	}
	got := testsupport.ListFiles(t, dest)
	if !slices.Equal(got, []string{"2023/02/a.jpg"}) {
		t.Fatalf("destination = %v", got)
	}
	for _, pruned := range report.Execution.Pruned {
		if pruned == filepath.Join(dest, "2023", "01 - 03") {
			return
		}
	}
	t.Fatalf("old bucket should be pruned, pruned = %v", report.Execution.Pruned)
}

func TestRunRespectsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedSources(t, cfg)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	lock, err := destination.AcquireLock(cfg.LockDir(), cfg.Paths.Destination)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lock.Release() }()

	_, err = organize.NewService(cfg, nil, nil).Run(context.Background(), false)
	if !errors.Is(err, destination.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func sortedFiles(t *testing.T, root string) []string {
	t.Helper()
	got := testsupport.ListFiles(t, root)
	slices.Sort(got)
	return got
}

func TestRunRelocatesOrganizedFilesWhenBucketsSplit(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithThreshold(1))
	store := testsupport.MustOpenJournal(t, cfg)
	src := cfg.Paths.Sources[0]
	testsupport.WriteMedia(t, filepath.Join(src, "a.jpg"), 100, at(2023, 1, 2))
	testsupport.WriteMedia(t, filepath.Join(src, "b.jpg"), 200, at(2023, 2, 3))
	svc := organize.NewService(cfg, store, nil)

	if _, err := svc.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if got := sortedFiles(t, cfg.Paths.Destination); !slices.Equal(got, []string{"2023/01 - 02/a.jpg", "2023/01 - 02/b.jpg"}) {
		t.Fatalf("first run = %v", got)
	}

	testsupport.WriteMedia(t, filepath.Join(src, "c.jpg"), 300, at(2023, 2, 5))
	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2023/01/a.jpg", "2023/02/b.jpg", "2023/02/c.jpg"}
	if got := sortedFiles(t, cfg.Paths.Destination); !slices.Equal(got, want) {
		t.Fatalf("second run = %v, want %v", got, want)
	}
	if report.Execution.Copied != 1 || report.Execution.Moved != 2 || report.Plan.Stats.Relocated != 2 {
		t.Fatalf("expected one copy and two relocations, got %+v / %+v", report.Execution, report.Plan.Stats)
	}

	third, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if third.Execution.Copied != 0 || third.Execution.Moved != 0 {
		t.Fatalf("third run must be a no-op: %+v", third.Execution)
	}
}

func TestRunPrefersOrganizedCopyOnTie(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithThreshold(1), testsupport.WithIncludeDestination())
	// The destination path sorts after the source path.
	cfg.Paths.Destination = filepath.Join(testsupport.BaseDir(cfg), "zlibrary")
	store := testsupport.MustOpenJournal(t, cfg)
	src := cfg.Paths.Sources[0]
	testsupport.WriteMedia(t, filepath.Join(src, "a.jpg"), 100, at(2023, 1, 2))
	testsupport.WriteMedia(t, filepath.Join(src, "b.jpg"), 200, at(2023, 2, 3))
	svc := organize.NewService(cfg, store, nil)

	if _, err := svc.Run(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteMedia(t, filepath.Join(src, "c.jpg"), 300, at(2023, 2, 5))
	report, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2023/01/a.jpg", "2023/02/b.jpg", "2023/02/c.jpg"}
	if got := sortedFiles(t, cfg.Paths.Destination); !slices.Equal(got, want) {
		t.Fatalf("destination = %v, want %v", got, want)
	}
	if report.Execution.Copied != 1 || report.Execution.Moved != 2 {
		t.Fatalf("organized copies must be moved, sources skipped: %+v", report.Execution)
	}
}

func TestRunIncludeDestinationOnFirstRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithIncludeDestination())
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.WriteMedia(t, filepath.Join(cfg.Paths.Sources[0], "a.jpg"), 10, at(2022, 5, 1))

	report, err := organize.NewService(cfg, store, nil).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("first run with a missing destination failed: %v", err)
	}
	if report.Execution.Copied != 1 {
		t.Fatalf("expected one copy, got %+v", report.Execution)
	}
	if got := sortedFiles(t, cfg.Paths.Destination); !slices.Equal(got, []string{"2022/05/a.jpg"}) {
		t.Fatalf("destination = %v", got)
	}
}
