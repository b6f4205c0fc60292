package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"photodistributor/internal/logging"
	"photodistributor/internal/services"
)

// Event describes one finished job. Source is the source path as it was
// before the job ran, since a move rewrites the descriptor.
type Event struct {
	Index  int
	Total  int
	Job    Job
	Source string
	Err    error
}

// Observer receives per-job progress. Implementations are called from the
// executor goroutine only.
type Observer interface {
	JobFinished(Event)
}

// Result summarizes an execution.
type Result struct {
	Executed int
	Created  int
	Copied   int
	Moved    int
	Pruned   []string
}

// Executor runs job lists in order.
type Executor struct {
	fs       FS
	root     string
	logger   *slog.Logger
	observer Observer
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithObserver registers a progress observer.
func WithObserver(observer Observer) ExecutorOption {
	return func(e *Executor) { e.observer = observer }
}

// WithPruneRoot enables the empty-directory cleanup pass below root.
func WithPruneRoot(root string) ExecutorOption {
	return func(e *Executor) { e.root = root }
}

// NewExecutor builds an executor over fsys.
func NewExecutor(fsys FS, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{fs: fsys, logger: logging.NewComponentLogger(logger, "executor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes jobs strictly in order and then prunes empty directories. The
// first failure (or context cancellation) stops execution; jobs that already
// completed are left in place and the prune pass is skipped.
func (e *Executor) Run(ctx context.Context, jobs []Job) (Result, error) {
	logger := logging.WithContext(ctx, e.logger)
	var result Result
	total := len(jobs)

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			logger.Warn("execution interrupted",
				logging.Int("executed", result.Executed),
				logging.Int("remaining", total-i),
			)
			return result, err
		}
		source := job.SourcePath()
		err := job.Execute(ctx, e.fs)
		if e.observer != nil {
			e.observer.JobFinished(Event{Index: i, Total: total, Job: job, Source: source, Err: err})
		}
		if err != nil {
			logging.ErrorWithContext(logger, "job failed", "job_failed",
				logging.String("job", job.String()),
				logging.Int("index", i),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the filesystem problem and re-run; completed jobs are kept"),
			)
			return result, services.Wrap(services.ErrTransient, "execute", job.Kind.String(), job.String(), err)
		}
		result.Executed++
		switch job.Kind {
		case KindCreateDirectory:
			result.Created++
		case KindCopyFile:
			result.Copied++
		case KindMoveFile:
			result.Moved++
		}
		logger.Debug("job done", logging.String("job", job.String()))
	}

	if e.root != "" {
		pruned, err := PruneEmpty(e.root)
		result.Pruned = pruned
		if err != nil {
			return result, services.Wrap(services.ErrTransient, "execute", "prune", "remove empty directories", err)
		}
		if len(pruned) > 0 {
			logger.Info("removed empty directories", logging.Int("count", len(pruned)))
		}
	}
	return result, nil
}

// PruneEmpty removes every directory below root that is empty, deepest first,
// so parents emptied by the removal of their children go too. Root itself is
// kept. The removed paths are returned in removal order.
func PruneEmpty(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(dirs, func(a, b string) int {
		return depth(b) - depth(a)
	})

	var removed []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, err
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}
