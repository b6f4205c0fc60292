package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"photodistributor/internal/config"
	"photodistributor/internal/destination"
	"photodistributor/internal/fileutil"
	"photodistributor/internal/jobs"
	"photodistributor/internal/journal"
	"photodistributor/internal/logging"
	"photodistributor/internal/metadata"
	"photodistributor/internal/planner"
	"photodistributor/internal/preflight"
	"photodistributor/internal/scan"
	"photodistributor/internal/services"
)

// Report describes a plan or run.
type Report struct {
	RunID        string
	Destination  string
	Placeholders bool
	Scan         scan.Stats
	Plan         planner.Result
	Execution    jobs.Result
	StartedAt    time.Time
	Duration     time.Duration
}

// Service orchestrates planning and execution.
type Service struct {
	cfg       *config.Config
	store     *journal.Store
	logger    *slog.Logger
	extractor metadata.Extractor
	observers []jobs.Observer
}

// Option customizes a Service.
type Option func(*Service)

// WithObserver adds a job progress observer used by Run.
func WithObserver(observer jobs.Observer) Option {
	return func(s *Service) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// WithExtractor overrides the capture-time extractor.
func WithExtractor(extractor metadata.Extractor) Option {
	return func(s *Service) { s.extractor = extractor }
}

// NewService builds a service. store may be nil, in which case runs are not
// journaled and only the quarantine directory marks a known destination.
func NewService(cfg *config.Config, store *journal.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "organize"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan computes the job list without touching the filesystem.
func (s *Service) Plan(ctx context.Context) (*Report, error) {
	report := &Report{Destination: s.cfg.Paths.Destination, StartedAt: time.Now()}
	if err := s.prepare(ctx, report); err != nil {
		return nil, err
	}
	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// Run plans and executes under the destination lock. Jobs completed before a
// failure stay in place; the returned report reflects what ran.
func (s *Service) Run(ctx context.Context, placeholders bool) (*Report, error) {
	report := &Report{
		Destination:  s.cfg.Paths.Destination,
		Placeholders: placeholders,
		StartedAt:    time.Now(),
	}
	dest := s.cfg.Paths.Destination

	if err := s.cfg.ValidateRun(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "preflight", "validate config", "", err)
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "preflight", "ensure directories", "", err)
	}
	lock, err := destination.AcquireLock(s.cfg.LockDir(), dest)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "preflight", "lock destination", dest, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn("release destination lock failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if it persists"),
				logging.String(logging.FieldImpact, "next run may report the destination as locked"),
			)
		}
	}()

	if s.store != nil {
		n, err := s.store.MarkInterrupted(ctx, dest)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "preflight", "journal", "mark interrupted runs", err)
		}
		if n > 0 {
			s.logger.Info("marked stale runs as interrupted", logging.Int64("count", n))
		}
	}

	if err := s.prepare(ctx, report); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, services.Wrap(services.ErrValidation, "execute", "create destination", dest, err)
	}

	observers := append([]jobs.Observer(nil), s.observers...)
	if s.store != nil {
		run, err := s.store.BeginRun(ctx, dest, s.cfg.Paths.Sources, placeholders, len(report.Plan.Jobs))
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "execute", "journal", "begin run", err)
		}
		report.RunID = run.ID
		observers = append(observers, &journalRecorder{store: s.store, runID: run.ID, logger: s.logger})
	}
	if report.RunID != "" {
		ctx = services.WithRunID(ctx, report.RunID)
	}
	ctx = services.WithStage(ctx, "execute")
	logger := logging.WithContext(ctx, s.logger)

	var fsys jobs.FS = fileutil.OS{}
	if placeholders {
		fsys = fileutil.Placeholder{}
	}
	executor := jobs.NewExecutor(fsys, s.logger,
		jobs.WithObserver(fanout(observers)),
		jobs.WithPruneRoot(dest),
	)

	logger.Info("executing jobs",
		logging.Int("jobs", len(report.Plan.Jobs)),
		logging.Bool("placeholders", placeholders),
	)
	result, runErr := executor.Run(ctx, report.Plan.Jobs)
	report.Execution = result
	report.Duration = time.Since(report.StartedAt)

	if s.store != nil {
		status := journal.StatusCompleted
		switch {
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			status = journal.StatusInterrupted
		case runErr != nil:
			status = journal.StatusFailed
		}
		// Recorded even when ctx was cancelled.
		finishCtx := context.WithoutCancel(ctx)
		if err := s.store.FinishRun(finishCtx, report.RunID, status, countsFor(report), runErr); err != nil {
			logging.WarnWithContext(logger, "journal update failed", "journal_finish_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check "+s.store.Path()),
				logging.String(logging.FieldImpact, "run history shows this run as still running"),
			)
		}
	}
	if runErr != nil {
		return report, runErr
	}

	logger.Info("run complete",
		logging.Int("executed", result.Executed),
		logging.Int("copied", result.Copied),
		logging.Int("moved", result.Moved),
		logging.Int("pruned", len(result.Pruned)),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

// prepare runs preflight, the safety check, the scan and the planner.
func (s *Service) prepare(ctx context.Context, report *Report) error {
	cfg := s.cfg
	if err := cfg.ValidateRun(); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "validate config", "", err)
	}
	dest := cfg.Paths.Destination

	ctx = services.WithStage(ctx, "preflight")
	results := preflight.RunAll(ctx, cfg)
	if err := preflight.Err(results); err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "check paths", "", err)
	}
	logging.WithContext(ctx, s.logger).Debug("preflight passed", logging.String("summary", preflight.Summary(results)))

	known := false
	if s.store != nil {
		var err error
		known, err = s.store.HasOrganized(ctx, dest)
		if err != nil {
			return services.Wrap(services.ErrTransient, "preflight", "journal", "query destination history", err)
		}
	}
	if err := destination.Check(dest, cfg.Organize.QuarantineDir, known); err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "destination refused", "destination_refused",
			logging.String("destination", dest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "choose an empty destination or one organized by photodistributor"),
		)
		return err
	}

	resolver := metadata.NewResolver(s.extractor, s.logger)
	ctx = services.WithStage(ctx, "scan")
	scanner := scan.New(scan.Options{
		Sources:            cfg.Paths.Sources,
		Destination:        dest,
		QuarantineDir:      cfg.Organize.QuarantineDir,
		Extensions:         cfg.ExtensionSet(),
		IncludeDestination: cfg.Organize.IncludeDestination,
	}, resolver, s.logger)
	scanned, err := scanner.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return services.Wrap(services.ErrValidation, "scan", "walk sources", "", err)
	}
	report.Scan = scanned.Stats

	ctx = services.WithStage(ctx, "plan")
	qroot := filepath.Join(dest, cfg.Organize.QuarantineDir)
	counter, err := destination.NextCollisionIndex(qroot)
	if err != nil {
		return services.Wrap(services.ErrTransient, "plan", "seed collision counter", qroot, err)
	}
	p, err := planner.New(planner.Options{
		Root:              dest,
		QuarantineDir:     cfg.Organize.QuarantineDir,
		Threshold:         cfg.Organize.Threshold,
		MaxRenameAttempts: cfg.Organize.MaxRenameAttempts,
	}, destination.NewInventory(resolver, s.logger), s.logger)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "plan", "build planner", "", err)
	}
	plan, err := p.Plan(ctx, scanned.Files, counter)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return services.Wrap(services.ErrValidation, "plan", "plan jobs", "", err)
	}
	report.Plan = plan

	logging.WithContext(ctx, s.logger).Info("plan ready",
		logging.Int("files", plan.Stats.Files),
		logging.Int("buckets", plan.Stats.Buckets),
		logging.Int("jobs", len(plan.Jobs)),
		logging.Int("duplicates", plan.Stats.Duplicates),
		logging.Int("quarantined", plan.Stats.Quarantined),
		logging.Int("next_collision", plan.Counter),
	)
	return nil
}

func countsFor(report *Report) journal.Counts {
	return journal.Counts{
		Planned:     len(report.Plan.Jobs),
		Executed:    report.Execution.Executed,
		Created:     report.Execution.Created,
		Copied:      report.Execution.Copied,
		Moved:       report.Execution.Moved,
		Duplicates:  report.Plan.Stats.Duplicates,
		Quarantined: report.Plan.Stats.Quarantined,
		Pruned:      len(report.Execution.Pruned),
	}
}

type journalRecorder struct {
	store  *journal.Store
	runID  string
	logger *slog.Logger
}

func (r *journalRecorder) JobFinished(ev jobs.Event) {
	rec := journal.JobRecord{
		RunID:  r.runID,
		Seq:    ev.Index,
		Kind:   ev.Job.Kind.String(),
		Source: ev.Source,
		Target: ev.Job.Target,
	}
	if ev.Err != nil {
		rec.ErrorMessage = ev.Err.Error()
	}
	if recErr := r.store.RecordJob(context.Background(), rec); recErr != nil {
		r.logger.Warn("journal job record failed",
			logging.String("job", ev.Job.String()),
			logging.Error(recErr),
			logging.String(logging.FieldEventType, "journal_record_failed"),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("check %s", r.store.Path())),
			logging.String(logging.FieldImpact, "run history misses this job"),
		)
	}
}

type fanout []jobs.Observer

func (f fanout) JobFinished(ev jobs.Event) {
	for _, o := range f {
		o.JobFinished(ev)
	}
}
