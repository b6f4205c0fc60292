package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const runColumns = `id, destination, sources, placeholders, status, planned, executed, created,
	copied, moved, duplicates, quarantined, pruned, error_message, started_at, finished_at`

// BeginRun records a new running entry and returns it with a fresh ID.
func (s *Store) BeginRun(ctx context.Context, destination string, sources []string, placeholders bool, planned int) (*Run, error) {
	if destination == "" {
		return nil, errors.New("begin run: destination required")
	}
	encoded, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("encode sources: %w", err)
	}
	run := &Run{
		ID:           uuid.NewString(),
		Destination:  filepath.Clean(destination),
		Sources:      append([]string(nil), sources...),
		Placeholders: placeholders,
		Status:       StatusRunning,
		Counts:       Counts{Planned: planned},
		StartedAt:    time.Now().UTC(),
	}
	_, err = s.execWithRetry(ctx,
		`INSERT INTO runs (id, destination, sources, placeholders, status, planned, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Destination, string(encoded), boolToInt(placeholders), string(run.Status), planned,
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordJob appends one executed (or failed) job to a run.
func (s *Store) RecordJob(ctx context.Context, rec JobRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO run_jobs (run_id, seq, kind, source, target, error_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Seq, rec.Kind, nullableString(rec.Source), rec.Target,
		nullableString(rec.ErrorMessage), rec.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counts of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, counts Counts, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	finished := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, planned = ?, executed = ?, created = ?, copied = ?, moved = ?,
		 duplicates = ?, quarantined = ?, pruned = ?, error_message = ?, finished_at = ?
		 WHERE id = ?`,
		string(status), counts.Planned, counts.Executed, counts.Created, counts.Copied, counts.Moved,
		counts.Duplicates, counts.Quarantined, counts.Pruned, nullableString(message),
		nullableTime(&finished), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", id)
	}
	return nil
}

// GetRun returns the run with id, or nil if there is none.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// FindRun resolves a full run ID or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	if run, err := s.GetRun(ctx, idOrPrefix); run != nil || err != nil {
		return run, err
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2`, idOrPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("find run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunJobs returns the recorded jobs of a run in execution order.
func (s *Store) RunJobs(ctx context.Context, runID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, seq, kind, source, target, error_message, recorded_at
		 FROM run_jobs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var (
			rec         JobRecord
			source      sql.NullString
			errMessage  sql.NullString
			recordedRaw string
		)
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Kind, &source, &rec.Target, &errMessage, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan run job: %w", err)
		}
		rec.Source = source.String
		rec.ErrorMessage = errMessage.String
		if ts, err := parseTimeString(recordedRaw); err == nil {
			rec.RecordedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HasOrganized reports whether a completed, non-placeholder run ever targeted
// destination.
func (s *Store) HasOrganized(ctx context.Context, destination string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM runs WHERE destination = ? AND status = ? AND placeholders = 0`,
		filepath.Clean(destination), string(StatusCompleted),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query destination history: %w", err)
	}
	return count > 0, nil
}

// MarkInterrupted flags runs left in the running state by a process that
// died, returning how many were updated.
func (s *Store) MarkInterrupted(ctx context.Context, destination string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE destination = ? AND status = ?`,
		string(StatusInterrupted), time.Now().UTC().Format(timeLayout),
		filepath.Clean(destination), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}
