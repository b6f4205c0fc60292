package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		sourcesRaw   string
		placeholders int
		status       string
		errMessage   sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Destination,
		&sourcesRaw,
		&placeholders,
		&status,
		&run.Counts.Planned,
		&run.Counts.Executed,
		&run.Counts.Created,
		&run.Counts.Copied,
		&run.Counts.Moved,
		&run.Counts.Duplicates,
		&run.Counts.Quarantined,
		&run.Counts.Pruned,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sourcesRaw), &run.Sources); err != nil {
		return nil, fmt.Errorf("decode sources of run %s: %w", run.ID, err)
	}
	run.Placeholders = placeholders != 0
	run.Status = Status(status)
	run.ErrorMessage = errMessage.String
	if ts, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = ts
	}
	if finishedRaw.Valid {
		if ts, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &ts
		}
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timeLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
