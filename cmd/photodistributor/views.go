package main

import (
	"time"

	"photodistributor/internal/jobs"
	"photodistributor/internal/organize"
)

type bucketView struct {
	Directory string `json:"directory"`
	Year      int    `json:"year"`
	First     int    `json:"first_month"`
	Last      int    `json:"last_month"`
	Files     int    `json:"files"`
}

type jobView struct {
	Op     string `json:"op"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
}

type planStatsView struct {
	Files              int   `json:"files"`
	Buckets            int   `json:"buckets"`
	Directories        int   `json:"directories"`
	Adopted            int   `json:"adopted"`
	Renamed            int   `json:"renamed"`
	Duplicates         int   `json:"duplicates"`
	Quarantined        int   `json:"quarantined"`
	AlreadyQuarantined int   `json:"already_quarantined"`
	Relocated          int   `json:"relocated"`
	Copies             int   `json:"copies"`
	Moves              int   `json:"moves"`
	Bytes              int64 `json:"bytes"`
}

type scanStatsView struct {
	Files      int   `json:"files"`
	Ignored    int   `json:"ignored"`
	Unreadable int   `json:"unreadable"`
	Fallbacks  int   `json:"mtime_fallbacks"`
	Originated int   `json:"in_destination"`
	Bytes      int64 `json:"bytes"`
}

type executionView struct {
	Executed int      `json:"executed"`
	Created  int      `json:"created"`
	Copied   int      `json:"copied"`
	Moved    int      `json:"moved"`
	Pruned   []string `json:"pruned"`
}

type reportView struct {
	RunID        string         `json:"run_id,omitempty"`
	Destination  string         `json:"destination"`
	Placeholders bool           `json:"placeholders"`
	StartedAt    time.Time      `json:"started_at"`
	DurationMS   int64          `json:"duration_ms"`
	Scan         scanStatsView  `json:"scan"`
	Plan         planStatsView  `json:"plan"`
	Buckets      []bucketView   `json:"buckets"`
	Jobs         []jobView      `json:"jobs"`
	Execution    *executionView `json:"execution,omitempty"`
}

func newReportView(report *organize.Report) reportView {
	stats := report.Plan.Stats
	view := reportView{
		RunID:        report.RunID,
		Destination:  report.Destination,
		Placeholders: report.Placeholders,
		StartedAt:    report.StartedAt,
		DurationMS:   report.Duration.Milliseconds(),
		Scan: scanStatsView{
			Files:      report.Scan.Files,
			Ignored:    report.Scan.Ignored,
			Unreadable: report.Scan.Unreadable,
			Fallbacks:  report.Scan.Fallbacks,
			Originated: report.Scan.Originated,
			Bytes:      report.Scan.TotalBytes,
		},
		Plan: planStatsView{
			Files:              stats.Files,
			Buckets:            stats.Buckets,
			Directories:        stats.Directories,
			Adopted:            stats.Adopted,
			Renamed:            stats.Renamed,
			Duplicates:         stats.Duplicates,
			Quarantined:        stats.Quarantined,
			AlreadyQuarantined: stats.AlreadyQuarantined,
			Relocated:          stats.Relocated,
			Copies:             stats.Copies,
			Moves:              stats.Moves,
			Bytes:              stats.Bytes,
		},
		Buckets: make([]bucketView, 0, len(report.Plan.Buckets)),
		Jobs:    make([]jobView, 0, len(report.Plan.Jobs)),
	}
	for _, b := range report.Plan.Buckets {
		view.Buckets = append(view.Buckets, bucketView{
			Directory: b.Label(),
			Year:      b.Year,
			First:     int(b.FirstMonth),
			Last:      int(b.LastMonth),
			Files:     len(b.Files),
		})
	}
	for _, job := range report.Plan.Jobs {
		view.Jobs = append(view.Jobs, newJobView(job))
	}
	if report.RunID != "" {
		exec := report.Execution
		pruned := exec.Pruned
		if pruned == nil {
			pruned = []string{}
		}
		view.Execution = &executionView{
			Executed: exec.Executed,
			Created:  exec.Created,
			Copied:   exec.Copied,
			Moved:    exec.Moved,
			Pruned:   pruned,
		}
	}
	return view
}

func newJobView(job jobs.Job) jobView {
	return jobView{Op: job.Kind.String(), Source: job.SourcePath(), Target: job.Target}
}
