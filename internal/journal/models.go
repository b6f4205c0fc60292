package journal

import "time"

// Status represents the lifecycle of a run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Counts summarizes what a run planned and did.
type Counts struct {
	Planned     int `json:"planned"`
	Executed    int `json:"executed"`
	Created     int `json:"created"`
	Copied      int `json:"copied"`
	Moved       int `json:"moved"`
	Duplicates  int `json:"duplicates"`
	Quarantined int `json:"quarantined"`
	Pruned      int `json:"pruned"`
}

// Run is one journaled organize run.
type Run struct {
	ID           string     `json:"id"`
	Destination  string     `json:"destination"`
	Sources      []string   `json:"sources"`
	Placeholders bool       `json:"placeholders"`
	Status       Status     `json:"status"`
	Counts       Counts     `json:"counts"`
	ErrorMessage string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or has been running.
func (r Run) Duration() time.Duration {
	end := time.Now()
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}

// JobRecord is one executed job.
type JobRecord struct {
	RunID        string    `json:"run_id"`
	Seq          int       `json:"seq"`
	Kind         string    `json:"kind"`
	Source       string    `json:"source,omitempty"`
	Target       string    `json:"target"`
	ErrorMessage string    `json:"error,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}
