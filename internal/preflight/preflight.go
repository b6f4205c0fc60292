package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"photodistributor/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the path checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, source := range cfg.Paths.Sources {
		if ctx.Err() != nil {
			break
		}
		results = append(results, CheckReadable("Source", source))
	}

	if cfg.Paths.Destination != "" {
		results = append(results, CheckCreatable("Destination", cfg.Paths.Destination))
	}

	// State directory holds the journal and locks.
	if cfg.Paths.StateDir != "" {
		results = append(results, CheckCreatable("State directory", cfg.Paths.StateDir))
	}
	return results
}

// Err joins the failed results into one error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name+": "+r.Detail)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.New(strings.Join(failed, "; "))
}

// Summary renders passed/total for log lines.
func Summary(results []Result) string {
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return fmt.Sprintf("%d/%d checks passed", passed, len(results))
}
