package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photodistributor/internal/jobs"
	"photodistributor/internal/organize"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var paths pathFlags
	var placeholders bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Organize the sources into the destination",
		Long: "Plan and execute: create the dated directories, copy new files, move files " +
			"already in the destination when their bucket changed, quarantine ambiguous " +
			"duplicates, and remove directories left empty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.applyPathOverrides(paths.sources, paths.dest)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			opts := []organize.Option{}
			progress := newProgressObserver(cmd.ErrOrStderr())
			if progress != nil {
				opts = append(opts, organize.WithObserver(progress))
			}
			report, runErr := organize.NewService(cfg, store, logger, opts...).Run(cmd.Context(), placeholders)
			if progress != nil {
				progress.finish()
			}
			if report == nil {
				return runErr
			}
			if jsonOutput {
				if err := writeJSON(cmd, newReportView(report)); err != nil {
					return err
				}
				return runErr
			}

			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			printSummary(cmd, report, colorize)
			exec := report.Execution
			fmt.Fprintln(out, renderStatusLine("Jobs executed", statusInfo, fmt.Sprintf("%d of %d", exec.Executed, len(report.Plan.Jobs)), colorize))
			fmt.Fprintln(out, renderStatusLine("Directories pruned", statusInfo, strconv.Itoa(len(exec.Pruned)), colorize))
			if report.Placeholders {
				fmt.Fprintln(out, renderStatusLine("Mode", statusWarn, "placeholders (no media copied)", colorize))
			}
			if report.RunID != "" {
				fmt.Fprintln(out, renderStatusLine("Run", statusInfo, report.RunID, colorize))
			}
			if runErr != nil {
				fmt.Fprintln(out, renderStatusLine("Result", statusError, "stopped; completed jobs were kept", colorize))
				return runErr
			}
			fmt.Fprintln(out, renderStatusLine("Result", statusOK, fmt.Sprintf("done in %s", report.Duration.Round(time.Millisecond)), colorize))
			return nil
		},
	}
	paths.register(cmd)
	cmd.Flags().BoolVar(&placeholders, "placeholders", false, "Write .txt placeholders instead of copying or moving media")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// progressObserver drives a terminal progress bar from executor events.
type progressObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// newProgressObserver returns nil when w is not a terminal.
func newProgressObserver(w io.Writer) *progressObserver {
	if !isTerminal(w) {
		return nil
	}
	return &progressObserver{w: w}
}

func (p *progressObserver) JobFinished(ev jobs.Event) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("Organizing"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Add(1)
}

func (p *progressObserver) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
