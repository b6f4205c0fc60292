package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photodistributor/internal/jobs"
	"photodistributor/internal/organize"
)

type pathFlags struct {
	sources []string
	dest    string
}

func (p *pathFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&p.sources, "source", "s", nil, "Source directory (repeatable; replaces paths.sources)")
	cmd.Flags().StringVarP(&p.dest, "dest", "d", "", "Destination directory (replaces paths.destination)")
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var paths pathFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the jobs a run would execute without changing anything",
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

			report, err := organize.NewService(cfg, store, logger).Plan(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, newReportView(report))
			}
			printPlan(cmd, report)
			return nil
		},
	}
	paths.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printPlan(cmd *cobra.Command, report *organize.Report) {
	out := cmd.OutOrStdout()
	colorize := isTerminal(out)

	if len(report.Plan.Buckets) > 0 {
		rows := make([][]string, 0, len(report.Plan.Buckets))
		for _, b := range report.Plan.Buckets {
			rows = append(rows, []string{b.Label(), strconv.Itoa(len(b.Files))})
		}
		fmt.Fprintln(out, renderTable("Buckets", []string{"Directory", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	rows := make([][]string, 0, len(report.Plan.Jobs))
	for i, job := range report.Plan.Jobs {
		if job.Kind == jobs.KindCreateDirectory {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), job.Kind.String(), job.SourcePath(), relativeTo(report.Destination, job.Target)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable("File jobs", []string{"#", "Op", "Source", "Target"}, rows, []columnAlignment{alignRight}))
	}
	printSummary(cmd, report, colorize)
}

func printSummary(cmd *cobra.Command, report *organize.Report, colorize bool) {
	out := cmd.OutOrStdout()
	stats := report.Plan.Stats
	fmt.Fprintln(out, renderSectionHeader("Summary", colorize))
	fmt.Fprintln(out, renderStatusLine("Destination", statusInfo, report.Destination, colorize))
	fmt.Fprintln(out, renderStatusLine("Files scanned", statusInfo, fmt.Sprintf("%d (%s, %d ignored)", report.Scan.Files, humanize.Bytes(uint64(report.Scan.TotalBytes)), report.Scan.Ignored), colorize))
	if report.Scan.Unreadable > 0 {
		fmt.Fprintln(out, renderStatusLine("Unreadable", statusWarn, strconv.Itoa(report.Scan.Unreadable), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Buckets", statusInfo, strconv.Itoa(stats.Buckets), colorize))
	fmt.Fprintln(out, renderStatusLine("Copies", statusInfo, fmt.Sprintf("%d (%s)", stats.Copies, humanize.Bytes(uint64(stats.Bytes))), colorize))
	fmt.Fprintln(out, renderStatusLine("Moves", statusInfo, strconv.Itoa(stats.Moves), colorize))
	fmt.Fprintln(out, renderStatusLine("Renamed", statusInfo, strconv.Itoa(stats.Renamed), colorize))
	if stats.Relocated > 0 {
		fmt.Fprintln(out, renderStatusLine("Relocated", statusInfo, strconv.Itoa(stats.Relocated), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Duplicates skipped", statusOK, strconv.Itoa(stats.Duplicates), colorize))
	quarantineKind := statusOK
	if stats.Quarantined > 0 {
		quarantineKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Quarantined", quarantineKind, strconv.Itoa(stats.Quarantined), colorize))
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
