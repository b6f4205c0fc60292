package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"photodistributor/internal/journal"
	"photodistributor/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []*journal.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Status),
					fmt.Sprintf("%d/%d", run.Counts.Executed, run.Counts.Planned),
					yesNo(run.Placeholders),
					run.Destination,
				})
			}
			fmt.Fprintln(out, renderTable("", []string{"Run", "Started", "Status", "Jobs", "Placeholders", "Destination"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 lists all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and the jobs it executed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.FindRun(cmd.Context(), args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "history", "find run", "", err)
			}
			if run == nil {
				return services.Wrap(services.ErrNotFound, "history", "find run", fmt.Sprintf("no run matches %q", args[0]), nil)
			}
			records, err := store.RunJobs(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				if records == nil {
					records = []journal.JobRecord{}
				}
				return writeJSON(cmd, struct {
					Run  *journal.Run        `json:"run"`
					Jobs []journal.JobRecord `json:"jobs"`
				}{run, records})
			}
			printRun(cmd, run, records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printRun(cmd *cobra.Command, run *journal.Run, records []journal.JobRecord) {
	out := cmd.OutOrStdout()
	colorize := isTerminal(out)

	kind := statusInfo
	switch run.Status {
	case journal.StatusCompleted:
		kind = statusOK
	case journal.StatusFailed:
		kind = statusError
	case journal.StatusInterrupted:
		kind = statusWarn
	}
	fmt.Fprintln(out, renderSectionHeader("Run "+run.ID, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", kind, string(run.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Destination", statusInfo, run.Destination, colorize))
	for _, source := range run.Sources {
		fmt.Fprintln(out, renderStatusLine("Source", statusInfo, source, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, run.Duration().Round(time.Millisecond).String(), colorize))
	fmt.Fprintln(out, renderStatusLine("Placeholders", statusInfo, yesNo(run.Placeholders), colorize))
	c := run.Counts
	fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, fmt.Sprintf("%d of %d executed", c.Executed, c.Planned), colorize))
	fmt.Fprintln(out, renderStatusLine("Files", statusInfo,
		fmt.Sprintf("%d copied, %d moved, %d duplicates, %d quarantined", c.Copied, c.Moved, c.Duplicates, c.Quarantined), colorize))
	if run.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}

	if len(records) == 0 {
		return
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "ok"
		if rec.ErrorMessage != "" {
			status = rec.ErrorMessage
		}
		rows = append(rows, []string{strconv.Itoa(rec.Seq), rec.Kind, rec.Source, rec.Target, status})
	}
	fmt.Fprintln(out, renderTable("Jobs", []string{"#", "Op", "Source", "Target", "Result"}, rows, []columnAlignment{alignRight}))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
