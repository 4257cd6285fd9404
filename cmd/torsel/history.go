package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/torsel/internal/config"
	"github.com/nao1215/torsel/internal/history"
)

// defaultHistoryLimit bounds the run listing so old databases stay readable.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs recorded in the history database",
		Long: `History lists runs saved by the run command, newest first.

With --run, it shows the per-action breakdown of a single run instead:
status, attempts, rotations, and the last error of each action.

Examples:
  # List the most recent runs
  torsel history

  # List up to 50 runs
  torsel history --limit 50

  # Show per-action details of run 3
  torsel history --run 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list")
	cmd.Flags().Int64P("run", "r", 0,
		"Show per-action details for the given run ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	db, err := history.Open(config.XDGDataDir(), history.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only usage

	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	if runID > 0 {
		return showRunDetails(cmd, db, runID)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRuns(cmd, db, limit)
}

// listRuns prints recent run summaries as a table.
func listRuns(cmd *cobra.Command, db *history.RunDB, limit int) error {
	runs, err := db.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet. Use 'torsel run' first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tELAPSED\tINSTANCES\tWORKERS\tOK\tABANDONED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Elapsed.Round(10*time.Millisecond),
			r.TotalInstances,
			r.MaxWorkers,
			r.Succeeded,
			r.Abandoned,
			r.Skipped,
		)
	}
	return w.Flush()
}

// showRunDetails prints the per-action breakdown of one run.
func showRunDetails(cmd *cobra.Command, db *history.RunDB, runID int64) error {
	actions, err := db.ActionsForRun(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	if len(actions) == 0 {
		return fmt.Errorf("no actions recorded for run %d", runID)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tINSTANCE\tSTATUS\tATTEMPTS\tROTATIONS\tELAPSED\tLAST ERROR")
	for _, a := range actions {
		lastErr := a.LastError
		if lastErr == "" {
			lastErr = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\t%s\t%s\n",
			a.ActionIndex,
			a.InstanceIndex,
			a.Status,
			a.Attempts,
			a.Rotations,
			a.Elapsed.Round(10*time.Millisecond),
			lastErr,
		)
	}
	return w.Flush()
}
