package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/synthgeo/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded simulation runs",
	Long:  "Commands for listing runs and printing their daily tracker values.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List simulation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: store.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its tracker values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := requireStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		metrics, err := st.Metrics(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		formatRun(os.Stdout, run, metrics)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSEED\tDAYS\tSTATUS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Seed,
			r.Days,
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRun writes a run header followed by one row per day with a column
// per tracker key, in first-seen key order.
func formatRun(out io.Writer, run *store.Run, metrics []store.Metric) {
	_, _ = fmt.Fprintf(out, "Run %s  seed %d  days %d  %s\n", run.ID, run.Seed, run.Days, run.Status)
	if len(metrics) == 0 {
		return
	}

	var keys []string
	var days []int
	seenKey := make(map[string]bool)
	values := make(map[int]map[string]int)
	for _, m := range metrics {
		if !seenKey[m.Key] {
			seenKey[m.Key] = true
			keys = append(keys, m.Key)
		}
		row, ok := values[m.Day]
		if !ok {
			row = make(map[string]int)
			values[m.Day] = row
			days = append(days, m.Day)
		}
		row[m.Key] = m.Value
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprint(w, "DAY\t")
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s\t", k)
	}
	_, _ = fmt.Fprintln(w)
	for _, d := range days {
		_, _ = fmt.Fprintf(w, "%d\t", d)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "%d\t", values[d][k])
		}
		_, _ = fmt.Fprintln(w)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
