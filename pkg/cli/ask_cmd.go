package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spinnn/energy-data-journalist/internal/domain"
)

func newAskCmd(client func() *Client) *cobra.Command {
	var candidateFile string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Run a statistical question end to end",
		Long: `Submit a question, let the server plan and execute it, and print the
resulting timeseries and summary. With --candidate-file the given plan
candidate is validated and executed instead of asking the planner.`,
		Example: `  # Let the planner work out the plan
  journalist ask "How has solar electricity grown in Germany and France since 2010?"

  # Execute a pre-built plan candidate
  journalist ask "solar in DEU" --candidate-file plan.json --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var candidate json.RawMessage
			if candidateFile != "" {
				data, err := os.ReadFile(candidateFile)
				if err != nil {
					return fmt.Errorf("read candidate file: %w", err)
				}
				candidate = data
			}

			rec, err := client().CreateRun(cmd.Context(), args[0], candidate)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			printRunRecord(cmd, rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&candidateFile, "candidate-file", "", "JSON file holding a plan candidate to execute as-is")

	return cmd
}

func printRunRecord(cmd *cobra.Command, rec *domain.RunRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s  status=%s  rows=%d  duration=%dms\n", rec.ID, rec.Status, rec.RowCount, rec.DurationMS)
	if rec.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", rec.Error)
	}
	if rec.Result == nil {
		return
	}
	if rec.Result.Reason != "" {
		fmt.Fprintf(out, "Reason: %s\n", rec.Result.Reason)
	}
	if len(rec.Result.Timeseries.Rows) > 0 {
		fmt.Fprintln(out, "\nTimeseries:")
		printResultSet(out, rec.Result.Timeseries)
	}
	if rec.Result.Summary != nil && len(rec.Result.Summary.Rows) > 0 {
		fmt.Fprintln(out, "\nSummary:")
		printResultSet(out, *rec.Result.Summary)
	}
}

func printResultSet(w io.Writer, rs domain.ResultSet) {
	tw := newTable(w)
	cols := rs.Columns
	if len(cols) == 0 && len(rs.Rows) > 0 {
		for c := range rs.Rows[0] {
			cols = append(cols, c)
		}
		sort.Strings(cols)
	}
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range rs.Rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprintf(tw, "%v", row[c])
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
