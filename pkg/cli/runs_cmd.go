package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunsCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted run records",
	}

	cmd.AddCommand(newRunsListCmd(client))
	cmd.AddCommand(newRunsShowCmd(client))

	return cmd
}

func newRunsListCmd(client func() *Client) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := client().ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), runs)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tROWS\tQUESTION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.CreatedAt, r.Status, r.RowCount, truncate(r.Question, 60))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func newRunsShowCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its full result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := client().GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), rec)
			}

			printRunRecord(cmd, rec)
			if rec.Bundle != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\nTimeseries SQL: %s\n", rec.Bundle.TimeseriesSQL)
				if rec.Bundle.SummarySQL != "" {
					fmt.Fprintf(out, "Summary SQL:    %s\n", rec.Bundle.SummarySQL)
				}
			}
			return nil
		},
	}
}
