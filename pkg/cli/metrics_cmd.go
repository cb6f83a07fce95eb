package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMetricsCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the metrics questions can ask about",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client().Metrics(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "METRIC\tUNIT\tCATEGORY\tDESCRIPTION")
			for _, m := range resp.Metrics {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.MetricID, m.Unit, m.Category, truncate(m.Description, 70))
			}
			return tw.Flush()
		},
	}
}
