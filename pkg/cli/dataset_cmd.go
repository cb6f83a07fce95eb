package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDatasetCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Show provenance of the loaded dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client().Dataset(cmd.Context())
			if err != nil {
				return err
			}
			return printDataset(cmd, resp)
		},
	}

	cmd.AddCommand(newRefreshCmd(client))

	return cmd
}

func newRefreshCmd(client func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-download the source CSV and reload the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client().RefreshDataset(cmd.Context())
			if err != nil {
				return err
			}
			return printDataset(cmd, resp)
		},
	}
}

func printDataset(cmd *cobra.Command, resp *DatasetResponse) error {
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), resp)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset:  %s\n", resp.Source.DatasetID)
	fmt.Fprintf(out, "URL:      %s\n", resp.Source.URL)
	fmt.Fprintf(out, "Accessed: %s\n", resp.Source.AccessedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "SHA256:   %s\n", resp.Source.SHA256)
	fmt.Fprintf(out, "Years:    %d-%d\n", resp.YearStart, resp.YearEnd)
	return nil
}
