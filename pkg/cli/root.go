// Package cli implements the journalist command-line client.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultHost = "http://localhost:8080"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{"error": err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
				if apiErr.RunID != "" {
					errObj["run_id"] = apiErr.RunID
				}
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "journalist",
		Short:         "Ask statistical questions of the OWID energy dataset",
		Long:          "Command-line client for the energy data journalist API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("JOURNALIST_HOST"); v != "" {
					host = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", defaultHost, "API server base URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table or json")

	client := func() *Client { return NewClient(host) }

	rootCmd.AddCommand(newAskCmd(client))
	rootCmd.AddCommand(newRunsCmd(client))
	rootCmd.AddCommand(newMetricsCmd(client))
	rootCmd.AddCommand(newDatasetCmd(client))
	rootCmd.AddCommand(newRefreshCmd(client))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
