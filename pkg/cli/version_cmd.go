package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "journalist %s (%s)\n", version, commit)
			if verbose {
				fmt.Fprintln(out, "effective flags:")
				cmd.Root().PersistentFlags().VisitAll(func(f *pflag.Flag) {
					fmt.Fprintf(out, "  --%s=%s\n", f.Name, f.Value.String())
				})
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print effective global flags")

	return cmd
}
