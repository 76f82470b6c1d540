package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List generated documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := a.documents()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATHS\tDEFINITIONS")
			for _, doc := range docs {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", doc.Name, len(doc.Paths), len(doc.Definitions))
			}
			return tw.Flush()
		},
	}
}
