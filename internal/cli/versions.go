package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var versionsMax int

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the most recent server versions",
		Args:  cobra.NoArgs,
		RunE:  runVersions,
	}
	cmd.Flags().IntVarP(&versionsMax, "max", "n", 20, "Number of versions to list")
	return cmd
}

func runVersions(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	versions, err := rt.session.Catalog().ListRecent(cmd.Context(), versionsMax)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), versions)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tTYPE\tRELEASED")
	for _, v := range versions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Type, humanize.Time(v.ReleaseTime))
	}
	return tw.Flush()
}
