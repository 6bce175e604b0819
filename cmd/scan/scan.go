package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/processor"
	"github.com/tphakala/eloc-raven/internal/report"
)

// Command creates a new cobra.Command listing candidate folders.
func Command(ctx *conf.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "List folders below a root with their recording and detection counts",
		Long: "Folders in root/eloc are listed when present, otherwise the subfolders of " +
			"root, otherwise root itself.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ctx.Settings
			cands, err := processor.DiscoverFolders(args[0], settings.Output.Dir, settings.Input.CSVPrefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cands) == 0 {
				fmt.Fprintln(out, "No folders found")
				return nil
			}
			fmt.Fprintln(out, report.Candidates(cands, report.ShouldColorize(out)))
			fmt.Fprintf(out, "%d of %d folders have detection files\n",
				len(processor.SelectWithDetections(cands)), len(cands))
			return nil
		},
	}

	cmd.Flags().String("csvprefix", conf.DefaultCSVPrefix, "Only count CSV files starting with this prefix")

	return cmd
}
