package extract

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/eloc-raven/internal/analysis"
	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/processor"
)

// Command creates a new cobra.Command for extraction from existing tables.
func Command(ctx *conf.Context) *cobra.Command {
	var root string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "extract [folder]...",
		Short: "Cut audio segments from existing selection tables",
		Long: "Read the selection tables in each folder's output directory and cut one WAV " +
			"clip per selection from the matching recording. Existing clips are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := analysis.Run(cmd.Context(), ctx, analysis.Request{
				Folders:  args,
				Root:     root,
				Mode:     processor.ModeExtract,
				Progress: !quiet,
				Out:      cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Scan root for folders with recordings")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary")
	conf.AddWorkerFlags(cmd.Flags())

	return cmd
}
