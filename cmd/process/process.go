package process

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/eloc-raven/internal/analysis"
	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/processor"
)

// Command creates a new cobra.Command for the full pipeline.
func Command(ctx *conf.Context) *cobra.Command {
	var root string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "process [folder]...",
		Short: "Create selection tables and audio segments from ELOC detections",
		Long: "Align the detection CSVs of each folder with its recordings, write one Raven " +
			"selection table per recording and cut one WAV clip per selection. " +
			"With --root, every folder below the root that holds detection CSVs is processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := analysis.Run(cmd.Context(), ctx, analysis.Request{
				Folders:  args,
				Root:     root,
				Mode:     processor.ModeProcess,
				Progress: !quiet,
				Out:      cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Scan root for folders with detection CSVs")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary")
	cmd.Flags().Float64("timeoffset", conf.DefaultTimeOffset, "Seconds added to every selection begin time")
	cmd.Flags().Float64("segmentlength", conf.DefaultSegmentLength, "Selection and clip length in seconds")
	cmd.Flags().Bool("tables", true, "Write selection tables; when false, clips are cut from existing tables")
	cmd.Flags().Bool("audio", true, "Cut audio segments")
	cmd.Flags().String("csvprefix", conf.DefaultCSVPrefix, "Only load CSV files starting with this prefix")
	conf.AddWorkerFlags(cmd.Flags())

	return cmd
}
