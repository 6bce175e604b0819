// Package analysis runs the pipeline for the CLI commands: it resolves the
// folders to work on, runs the processor, prints the summary and exports
// metrics.
package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
	"github.com/tphakala/eloc-raven/internal/metrics"
	"github.com/tphakala/eloc-raven/internal/processor"
	"github.com/tphakala/eloc-raven/internal/report"
)

// ErrNoFolders is returned when neither folders nor a root with usable
// folders were given
var ErrNoFolders = errors.NewStd("no folders to process")

// Request describes one invocation
type Request struct {
	Folders  []string       // folders given on the command line
	Root     string         // scan root, used when Folders is empty
	Mode     processor.Mode // pipeline stages to run
	Progress bool           // print per-event progress lines
	Out      io.Writer      // summary and progress output, nil for none
}

// ResolveFolders returns the folders of req, or the usable folders below
// req.Root when none were given. Processing needs detection CSVs,
// extraction needs recordings.
func ResolveFolders(settings *conf.Settings, req Request) ([]string, error) {
	if len(req.Folders) > 0 {
		return req.Folders, nil
	}
	if req.Root == "" {
		return nil, ErrNoFolders
	}

	cands, err := processor.DiscoverFolders(req.Root, settings.Output.Dir, settings.Input.CSVPrefix)
	if err != nil {
		return nil, err
	}

	var folders []string
	if req.Mode == processor.ModeExtract {
		for _, c := range cands {
			if c.WAVFiles > 0 {
				folders = append(folders, c.Path)
			}
		}
	} else {
		folders = processor.SelectWithDetections(cands)
	}

	if len(folders) == 0 {
		return nil, errors.New(ErrNoFolders).
			Component("analysis").
			Category(errors.CategoryNotFound).
			Context("root", req.Root).
			Build()
	}

	GetLogger().Info("folders selected from root",
		logger.String("root", req.Root),
		logger.Int("candidates", len(cands)),
		logger.Int("selected", len(folders)))
	return folders, nil
}

// Run processes the requested folders and prints the summary. The metrics
// textfile is written even when the run fails or is cancelled.
func Run(ctx context.Context, appCtx *conf.Context, req Request) (*processor.Summary, error) {
	settings := appCtx.Settings
	log := GetLogger().WithContext(ctx)

	folders, err := ResolveFolders(settings, req)
	if err != nil {
		return nil, err
	}

	m, err := metrics.NewPipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	var progress processor.ProgressFunc
	if req.Progress && req.Out != nil {
		progress = report.Progress(req.Out)
	}

	p := processor.New(processor.OptionsFromSettings(settings), m, progress)
	summary, runErr := p.Run(ctx, folders, req.Mode)
	summary.RunID = appCtx.RunID

	if req.Out != nil {
		fmt.Fprint(req.Out, report.Summary(summary, report.ShouldColorize(req.Out)))
	}

	if path := settings.Metrics.Textfile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Error("failed to write metrics textfile", logger.String("path", path), logger.Error(err))
		} else {
			log.Debug("metrics textfile written", logger.String("path", path))
		}
	}

	if runErr != nil {
		return summary, runErr
	}
	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}
