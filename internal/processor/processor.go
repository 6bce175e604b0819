// Package processor runs the detection-to-clip pipeline over input folders.
//
// Each folder is handled independently: recordings are indexed, detection
// CSVs are aligned to them, one Raven selection table is written per
// recording and the selections are cut from the recordings into clips.
// Failures inside a folder are logged and counted; only an output directory
// that cannot be created fails the run.
package processor

import (
	"context"
	"time"

	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
	"github.com/tphakala/eloc-raven/internal/metrics"
	"github.com/tphakala/eloc-raven/internal/segment"
	"github.com/tphakala/eloc-raven/internal/workerpool"
)

// LockFileName is the advisory lock held in a folder's output directory
// while the folder is processed
const LockFileName = ".eloc-raven.lock"

// Processor runs the pipeline. It is safe for concurrent use.
type Processor struct {
	opts      Options
	metrics   *metrics.PipelineMetrics
	events    *emitter
	extractor *segment.Extractor
	log       logger.Logger
}

// New creates a Processor. Zero valued options take their defaults; m and
// progress may be nil.
func New(opts Options, m *metrics.PipelineMetrics, progress ProgressFunc) *Processor {
	opts = opts.withDefaults()
	return &Processor{
		opts:      opts,
		metrics:   m,
		events:    &emitter{fn: progress},
		extractor: segment.NewExtractor(opts.MinSegmentBytes),
		log:       GetLogger(),
	}
}

// Run processes folders with up to Options.FolderWorkers at once. The
// returned error joins the hard failures of all folders; the summary is
// complete either way.
func (p *Processor) Run(ctx context.Context, folders []string, mode Mode) (*Summary, error) {
	start := time.Now()
	log := p.log.WithContext(ctx)
	log.Info("processing started",
		logger.String("mode", mode.String()),
		logger.Int("folders", len(folders)),
		logger.Int("folder_workers", p.opts.FolderWorkers))

	tasks := make([]workerpool.Task[FolderSummary], len(folders))
	for i, folder := range folders {
		tasks[i] = func(ctx context.Context) (FolderSummary, error) {
			return p.ProcessFolder(ctx, folder, mode)
		}
	}

	results := workerpool.Run(ctx, p.opts.FolderWorkers, tasks)

	summary := &Summary{Folders: make([]FolderSummary, len(results))}
	var hardErrs []error
	for i, res := range results {
		fs := res.Value
		fs.Folder = folders[i]
		fs.Mode = mode
		switch res.State {
		case workerpool.StateCancelled:
			fs.Cancelled = true
			p.metrics.RecordFolder(metrics.StatusCancelled)
		case workerpool.StateFailed:
			fs.Err = res.Err
			hardErrs = append(hardErrs, res.Err)
		}
		if fs.Cancelled {
			summary.Cancelled = true
		}
		summary.Folders[i] = fs
	}
	summary.Elapsed = time.Since(start)

	totals := summary.Totals()
	states := workerpool.Summarize(results)
	log.Info("processing finished",
		logger.Int("folders", len(folders)),
		logger.Int("folders_completed", states.Completed),
		logger.Int("folders_failed", states.Failed),
		logger.Int("folders_cancelled", states.Cancelled),
		logger.Int("segments_written", totals.Written),
		logger.Int("segments_existing", totals.Existing),
		logger.Int("segments_invalid", totals.Invalid),
		logger.Int("segments_failed", totals.Failed),
		logger.Bool("cancelled", summary.Cancelled),
		logger.Duration("elapsed", summary.Elapsed))

	if len(hardErrs) > 0 {
		return summary, errors.Join(hardErrs...)
	}
	return summary, nil
}
