package processor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/tphakala/eloc-raven/internal/detection"
	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
	"github.com/tphakala/eloc-raven/internal/metrics"
	"github.com/tphakala/eloc-raven/internal/recording"
	"github.com/tphakala/eloc-raven/internal/segment"
	"github.com/tphakala/eloc-raven/internal/selection"
	"github.com/tphakala/eloc-raven/internal/workerpool"
)

// OutputDirPermissions is the mode of created output directories
const OutputDirPermissions = 0o755

// folderRun holds the state of one folder while it is processed
type folderRun struct {
	p           *Processor
	folder      string
	mode        Mode
	tablesDir   string
	segmentsDir string
	summary     *FolderSummary
	log         logger.Logger
}

// ProcessFolder runs the pipeline for one folder. The returned error is set
// only when the output directories cannot be created; every other failure
// is logged, counted in the summary and the folder continues or is skipped.
func (p *Processor) ProcessFolder(ctx context.Context, folder string, mode Mode) (summary FolderSummary, err error) {
	start := time.Now()
	summary = FolderSummary{Folder: folder, Mode: mode}
	log := p.log.WithContext(ctx).With(logger.String("folder", folder))

	defer func() {
		summary.Elapsed = time.Since(start)
	}()

	if ctx.Err() != nil {
		summary.Cancelled = true
		p.metrics.RecordFolder(metrics.StatusCancelled)
		return summary, nil
	}

	p.events.emit(Event{Kind: EventFolderStarted, Folder: folder, Message: mode.String()})

	recs, err := recording.Discover(folder)
	if err != nil {
		log.Error("failed to list recordings", logger.Error(err))
		summary.Err = err
		p.skip(&summary, "folder not readable")
		return summary, nil
	}
	idx := recording.NewIndex(recs)
	summary.Recordings = idx.Len()

	outputRoot := filepath.Join(folder, p.opts.OutputDir)
	run := &folderRun{
		p:           p,
		folder:      folder,
		mode:        mode,
		tablesDir:   filepath.Join(outputRoot, p.opts.TablesDir),
		segmentsDir: filepath.Join(outputRoot, p.opts.SegmentsDir),
		summary:     &summary,
		log:         log,
	}

	if err := run.createOutputDirs(outputRoot); err != nil {
		log.Error("failed to create output directories", logger.Error(err))
		summary.Err = err
		p.metrics.RecordFolder(metrics.StatusError)
		return summary, err
	}

	lock := flock.New(filepath.Join(outputRoot, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		log.Error("failed to acquire folder lock", logger.Error(err))
		summary.Err = err
		p.skip(&summary, "lock error")
		return summary, nil
	}
	if !locked {
		log.Warn("folder is being processed by another instance, skipping")
		p.skip(&summary, "locked by another process")
		return summary, nil
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release folder lock", logger.Error(err))
		}
	}()

	var jobs []segment.Job
	if mode == ModeProcess && p.opts.CreateTables {
		jobs = run.buildTables(idx)
	} else {
		jobs = run.jobsFromTables(idx)
	}

	if ctx.Err() != nil {
		summary.Cancelled = true
	} else if mode == ModeExtract || p.opts.ExtractAudio {
		run.extract(ctx, jobs)
	}

	switch {
	case summary.Cancelled:
		p.metrics.RecordFolder(metrics.StatusCancelled)
	case summary.RejectedFiles > 0 || summary.TableErrors > 0 || summary.RecordingErrors > 0:
		p.metrics.RecordFolder(metrics.StatusError)
	default:
		p.metrics.RecordFolder(metrics.StatusSuccess)
	}

	log.Info("folder finished",
		logger.Int("recordings", summary.Recordings),
		logger.Int("detections", summary.Detections),
		logger.Int("tables", summary.Tables),
		logger.Int("unmatched", summary.Unmatched),
		logger.Int("segments_written", summary.Segments.Written),
		logger.Int("segments_existing", summary.Segments.Existing),
		logger.Bool("cancelled", summary.Cancelled),
		logger.Duration("elapsed", time.Since(start)))
	p.events.emit(Event{Kind: EventFolderFinished, Folder: folder})

	return summary, nil
}

func (p *Processor) skip(summary *FolderSummary, reason string) {
	summary.Skipped = true
	summary.SkipReason = reason
	p.metrics.RecordFolder(metrics.StatusSkipped)
	p.events.emit(Event{Kind: EventFolderSkipped, Folder: summary.Folder, Message: reason})
}

// createOutputDirs creates the output root and the directories the mode writes to
func (r *folderRun) createOutputDirs(outputRoot string) error {
	dirs := []string{outputRoot}
	if r.mode == ModeProcess && r.p.opts.CreateTables {
		dirs = append(dirs, r.tablesDir)
	}
	if r.mode == ModeExtract || r.p.opts.ExtractAudio {
		dirs = append(dirs, r.segmentsDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, OutputDirPermissions); err != nil {
			return errors.New(err).
				Component("processor").
				Category(errors.CategoryFileIO).
				Context("operation", "create_output_dir").
				Context("path", dir).
				Build()
		}
	}
	return nil
}

// loadDetections reads every matching CSV in the folder. Rejected files are
// logged and skipped.
func (r *folderRun) loadDetections() []detection.Detection {
	files, err := detection.FindFiles(r.folder, r.p.opts.CSVPrefix)
	if err != nil {
		r.log.Error("failed to list detection files", logger.Error(err))
		return nil
	}
	if len(files) == 0 {
		r.log.Warn("no detection files found", logger.String("prefix", r.p.opts.CSVPrefix))
		return nil
	}

	var dets []detection.Detection
	for _, path := range files {
		f, err := detection.LoadFile(path)
		if err != nil {
			r.log.Warn("detection file rejected",
				logger.String("file", filepath.Base(path)),
				logger.Error(err))
			r.summary.RejectedFiles++
			r.p.metrics.RecordDetectionFile(metrics.StatusError, 0)
			r.p.events.emit(Event{
				Kind:    EventDetectionRejected,
				Folder:  r.folder,
				Item:    filepath.Base(path),
				Message: err.Error(),
			})
			continue
		}

		r.log.Debug("detection file loaded",
			logger.String("file", f.Name),
			logger.String("class", f.Class),
			logger.Int("detections", len(f.Detections)))
		r.summary.DetectionFiles++
		r.p.metrics.RecordDetectionFile(metrics.StatusSuccess, len(f.Detections))
		dets = append(dets, f.Detections...)
	}

	r.summary.Detections = len(dets)
	return dets
}

// buildTables aligns detections to recordings, writes one table per
// recording or fallback group and returns the extraction jobs for the
// matched tables.
func (r *folderRun) buildTables(idx *recording.Index) []segment.Job {
	dets := r.loadDetections()
	if len(dets) == 0 {
		return nil
	}

	plan := selection.BuildTables(idx, dets, r.p.opts.Params)
	r.summary.Unmatched = plan.Unmatched
	r.summary.FallbackTables = plan.FallbackGroups
	r.p.metrics.RecordUnmatched(plan.Unmatched)

	var jobs []segment.Job
	for i, table := range plan.Tables {
		if _, err := selection.WriteTableFile(r.tablesDir, table.Name, table.Selections); err != nil {
			r.log.Error("failed to write selection table",
				logger.String("table", table.Name),
				logger.Error(err))
			r.summary.TableErrors++
			continue
		}

		r.summary.Tables++
		kind := metrics.TableMatched
		if !table.Matched {
			kind = metrics.TableFallback
		}
		r.p.metrics.RecordTable(kind)
		r.p.events.emit(Event{
			Kind:   EventTableWritten,
			Folder: r.folder,
			Item:   selection.TableFileName(table.Name),
			Done:   i + 1,
			Total:  len(plan.Tables),
		})

		if table.Matched {
			jobs = append(jobs, segment.Job{
				Recording:  table.Recording,
				Selections: table.Selections,
				OutputDir:  r.segmentsDir,
			})
		}
	}
	return jobs
}

// jobsFromTables builds extraction jobs from the selection tables already
// in the tables directory. Tables without a recording in the folder, such
// as fallback tables, are skipped.
func (r *folderRun) jobsFromTables(idx *recording.Index) []segment.Job {
	entries, err := os.ReadDir(r.tablesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("no selection tables directory", logger.String("path", r.tablesDir))
		} else {
			r.log.Error("failed to list selection tables", logger.Error(err))
		}
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), selection.TableSuffix) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var jobs []segment.Job
	for _, fileName := range names {
		name, _ := selection.NameFromTableFile(fileName)
		rec, ok := idx.ByName(name)
		if !ok {
			r.log.Info("no recording for selection table, skipping", logger.String("table", fileName))
			continue
		}

		sels, err := selection.ReadTableFile(filepath.Join(r.tablesDir, fileName))
		if err != nil {
			r.log.Error("failed to read selection table",
				logger.String("table", fileName),
				logger.Error(err))
			r.summary.TableErrors++
			continue
		}
		r.summary.Tables++
		if len(sels) == 0 {
			continue
		}

		jobs = append(jobs, segment.Job{
			Recording:  rec,
			Selections: sels,
			OutputDir:  r.segmentsDir,
		})
	}
	return jobs
}

// extract cuts the jobs on a pool sized by CPU, memory and configuration
func (r *folderRun) extract(ctx context.Context, jobs []segment.Job) {
	if len(jobs) == 0 {
		return
	}

	size := workerpool.Size(r.p.opts.Workers, r.p.opts.MaxWorkers, largestRecording(jobs))
	r.log.Info("extracting segments",
		logger.Int("recordings", len(jobs)),
		logger.Int("workers", size))

	var done atomic.Int32
	tasks := make([]workerpool.Task[segment.Stats], len(jobs))
	for i, job := range jobs {
		tasks[i] = func(ctx context.Context) (segment.Stats, error) {
			stats := r.p.extractor.ExtractRecording(ctx, job)
			r.p.events.emit(Event{
				Kind:   EventRecordingExtracted,
				Folder: r.folder,
				Item:   job.Recording.Name,
				Done:   int(done.Add(1)),
				Total:  len(jobs),
			})
			return stats, stats.Err
		}
	}

	results := workerpool.Run(ctx, size, tasks)
	for _, res := range results {
		stats := res.Value
		switch res.State {
		case workerpool.StateCancelled:
			r.summary.Cancelled = true
			continue
		case workerpool.StateFailed:
			r.summary.RecordingErrors++
			r.p.metrics.RecordRecording(metrics.StatusError, stats.Elapsed.Seconds())
		default:
			status := metrics.StatusSuccess
			if stats.Cancelled {
				r.summary.Cancelled = true
				status = metrics.StatusCancelled
			}
			r.summary.RecordingsCut++
			r.p.metrics.RecordRecording(status, stats.Elapsed.Seconds())
		}

		r.summary.Segments.add(stats)
		r.p.metrics.RecordSegments(metrics.SegmentWritten, stats.Written-stats.Regenerated)
		r.p.metrics.RecordSegments(metrics.SegmentRegenerated, stats.Regenerated)
		r.p.metrics.RecordSegments(metrics.SegmentExisting, stats.Existing)
		r.p.metrics.RecordSegments(metrics.SegmentInvalid, stats.Invalid)
		r.p.metrics.RecordSegments(metrics.SegmentFailed, stats.Failed)
	}

	states := workerpool.Summarize(results)
	r.log.Debug("recording workers finished",
		logger.Int("completed", states.Completed),
		logger.Int("failed", states.Failed),
		logger.Int("cancelled", states.Cancelled))
}

// largestRecording returns the size in bytes of the largest recording file
func largestRecording(jobs []segment.Job) int64 {
	var largest int64
	for _, job := range jobs {
		info, err := os.Stat(job.Recording.Path)
		if err != nil {
			continue
		}
		largest = max(largest, info.Size())
	}
	return largest
}
