// Package segment slices recordings into one WAV clip per selection.
//
// Each recording is decoded once per batch and its PCM data held in memory
// while the clips are cut. Clip writes are idempotent: an existing clip
// larger than MinValidSize is kept. A smaller one last modified before the
// extractor was created is a leftover of an interrupted run and is
// regenerated; a newer one belongs to a concurrent writer and is left alone.
package segment

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
	"github.com/tphakala/eloc-raven/internal/recording"
	"github.com/tphakala/eloc-raven/internal/selection"
)

const (
	// DefaultMinValidSize is the minimum size of a usable clip file (1KB)
	DefaultMinValidSize int64 = 1024

	// MinSegmentSeconds is the shortest clip written
	MinSegmentSeconds = 0.1

	// boundsEpsilon absorbs float error in table values such as 10.10-10.00
	boundsEpsilon = 1e-9

	// SegmentFilePermissions is the mode of written clips
	SegmentFilePermissions = 0o644
)

// Job is the set of selections to cut from one recording.
type Job struct {
	Recording  recording.Recording
	Selections []selection.Selection
	OutputDir  string
}

// Stats counts the outcome of one job.
type Stats struct {
	Recording   string        // recording base name
	Written     int           // new clips
	Existing    int           // clips already present and kept
	Regenerated int           // undersized clips replaced, also counted in Written
	Invalid     int           // selections outside the audio or too short
	Failed      int           // clips that could not be written
	Cancelled   bool          // context cancelled before all selections were handled
	Duration    float64       // audio length in seconds, 0 when not loaded
	Elapsed     time.Duration // wall time of the job
	Err         error         // recording could not be loaded; no clips were cut
}

// Extractor cuts clips. It holds no per-job state and is safe for concurrent use.
type Extractor struct {
	MinValidSize int64
	started      time.Time
	log          logger.Logger
}

// NewExtractor returns an Extractor keeping existing clips larger than minValidSize bytes.
func NewExtractor(minValidSize int64) *Extractor {
	if minValidSize <= 0 {
		minValidSize = DefaultMinValidSize
	}
	return &Extractor{
		MinValidSize: minValidSize,
		started:      time.Now(),
		log:          GetLogger(),
	}
}

// outcome of one selection
type outcome int

const (
	outcomeWritten outcome = iota
	outcomeExisting
	outcomeInvalid
	outcomeFailed
)

// FileName returns the clip name for a selection, e.g.
// "rec_segment_001_890.00s-895.00s.wav".
func FileName(recordingName string, index int, begin, end float64) string {
	return fmt.Sprintf("%s_segment_%03d_%.2fs-%.2fs.wav", recordingName, index, begin, end)
}

// ExtractRecording loads the job's recording once and writes one clip per
// valid selection in begin order. Failure to load the recording fails the
// whole job; failures of single clips are counted and the job continues.
// Cancellation is checked before each clip.
func (e *Extractor) ExtractRecording(ctx context.Context, job Job) Stats {
	start := time.Now()
	stats := Stats{Recording: job.Recording.Name}
	log := e.log.With(logger.String("recording", job.Recording.Name))

	if err := ctx.Err(); err != nil {
		stats.Cancelled = true
		return stats
	}

	src := newSource(job.Recording.Path)
	if err := src.load(); err != nil {
		log.Error("failed to load recording", logger.Error(err))
		stats.Err = err
		stats.Elapsed = time.Since(start)
		return stats
	}
	defer src.release()

	stats.Duration = src.Duration()

	sels := slices.Clone(job.Selections)
	slices.SortStableFunc(sels, func(a, b selection.Selection) int {
		if c := cmp.Compare(a.Begin, b.Begin); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	for _, sel := range sels {
		if ctx.Err() != nil {
			stats.Cancelled = true
			log.Info("extraction cancelled", logger.Int("remaining", len(sels)-stats.handled()))
			break
		}

		switch e.extractOne(src, job, sel, &stats, log) {
		case outcomeWritten:
			stats.Written++
		case outcomeExisting:
			stats.Existing++
		case outcomeInvalid:
			stats.Invalid++
		case outcomeFailed:
			stats.Failed++
		}
	}

	stats.Elapsed = time.Since(start)
	log.Info("recording extraction finished",
		logger.Int("written", stats.Written),
		logger.Int("existing", stats.Existing),
		logger.Int("regenerated", stats.Regenerated),
		logger.Int("invalid", stats.Invalid),
		logger.Int("failed", stats.Failed),
		logger.Duration("elapsed", stats.Elapsed))
	return stats
}

func (s *Stats) handled() int {
	return s.Written + s.Existing + s.Invalid + s.Failed
}

func (e *Extractor) extractOne(src *source, job Job, sel selection.Selection, stats *Stats, log logger.Logger) outcome {
	begin, end, err := ValidateBounds(sel.Begin, sel.End, src.Duration())
	if err != nil {
		log.Warn("skipping selection",
			logger.Int("index", sel.Index),
			logger.Float64("begin", sel.Begin),
			logger.Float64("end", sel.End),
			logger.Error(err))
		return outcomeInvalid
	}

	name := FileName(job.Recording.Name, sel.Index, begin, end)
	path := filepath.Join(job.OutputDir, name)

	if info, statErr := os.Stat(path); statErr == nil {
		if info.Size() > e.MinValidSize {
			log.Debug("segment exists, skipping", logger.String("file", name))
			return outcomeExisting
		}
		if info.ModTime().After(e.started) {
			log.Debug("undersized segment is being written by another writer, skipping",
				logger.String("file", name))
			return outcomeExisting
		}
		log.Warn("regenerating undersized segment",
			logger.String("file", name),
			logger.Int64("size", info.Size()))
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Error("failed to remove undersized segment", logger.String("file", name), logger.Error(rmErr))
			return outcomeFailed
		}
		stats.Regenerated++
	}

	pcm, err := src.slice(begin, end)
	if err != nil {
		log.Error("failed to slice segment", logger.String("file", name), logger.Error(err))
		return outcomeFailed
	}

	created, err := e.writeIfAbsent(src, path, pcm)
	if err != nil {
		log.Error("failed to write segment", logger.String("file", name), logger.Error(err))
		return outcomeFailed
	}
	if !created {
		log.Debug("segment created concurrently, skipping", logger.String("file", name))
		return outcomeExisting
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Error("failed to verify segment", logger.String("file", name), logger.Error(err))
		return outcomeFailed
	}
	if info.Size() <= e.MinValidSize {
		log.Warn("written segment below minimum size, removed",
			logger.String("file", name),
			logger.Int64("size", info.Size()),
			logger.Int64("min_size", e.MinValidSize))
		_ = os.Remove(path)
		return outcomeInvalid
	}

	log.Debug("segment written",
		logger.String("file", name),
		logger.Float64("begin", begin),
		logger.Float64("end", end))
	return outcomeWritten
}

// writeIfAbsent creates path exclusively and encodes pcm into it. It reports
// false without error when another writer created the file first. The file
// is visible while it is encoded; extractOne leaves undersized files newer
// than the extractor alone.
func (e *Extractor) writeIfAbsent(src *source, path string, pcm []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, SegmentFilePermissions) //nolint:gosec // path built from output dir and recording name
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, e.writeError(err, path, "create")
	}

	if err := src.writeWAV(f, pcm); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return false, e.writeError(err, path, "encode")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return false, e.writeError(err, path, "close")
	}
	return true, nil
}

func (e *Extractor) writeError(err error, path, operation string) error {
	return errors.New(err).
		Component("segment").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("file", path).
		Build()
}

// Reasons a selection is not cut
var (
	ErrNegativeBegin = errors.NewStd("begin time is negative")
	ErrEmptyRange    = errors.NewStd("end time is not after begin time")
	ErrBeyondAudio   = errors.NewStd("begin time is beyond the end of the audio")
	ErrTooShort      = errors.NewStd("segment is shorter than 0.1s")
)

// ValidateBounds checks a selection against the audio duration and returns
// the range to cut, with end clamped to duration. A length of exactly 0.1s
// passes, anything shorter does not.
func ValidateBounds(begin, end, duration float64) (float64, float64, error) {
	switch {
	case begin < 0:
		return 0, 0, ErrNegativeBegin
	case end <= begin:
		return 0, 0, ErrEmptyRange
	case begin >= duration:
		return 0, 0, ErrBeyondAudio
	}

	if end > duration {
		end = duration
	}

	if end-begin < MinSegmentSeconds-boundsEpsilon {
		return 0, 0, ErrTooShort
	}
	return begin, end, nil
}
