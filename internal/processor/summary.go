package processor

import (
	"time"

	"github.com/tphakala/eloc-raven/internal/segment"
)

// SegmentTotals sums segment outcomes over recordings
type SegmentTotals struct {
	Written     int
	Existing    int
	Regenerated int
	Invalid     int
	Failed      int
}

func (t *SegmentTotals) add(s segment.Stats) {
	t.Written += s.Written
	t.Existing += s.Existing
	t.Regenerated += s.Regenerated
	t.Invalid += s.Invalid
	t.Failed += s.Failed
}

// FolderSummary reports what happened in one input folder
type FolderSummary struct {
	Folder     string
	Mode       Mode
	Skipped    bool   // folder was not processed
	SkipReason string // why it was skipped
	Cancelled  bool
	Err        error // folder-level failure; output directory errors are also returned by Run

	DetectionFiles  int // CSV files loaded
	RejectedFiles   int // CSV files rejected
	Detections      int
	Recordings      int // recordings discovered
	Tables          int // tables written or read
	FallbackTables  int
	Unmatched       int // detections in fallback tables
	TableErrors     int
	RecordingsCut   int // recordings the extractor processed
	RecordingErrors int // recordings that failed to load
	Segments        SegmentTotals
	Elapsed         time.Duration
}

// Summary is the result of a run
type Summary struct {
	RunID     string
	Folders   []FolderSummary
	Cancelled bool
	Elapsed   time.Duration
}

// Totals sums the per-folder segment outcomes
func (s *Summary) Totals() SegmentTotals {
	var t SegmentTotals
	for i := range s.Folders {
		f := &s.Folders[i].Segments
		t.Written += f.Written
		t.Existing += f.Existing
		t.Regenerated += f.Regenerated
		t.Invalid += f.Invalid
		t.Failed += f.Failed
	}
	return t
}
