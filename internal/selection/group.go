package selection

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/tphakala/eloc-raven/internal/detection"
	"github.com/tphakala/eloc-raven/internal/logger"
	"github.com/tphakala/eloc-raven/internal/recording"
)

// GroupKey identifies the (date, hour) bucket of detections that matched no recording.
type GroupKey struct {
	Date recording.Date
	Hour int
}

// KeyOf returns the bucket for t
func KeyOf(t time.Time) GroupKey {
	return GroupKey{Date: recording.DateOf(t), Hour: t.Hour()}
}

// Name returns the table name of the bucket, e.g. "2025-Mar-10_18-00-00_unmatched"
func (k GroupKey) Name() string {
	return fmt.Sprintf("%04d-%s-%02d_%02d-00-00_unmatched",
		k.Date.Year, detection.MonthAbbrev(k.Date.Month), k.Date.Day, k.Hour)
}

// Table is the set of selections for one recording or one unmatched bucket.
type Table struct {
	Name       string              // recording base name or unmatched bucket name
	Recording  recording.Recording // zero when Matched is false
	Matched    bool                // false for fallback tables
	Reference  time.Time           // time that offset 0 corresponds to
	Selections []Selection
}

// Plan is the result of aligning detections to recordings.
type Plan struct {
	Tables         []Table // sorted by Name
	Detections     int     // detections considered
	Unmatched      int     // detections placed in fallback tables
	FallbackGroups int     // number of fallback tables
}

// BuildTables matches every detection to the recording covering it and
// generates one table per recording. Detections from several CSV files that
// fall in the same recording share one table with continuous indexing.
// Unmatched detections are bucketed by (date, hour); each bucket uses its
// earliest detection as the reference time and is logged as a warning.
func BuildTables(idx *recording.Index, dets []detection.Detection, p Params) Plan {
	matched := make(map[string][]detection.Detection)
	recs := make(map[string]recording.Recording)
	unmatched := make(map[GroupKey][]detection.Detection)

	for _, det := range dets {
		if rec, ok := idx.Match(det.Timestamp); ok {
			matched[rec.Path] = append(matched[rec.Path], det)
			recs[rec.Path] = rec
			continue
		}
		key := KeyOf(det.Timestamp)
		unmatched[key] = append(unmatched[key], det)
	}

	plan := Plan{Detections: len(dets)}

	for path, group := range matched {
		rec := recs[path]
		plan.Tables = append(plan.Tables, Table{
			Name:       rec.Name,
			Recording:  rec,
			Matched:    true,
			Reference:  rec.Start,
			Selections: Generate(rec.Start, group, p),
		})
	}

	log := GetLogger()
	for key, group := range unmatched {
		ref := group[0].Timestamp
		for _, det := range group[1:] {
			if det.Timestamp.Before(ref) {
				ref = det.Timestamp
			}
		}

		log.Warn("no matching recording, using earliest detection as reference",
			logger.String("table", key.Name()),
			logger.Int("detections", len(group)),
			logger.Time("reference", ref))

		plan.Unmatched += len(group)
		plan.FallbackGroups++
		plan.Tables = append(plan.Tables, Table{
			Name:       key.Name(),
			Reference:  ref,
			Selections: Generate(ref, group, p),
		})
	}

	slices.SortFunc(plan.Tables, func(a, b Table) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return plan
}
