// Package selection turns detections into Raven selection tables.
//
// Begin and end times are seconds relative to the owning recording start.
// The background and class scores are written into the Low Freq and High Freq
// columns (background*1000, score*5000) so they show up next to each
// selection in a spectrogram viewer; they are not frequencies.
package selection

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/tphakala/eloc-raven/internal/detection"
)

// Score scaling into the frequency columns
const (
	BackgroundScale = 1000.0
	ScoreScale      = 5000.0
)

// Selection is one row of a Raven selection table.
type Selection struct {
	Index    int     // 1-based position within its table
	Begin    float64 // seconds from recording start, 2 decimals
	End      float64 // Begin + segment length, 2 decimals
	LowFreq  float64 // background score * BackgroundScale
	HighFreq float64 // class score * ScoreScale
}

// Duration returns End - Begin
func (s Selection) Duration() float64 {
	return s.End - s.Begin
}

// Params controls time placement of selections
type Params struct {
	TimeOffset    float64 // seconds added to every begin time, may be negative
	SegmentLength float64 // seconds, must be > 0
}

// Generate computes one Selection per detection relative to ref. Detections
// are ordered by timestamp, ties by source file and row, and indexed from 1.
// Begin times may be negative or exceed the recording; no clamping is done here.
func Generate(ref time.Time, dets []detection.Detection, p Params) []Selection {
	ordered := slices.Clone(dets)
	slices.SortStableFunc(ordered, compareDetections)

	sels := make([]Selection, 0, len(ordered))
	for i, det := range ordered {
		raw := det.Timestamp.Sub(ref).Seconds() + p.TimeOffset
		sels = append(sels, Selection{
			Index:    i + 1,
			Begin:    round2(raw),
			End:      round2(raw + p.SegmentLength),
			LowFreq:  round2(det.Background * BackgroundScale),
			HighFreq: round2(det.Score * ScoreScale),
		})
	}
	return sels
}

func compareDetections(a, b detection.Detection) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.Row, b.Row)
}

// round2 rounds to 2 decimal places, half away from zero
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
