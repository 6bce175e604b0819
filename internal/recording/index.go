package recording

import (
	"time"
)

// Date is a calendar day without time or zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Index groups recordings by the day they start on. It is immutable once built
// and safe for concurrent reads.
type Index struct {
	byDate map[Date][]Recording
	count  int
}

// NewIndex builds an index over recs. The input slice is not modified.
func NewIndex(recs []Recording) *Index {
	idx := &Index{byDate: make(map[Date][]Recording), count: len(recs)}
	for _, rec := range recs {
		d := DateOf(rec.Start)
		idx.byDate[d] = append(idx.byDate[d], rec)
	}
	for d := range idx.byDate {
		sortRecordings(idx.byDate[d])
	}
	return idx
}

// Len returns the number of indexed recordings
func (idx *Index) Len() int {
	return idx.count
}

// OnDate returns the recordings starting on date, sorted by start then path.
// The returned slice must not be modified.
func (idx *Index) OnDate(date Date) []Recording {
	return idx.byDate[date]
}

// Match returns the recording whose window contains t. Only recordings that
// start on t's day are considered; with overlapping windows the earliest
// start wins, then the lexically smallest path.
func (idx *Index) Match(t time.Time) (Recording, bool) {
	for _, rec := range idx.byDate[DateOf(t)] {
		if rec.Contains(t) {
			return rec, true
		}
	}
	return Recording{}, false
}

// ByName returns the recording with the given base name. If several files
// share the name the smallest path wins.
func (idx *Index) ByName(name string) (Recording, bool) {
	var found Recording
	ok := false
	for _, recs := range idx.byDate {
		for _, rec := range recs {
			if rec.Name == name && (!ok || rec.Path < found.Path) {
				found, ok = rec, true
			}
		}
	}
	return found, ok
}
