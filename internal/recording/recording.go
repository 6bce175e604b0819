// Package recording discovers ELOC WAV recordings, parses their start time
// from the file name and matches detections to the recording that covers them.
package recording

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// NominalDuration is the assumed length of every recording window.
// The real length is read from the WAV header when segments are cut.
const NominalDuration = time.Hour

// filenameLayout matches the two trailing name tokens joined by a space
const filenameLayout = "2006-01-02 15-04-05"

// Recording is one WAV file with a start time parsed from its name.
type Recording struct {
	Path     string        // full path to the WAV file
	Name     string        // base name without extension
	Start    time.Time     // wall-clock start, naive local time stored as UTC
	Duration time.Duration // window length, NominalDuration unless set otherwise
}

// End returns the exclusive end of the recording window
func (r Recording) End() time.Time {
	return r.Start.Add(r.Duration)
}

// Contains reports whether t falls inside [Start, Start+Duration)
func (r Recording) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End())
}

// ParseFilenameTimestamp extracts the start time from a recording file name
// such as "site_1741605292068_2025-03-10_18-14-52.wav". The date and time are
// taken from the last two underscore separated tokens, so any prefix works.
func ParseFilenameTimestamp(name string) (time.Time, bool) {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".wav") {
		base = strings.TrimSuffix(base, ext)
	}

	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return time.Time{}, false
	}

	datePart := parts[len(parts)-2]
	timePart := parts[len(parts)-1]

	t, err := time.ParseInLocation(filenameLayout, datePart+" "+timePart, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FromPath builds a Recording from a WAV path, reporting false when the
// name carries no parseable timestamp.
func FromPath(path string) (Recording, bool) {
	start, ok := ParseFilenameTimestamp(path)
	if !ok {
		return Recording{}, false
	}
	base := filepath.Base(path)
	return Recording{
		Path:     path,
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Start:    start,
		Duration: NominalDuration,
	}, true
}

// IsWAV reports whether the file name has a .wav extension in any case
func IsWAV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".wav")
}

// Discover lists the WAV recordings in dir, not recursing into subdirectories.
// Files whose names carry no timestamp are logged and skipped, as are files
// whose base name repeats one already found (x.wav next to x.WAV), since
// tables and clips are named after it. The result is sorted by start time,
// then path.
func Discover(dir string) ([]Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("operation", "discover_recordings").
			Context("dir", dir).
			Build()
	}

	log := GetLogger()
	var recs []Recording
	for _, entry := range entries {
		if entry.IsDir() || !IsWAV(entry.Name()) {
			continue
		}
		rec, ok := FromPath(filepath.Join(dir, entry.Name()))
		if !ok {
			log.Warn("skipping recording without timestamp in name",
				logger.String("file", entry.Name()),
				logger.String("dir", dir))
			continue
		}
		recs = append(recs, rec)
	}

	sortRecordings(recs)
	return dedupeNames(recs, log), nil
}

// dedupeNames keeps the first recording of each base name in sorted order
func dedupeNames(recs []Recording, log logger.Logger) []Recording {
	seen := make(map[string]string, len(recs))
	kept := recs[:0]
	for _, rec := range recs {
		if first, ok := seen[rec.Name]; ok {
			log.Warn("skipping recording with duplicate name",
				logger.String("file", rec.Path),
				logger.String("kept", first))
			continue
		}
		seen[rec.Name] = rec.Path
		kept = append(kept, rec)
	}
	return kept
}

// sortRecordings orders by start time, ties broken by path
func sortRecordings(recs []Recording) {
	slices.SortFunc(recs, func(a, b Recording) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}
