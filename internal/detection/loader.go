package detection

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// DefaultPrefix is the name prefix of ELOC detection logs
const DefaultPrefix = "EI-results"

// columnLayout holds the header positions of the columns we read
type columnLayout struct {
	date, time, background, score int
	class                         string
	width                         int
}

// LoadFile opens and parses one detection CSV. A malformed header or row
// rejects the whole file; the caller logs and skips it.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from folder discovery
	if err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryFileIO).
			Context("operation", "open_detection_file").
			Context("file", path).
			Build()
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			GetLogger().Warn("failed to close detection file",
				logger.String("file", path),
				logger.Error(closeErr))
		}
	}()

	file, err := Parse(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	file.Path = path
	return file, nil
}

// Parse reads detection rows from r. name is used for error context and
// as the Source of each Detection.
func Parse(r io.Reader, name string) (*File, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1 // validated per row against the header
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, parseError(fmt.Errorf("%w: empty file", ErrMissingColumn), name, 0)
		}
		return nil, parseError(err, name, 0)
	}

	layout, err := resolveColumns(header)
	if err != nil {
		return nil, parseError(err, name, 0)
	}

	file := &File{Name: name, Class: layout.class}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err, name, row)
		}
		if len(record) < layout.width {
			return nil, parseError(fmt.Errorf("%w: got %d, want %d", ErrRowLength, len(record), layout.width), name, row)
		}

		det, err := parseRow(record, layout)
		if err != nil {
			return nil, parseError(err, name, row)
		}
		det.Source = name
		det.Row = row
		file.Detections = append(file.Detections, det)
	}

	return file, nil
}

// utf8BOM is written at the start of "CSV UTF-8" exports
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark from r
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// resolveColumns locates the required columns and the single class column
func resolveColumns(header []string) (columnLayout, error) {
	layout := columnLayout{date: -1, time: -1, background: -1, score: -1}

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		switch name {
		case ColumnDate:
			layout.date = i
		case ColumnTime:
			layout.time = i
		case ColumnBackground:
			layout.background = i
		default:
			if layout.score < 0 {
				layout.score = i
				layout.class = name
			}
		}
	}

	var missing []string
	for col, idx := range map[string]int{ColumnDate: layout.date, ColumnTime: layout.time, ColumnBackground: layout.background} {
		if idx < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return layout, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	if layout.score < 0 {
		return layout, ErrNoScoreColumn
	}

	layout.width = max(layout.date, layout.time, layout.background, layout.score) + 1
	return layout, nil
}

// parseRow converts one CSV record into a Detection
func parseRow(record []string, layout columnLayout) (Detection, error) {
	date, err := parseDate(record[layout.date])
	if err != nil {
		return Detection{}, err
	}

	clock, err := parseTimeOfDay(record[layout.time])
	if err != nil {
		return Detection{}, err
	}

	background, err := parseScore(record[layout.background], ColumnBackground)
	if err != nil {
		return Detection{}, err
	}
	score, err := parseScore(record[layout.score], layout.class)
	if err != nil {
		return Detection{}, err
	}

	return Detection{
		Timestamp:  date.Add(clock),
		Background: background,
		Class:      layout.class,
		Score:      score,
	}, nil
}

// parseDate parses "MM DD YYYY" or "Mon DD YYYY" into midnight UTC of that day
func parseDate(field string) (time.Time, error) {
	tokens := strings.Fields(field)
	if len(tokens) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateFormat, field)
	}

	month, ok := ParseMonth(tokens[0])
	if !ok {
		return time.Time{}, fmt.Errorf("%w: month %q", ErrDateFormat, tokens[0])
	}
	day, dayErr := strconv.Atoi(tokens[1])
	year, yearErr := strconv.Atoi(tokens[2])
	if dayErr != nil || yearErr != nil || year < 1 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateFormat, field)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: day out of range in %q", ErrDateFormat, field)
	}
	return t, nil
}

// parseTimeOfDay reads the leading "HH:MM:SS" token; trailing tokens are ignored
func parseTimeOfDay(field string) (time.Duration, error) {
	tokens := strings.Fields(field)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrTimeFormat)
	}

	t, err := time.Parse("15:04:05", tokens[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrTimeFormat, tokens[0])
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// parseScore parses a score column value
func parseScore(field, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column %s: %q", ErrScoreFormat, column, field)
	}
	return v, nil
}

// Select returns the CSV paths whose base name starts with prefix, sorted.
// An empty prefix selects every CSV.
func Select(paths []string, prefix string) []string {
	var selected []string
	for _, p := range paths {
		base := filepath.Base(p)
		if !strings.EqualFold(filepath.Ext(base), ".csv") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(base, prefix) {
			continue
		}
		selected = append(selected, p)
	}
	slices.Sort(selected)
	return selected
}

// FindFiles lists the detection CSVs directly inside dir that match prefix.
func FindFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryFileIO).
			Context("operation", "find_detection_files").
			Context("dir", dir).
			Build()
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return Select(paths, prefix), nil
}
