package selection

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/eloc-raven/internal/errors"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// Raven selection table layout
const (
	TableSuffix = "_SelectionTable.txt"
	TableHeader = "Selection\tView\tChannel\tBegin Time (s)\tEnd Time (s)\tLow Freq (Hz)\tHigh Freq (Hz)\n"
	View        = "Spectrogram 1"
	Channel     = 1

	// TableFilePermissions is the mode of written tables
	TableFilePermissions = 0o644

	// minTableColumns is the number of columns needed to read begin and end times
	minTableColumns = 5
)

// TableFileName returns the selection table file name for a recording or bucket name
func TableFileName(name string) string {
	return name + TableSuffix
}

// NameFromTableFile strips the table suffix, reporting false for other files
func NameFromTableFile(fileName string) (string, bool) {
	base := filepath.Base(fileName)
	if !strings.HasSuffix(base, TableSuffix) {
		return "", false
	}
	return strings.TrimSuffix(base, TableSuffix), true
}

// WriteTable writes the header and one tab-separated row per selection.
func WriteTable(w io.Writer, sels []Selection) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(TableHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range sels {
		if _, err := fmt.Fprintf(bw, "%d\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Index, View, Channel, s.Begin, s.End, s.LowFreq, s.HighFreq); err != nil {
			return fmt.Errorf("failed to write selection %d: %w", s.Index, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush selection table: %w", err)
	}
	return nil
}

// WriteTableFile writes the table for name into dir and returns its path.
// The content goes to a temporary file that is renamed into place, so a
// reader never sees a partial table.
func WriteTableFile(dir, name string, sels []Selection) (string, error) {
	path := filepath.Join(dir, TableFileName(name))

	tempFile, err := os.CreateTemp(dir, ".selection-*.tmp")
	if err != nil {
		return "", tableError(err, path, "create_temp")
	}
	tempPath := tempFile.Name()

	cleanup := func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}

	if err := tempFile.Chmod(TableFilePermissions); err != nil {
		cleanup()
		return "", tableError(err, path, "chmod")
	}
	if err := WriteTable(tempFile, sels); err != nil {
		cleanup()
		return "", tableError(err, path, "write")
	}
	if err := tempFile.Sync(); err != nil {
		cleanup()
		return "", tableError(err, path, "sync")
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", tableError(err, path, "close")
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", tableError(err, path, "rename")
	}

	return path, nil
}

func tableError(err error, path, operation string) error {
	return errors.New(err).
		Component("selection").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("file", path).
		Build()
}

// ReadTableFile reads selections back from a Raven table. The header line is
// skipped, rows with fewer than 5 columns are ignored, and the index is the
// 1-based data row number. Rows with unparseable times are logged and skipped.
func ReadTableFile(path string) ([]Selection, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the tables directory listing
	if err != nil {
		return nil, tableError(err, path, "open")
	}
	defer func() { _ = f.Close() }()

	sels, err := readTable(f, path)
	if err != nil {
		return nil, tableError(err, path, "read")
	}
	return sels, nil
}

func readTable(r io.Reader, path string) ([]Selection, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}

	var sels []Selection
	for row := 1; scanner.Scan(); row++ {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) < minTableColumns {
			continue
		}

		sel, err := parseTableRow(fields)
		if err != nil {
			GetLogger().Warn("skipping unreadable selection row",
				logger.String("file", filepath.Base(path)),
				logger.Int("row", row),
				logger.Error(err))
			continue
		}
		sel.Index = row
		sels = append(sels, sel)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sels, nil
}

func parseTableRow(fields []string) (Selection, error) {
	begin, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return Selection{}, fmt.Errorf("begin time %q: %w", fields[3], err)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return Selection{}, fmt.Errorf("end time %q: %w", fields[4], err)
	}

	sel := Selection{Begin: begin, End: end}
	if len(fields) > 6 {
		// frequency columns are informational, zero when unreadable
		sel.LowFreq, _ = strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
		sel.HighFreq, _ = strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
	}
	return sel, nil
}
