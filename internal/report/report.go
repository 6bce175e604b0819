// Package report renders folder listings, progress and run summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/tphakala/eloc-raven/internal/processor"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// ShouldColorize reports whether w is a terminal
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, colorize bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Candidates renders discovered folders with their file counts
func Candidates(cands []processor.Candidate, colorize bool) string {
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		name := c.Name
		if c.IsRoot {
			name = "[ROOT] " + name
		}
		csv := strconv.Itoa(c.CSVFiles)
		if colorize && c.HasDetections() {
			csv = ansiGreen + csv + ansiReset
		}
		rows = append(rows, []string{name, strconv.Itoa(c.WAVFiles), csv, c.Path})
	}
	return renderTable(
		[]string{"Folder", "WAV", "CSV", "Path"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
		colorize,
	)
}

// Summary renders one row per folder followed by the run totals
func Summary(s *processor.Summary, colorize bool) string {
	rows := make([][]string, 0, len(s.Folders)+1)
	var tables, unmatched int
	for i := range s.Folders {
		f := &s.Folders[i]
		tables += f.Tables
		unmatched += f.Unmatched
		rows = append(rows, []string{
			folderStatus(f, colorize),
			f.Folder,
			strconv.Itoa(f.Detections),
			strconv.Itoa(f.Tables),
			strconv.Itoa(f.Unmatched),
			strconv.Itoa(f.Segments.Written),
			strconv.Itoa(f.Segments.Existing),
			strconv.Itoa(f.Segments.Invalid + f.Segments.Failed),
		})
	}

	totals := s.Totals()
	rows = append(rows, []string{
		"", "total", "",
		strconv.Itoa(tables),
		strconv.Itoa(unmatched),
		strconv.Itoa(totals.Written),
		strconv.Itoa(totals.Existing),
		strconv.Itoa(totals.Invalid + totals.Failed),
	})

	var b strings.Builder
	b.WriteString(renderTable(
		[]string{"Status", "Folder", "Detections", "Tables", "Unmatched", "Written", "Existing", "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		colorize,
	))
	fmt.Fprintf(&b, "\nRun %s finished in %s", s.RunID, s.Elapsed.Round(time.Millisecond))
	if s.Cancelled {
		b.WriteString(" (cancelled)")
	}
	b.WriteString("\n")
	return b.String()
}

func folderStatus(f *processor.FolderSummary, colorize bool) string {
	label, color := "OK", ansiGreen
	switch {
	case f.Cancelled:
		label, color = "CANCELLED", ansiYellow
	case f.Skipped:
		label, color = "SKIPPED", ansiYellow
	case f.Err != nil:
		label, color = "ERROR", ansiRed
	case f.RejectedFiles > 0 || f.TableErrors > 0 || f.RecordingErrors > 0:
		label, color = "WARN", ansiYellow
	}
	if colorize {
		return color + label + ansiReset
	}
	return label
}

// Progress returns a progress callback writing one line per event to w
func Progress(w io.Writer) processor.ProgressFunc {
	return func(ev processor.Event) {
		switch ev.Kind {
		case processor.EventFolderStarted:
			fmt.Fprintf(w, "%s: %s\n", ev.Folder, ev.Message)
		case processor.EventFolderSkipped:
			fmt.Fprintf(w, "%s: skipped, %s\n", ev.Folder, ev.Message)
		case processor.EventDetectionRejected:
			fmt.Fprintf(w, "%s: rejected %s\n", ev.Folder, ev.Item)
		case processor.EventRecordingExtracted:
			fmt.Fprintf(w, "%s: [%d/%d] %s\n", ev.Folder, ev.Done, ev.Total, ev.Item)
		}
	}
}
