// Package detection loads ELOC event-detection CSV logs.
//
// Each CSV row is one detection event with a wall-clock date, a time of day,
// a background score and a score for exactly one event class (for example
// "trumpet"). The class column is detected from the header. Detections are
// held in memory only.
package detection

import (
	"time"
)

// Column names in the ELOC detection CSV, compared after trimming whitespace
const (
	ColumnDate       = "Month Date Year"
	ColumnTime       = "Hour:Min:Sec Day"
	ColumnBackground = "background"
)

// Detection is one scored event from a detection CSV.
type Detection struct {
	// Temporal Information
	Timestamp time.Time // Absolute wall-clock time, naive local time stored as UTC

	// Scores
	Background float64 // Background score (0.0-1.0)
	Class      string  // Event class label, taken from the score column name
	Score      float64 // Score for Class (0.0-1.0)

	// Provenance
	Source string // CSV file name the row came from
	Row    int    // 1-based data row within Source, header excluded
}

// File is a parsed detection CSV.
type File struct {
	Path       string      // Path the file was loaded from, empty for readers
	Name       string      // Base file name
	Class      string      // Detected class column
	Detections []Detection // Rows in file order
}
