package processor

import (
	"github.com/tphakala/eloc-raven/internal/conf"
	"github.com/tphakala/eloc-raven/internal/selection"
)

// Mode selects which stages run for a folder
type Mode int

const (
	// ModeProcess builds selection tables from detection CSVs and, when
	// enabled, cuts audio segments from them
	ModeProcess Mode = iota
	// ModeExtract cuts audio segments from selection tables already on disk
	ModeExtract
)

// String returns a string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeProcess:
		return "process"
	case ModeExtract:
		return "extract"
	default:
		return "unknown"
	}
}

// Options controls a processing run
type Options struct {
	Params          selection.Params
	CreateTables    bool
	ExtractAudio    bool
	Workers         int // recording workers per folder, 0 for auto
	FolderWorkers   int // folders processed concurrently
	MaxWorkers      int // ceiling on Workers, configured or automatic
	CSVPrefix       string
	OutputDir       string // inside each input folder
	TablesDir       string // inside OutputDir
	SegmentsDir     string // inside OutputDir
	MinSegmentBytes int64
}

// OptionsFromSettings maps validated settings to run options
func OptionsFromSettings(s *conf.Settings) Options {
	return Options{
		Params: selection.Params{
			TimeOffset:    s.Processing.TimeOffset,
			SegmentLength: s.Processing.SegmentLength,
		},
		CreateTables:    s.Processing.CreateTables,
		ExtractAudio:    s.Processing.ExtractAudio,
		Workers:         s.Processing.Workers,
		FolderWorkers:   s.Processing.FolderWorkers,
		MaxWorkers:      s.Processing.MaxWorkers,
		CSVPrefix:       s.Input.CSVPrefix,
		OutputDir:       s.Output.Dir,
		TablesDir:       s.Output.TablesDir,
		SegmentsDir:     s.Output.SegmentsDir,
		MinSegmentBytes: s.Output.MinSegmentBytes,
	}
}

// DefaultOptions returns the options of an unconfigured run
func DefaultOptions() Options {
	return Options{
		Params: selection.Params{
			TimeOffset:    conf.DefaultTimeOffset,
			SegmentLength: conf.DefaultSegmentLength,
		},
		CreateTables:    true,
		ExtractAudio:    true,
		FolderWorkers:   1,
		MaxWorkers:      conf.DefaultMaxWorkers,
		CSVPrefix:       conf.DefaultCSVPrefix,
		OutputDir:       conf.DefaultOutputDir,
		TablesDir:       conf.DefaultTablesDir,
		SegmentsDir:     conf.DefaultSegmentsDir,
		MinSegmentBytes: conf.DefaultMinSegmentBytes,
	}
}

// withDefaults fills zero fields from DefaultOptions. An empty CSVPrefix
// selects every CSV and is kept.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Params.SegmentLength <= 0 {
		o.Params.SegmentLength = def.Params.SegmentLength
	}
	if o.FolderWorkers < 1 {
		o.FolderWorkers = def.FolderWorkers
	}
	if o.MaxWorkers < 1 {
		o.MaxWorkers = def.MaxWorkers
	}
	if o.OutputDir == "" {
		o.OutputDir = def.OutputDir
	}
	if o.TablesDir == "" {
		o.TablesDir = def.TablesDir
	}
	if o.SegmentsDir == "" {
		o.SegmentsDir = def.SegmentsDir
	}
	if o.MinSegmentBytes <= 0 {
		o.MinSegmentBytes = def.MinSegmentBytes
	}
	return o
}
