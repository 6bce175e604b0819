package conf

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tphakala/eloc-raven/internal/errors"
)

// flagKeys maps command line flag names to configuration keys
var flagKeys = map[string]string{
	"debug":         "debug",
	"timeoffset":    "processing.timeoffset",
	"segmentlength": "processing.segmentlength",
	"tables":        "processing.createtables",
	"audio":         "processing.extractaudio",
	"workers":       "processing.workers",
	"folderworkers": "processing.folderworkers",
	"maxworkers":    "processing.maxworkers",
	"csvprefix":     "input.csvprefix",
	"minsegment":    "output.minsegmentbytes",
	"metrics":       "metrics.textfile",
}

// BindFlags binds the known flags present in flags to their configuration
// keys. Call it for the executing command only, before Load, so a flag set
// on the command line takes precedence over file and environment values.
func BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("flag", name).
				Build()
		}
	}
	return nil
}

// AddWorkerFlags defines the worker and segment flags shared by the
// commands that cut audio
func AddWorkerFlags(flags *pflag.FlagSet) {
	flags.IntP("workers", "w", 0, "Recording workers per folder, 0 sizes by CPU and memory")
	flags.Int("folderworkers", 1, "Folders processed concurrently")
	flags.Int("maxworkers", DefaultMaxWorkers, "Ceiling on recording workers per folder")
	flags.Int64("minsegment", DefaultMinSegmentBytes, "Existing clips at or below this size in bytes are regenerated")
	flags.String("metrics", "", "Write prometheus metrics to this textfile when the run ends")
}
