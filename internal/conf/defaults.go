// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// Default values shared with the engine packages
const (
	DefaultTimeOffset      = -2.0
	DefaultSegmentLength   = 5.0
	DefaultCSVPrefix       = "EI-results"
	DefaultOutputDir       = "output"
	DefaultTablesDir       = "Raven_Selection_Tables"
	DefaultSegmentsDir     = "Audio_Segments"
	DefaultMinSegmentBytes = 1024
	DefaultMaxWorkers      = 8
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "eloc-raven.log")
	viper.SetDefault("main.log.level", "info")
	viper.SetDefault("main.log.truncate", true)

	viper.SetDefault("processing.timeoffset", DefaultTimeOffset)
	viper.SetDefault("processing.segmentlength", DefaultSegmentLength)
	viper.SetDefault("processing.createtables", true)
	viper.SetDefault("processing.extractaudio", true)
	viper.SetDefault("processing.workers", 0)
	viper.SetDefault("processing.folderworkers", 1)
	viper.SetDefault("processing.maxworkers", DefaultMaxWorkers)

	viper.SetDefault("input.csvprefix", DefaultCSVPrefix)

	viper.SetDefault("output.dir", DefaultOutputDir)
	viper.SetDefault("output.tablesdir", DefaultTablesDir)
	viper.SetDefault("output.segmentsdir", DefaultSegmentsDir)
	viper.SetDefault("output.minsegmentbytes", DefaultMinSegmentBytes)

	viper.SetDefault("metrics.textfile", "")
}
