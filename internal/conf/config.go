// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/eloc-raven/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// EnvPrefix is the prefix for environment variable overrides, e.g. ELOC_PROCESSING_WORKERS
const EnvPrefix = "ELOC"

// Settings contains all configuration options for eloc-raven.
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug logging

	Main struct {
		Log LogConfig `yaml:"log"` // process log file
	} `yaml:"main"`

	Processing ProcessingConfig `yaml:"processing"`
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LogConfig defines the process log file
type LogConfig struct {
	Enabled  bool   `yaml:"enabled"`                                                      // true to write the process log file
	Path     string `yaml:"path"`                                                         // path to the log file
	Level    string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"` // minimum level written to the file
	Truncate bool   `yaml:"truncate"`                                                     // truncate the log once at process start
}

// ProcessingConfig controls selection generation and segment extraction
type ProcessingConfig struct {
	TimeOffset    float64 `yaml:"timeoffset"`                          // seconds added to every computed begin time
	SegmentLength float64 `yaml:"segmentlength" validate:"gt=0"`       // duration of each selection in seconds
	CreateTables  bool    `yaml:"createtables"`                        // write Raven selection tables
	ExtractAudio  bool    `yaml:"extractaudio"`                        // slice WAV segments for each selection
	Workers       int     `yaml:"workers" validate:"gte=0"`            // recording workers per folder, 0 for auto
	FolderWorkers int     `yaml:"folderworkers" validate:"gte=1"`      // folders processed concurrently
	MaxWorkers    int     `yaml:"maxworkers" validate:"gte=1,lte=256"` // hard ceiling on recording workers per folder
}

// InputConfig selects which detection files are loaded
type InputConfig struct {
	CSVPrefix string `yaml:"csvprefix"` // only CSV files starting with this prefix, empty for all
}

// OutputConfig defines the per-folder output layout
type OutputConfig struct {
	Dir             string `yaml:"dir" validate:"required"`           // output directory inside each input folder
	TablesDir       string `yaml:"tablesdir" validate:"required"`     // selection table directory inside Dir
	SegmentsDir     string `yaml:"segmentsdir" validate:"required"`   // audio segment directory inside Dir
	MinSegmentBytes int64  `yaml:"minsegmentbytes" validate:"gte=45"` // segments at or below this size are regenerated
}

// MetricsConfig controls the prometheus textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node-exporter textfile path, empty disables
}

// settingsMutex serializes access to the global viper instance
var settingsMutex sync.Mutex

// Load reads defaults, the configuration file and ELOC_ environment
// variables into Settings. configFile overrides the search paths when set.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := unmarshalSettings()
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// unmarshalSettings decodes the current viper state and validates it
func unmarshalSettings() (*Settings, error) {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper registers defaults, search paths and env overrides, then reads the config file.
// A missing config file is not an error; defaults apply.
func initViper(configFile string) error {
	setDefaultConfig()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(err).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("config_file", configFile).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the embedded default config.yaml.
func DefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// Dump renders the effective settings as YAML for `config --show`.
func (s *Settings) Dump() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return data, nil
}
