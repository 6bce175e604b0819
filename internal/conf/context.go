package conf

import (
	"github.com/tphakala/eloc-raven/internal/buildinfo"
	"github.com/tphakala/eloc-raven/internal/logger"
)

// Context holds the state shared by CLI commands
type Context struct {
	Settings   *Settings
	ConfigFile string // explicit --config path, empty for the search paths
	RunID      string // identifies one invocation in logs
	BuildInfo  *buildinfo.Context
}

// LoggingConfig maps the settings to the central logger configuration.
// The console follows the debug flag; the file keeps its own level.
func (s *Settings) LoggingConfig() *logger.LoggingConfig {
	level := logger.DefaultLogLevel
	if s.Debug {
		level = "debug"
	}

	fileLevel := s.Main.Log.Level
	if fileLevel == "" {
		fileLevel = level
	}

	return &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     "Local",
		Console: &logger.ConsoleOutput{
			Enabled: true,
			Level:   level,
		},
		FileOutput: &logger.FileOutput{
			Enabled:  s.Main.Log.Enabled,
			Path:     s.Main.Log.Path,
			Level:    fileLevel,
			Truncate: s.Main.Log.Truncate,
		},
	}
}
