// conf/utils.go various util functions for configuration package
package conf

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// envKeyReplacer maps nested keys to env names: processing.workers -> ELOC_PROCESSING_WORKERS
var envKeyReplacer = strings.NewReplacer(".", "_")

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order: working directory, user config directory, executable directory.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "windows" {
			paths = append(paths, filepath.Join(homeDir, "AppData", "Roaming", "eloc-raven"))
		} else {
			paths = append(paths, filepath.Join(homeDir, ".config", "eloc-raven"))
		}
	}

	if exePath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Dir(exePath))
	}

	return paths
}
