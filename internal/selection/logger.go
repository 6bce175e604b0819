package selection

import (
	"github.com/tphakala/eloc-raven/internal/logger"
)

// GetLogger returns the selection package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("selection")
}
