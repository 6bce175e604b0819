package segment

import (
	"github.com/tphakala/eloc-raven/internal/logger"
)

// GetLogger returns the segment package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("segment")
}
