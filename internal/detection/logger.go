package detection

import (
	"github.com/tphakala/eloc-raven/internal/logger"
)

// GetLogger returns the detection package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("detection")
}
