package logger

import (
	"io"
	"log/slog"
	"time"
)

// timestampLayout is used for the process log file
const timestampLayout = "2006-01-02 15:04:05"

// newTextHandler returns a slog text handler. Timestamps are converted to tz
// and written only when withTime is set; console output leaves them to the
// terminal or supervisor.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location, withTime bool) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if !withTime {
					return slog.Attr{}
				}
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.In(tz).Format(timestampLayout))
				}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= traceLevelValue {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return a
		},
	}
	return slog.NewTextHandler(w, opts)
}
