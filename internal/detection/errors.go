package detection

import (
	"github.com/tphakala/eloc-raven/internal/errors"
)

// Sentinel errors for rejected detection files. Each is wrapped in an
// EnhancedError carrying the file and row.
var (
	ErrNoScoreColumn = errors.NewStd("no usable score column")
	ErrMissingColumn = errors.NewStd("missing required column")
	ErrDateFormat    = errors.NewStd("unexpected date format")
	ErrTimeFormat    = errors.NewStd("unexpected time format")
	ErrScoreFormat   = errors.NewStd("invalid score value")
	ErrRowLength     = errors.NewStd("row has fewer fields than header")
)

// parseError wraps a parse failure with the file and row context
func parseError(err error, name string, row int) error {
	b := errors.New(err).
		Component("detection").
		Category(errors.CategoryFileParsing).
		Context("file", name)
	if row > 0 {
		b = b.Context("row", row)
	}
	return b.Build()
}
