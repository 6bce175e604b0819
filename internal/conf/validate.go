// conf/validate.go

package conf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tphakala/eloc-raven/internal/errors"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

var validate = validator.New()

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validate.Struct(settings); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
		} else {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateOutputSettings checks that output directory names stay inside each folder's output dir
func validateOutputSettings(settings *OutputConfig) error {
	var errs []string

	for name, dir := range map[string]string{
		"output.tablesdir":   settings.TablesDir,
		"output.segmentsdir": settings.SegmentsDir,
	} {
		if dir == "" {
			continue
		}
		if filepath.IsAbs(dir) || strings.Contains(filepath.ToSlash(dir), "..") {
			errs = append(errs, fmt.Sprintf("%s must be a relative directory name, got %q", name, dir))
		}
	}

	if settings.TablesDir != "" && settings.TablesDir == settings.SegmentsDir {
		errs = append(errs, "output.tablesdir and output.segmentsdir must differ")
	}

	if len(errs) > 0 {
		return fmt.Errorf("output settings errors: %v", errs)
	}
	return nil
}
