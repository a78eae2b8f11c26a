package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks persisted mappings: every entry has at least one complete
// source and its type agrees with the number of sources.
func Validate(m Mappings) error {
	var errs []error
	for _, key := range m.Keys() {
		fm := m[key]
		if strings.TrimSpace(key) == "" {
			errs = append(errs, errors.New("mapping: empty form field key"))
			continue
		}
		if err := validate.Struct(fm); err != nil {
			errs = append(errs, fmt.Errorf("mapping %q: %w", key, err))
			continue
		}
		switch {
		case len(fm.Sources) == 1 && fm.MappingType != Direct:
			errs = append(errs, fmt.Errorf("mapping %q: a single source must be %s, got %s", key, Direct, fm.MappingType))
		case len(fm.Sources) > 1 && fm.MappingType != Concatenated:
			errs = append(errs, fmt.Errorf("mapping %q: %d sources must be %s, got %s", key, len(fm.Sources), Concatenated, fm.MappingType))
		}
	}
	return errors.Join(errs...)
}
