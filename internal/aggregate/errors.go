package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCommodity is returned when a commodity group has no rows.
	ErrEmptyCommodity = errors.New("commodity group has no rows")
	// ErrMixedCommodity is returned when a group holds more than one commodity name.
	ErrMixedCommodity = errors.New("commodity group mixes commodity names")
	// ErrMissingReference is returned when a named reference value is absent
	// from the technology table.
	ErrMissingReference = errors.New("missing reference value")
)

// ReferenceError names the reference keys that could not be resolved.
type ReferenceError struct {
	Keys []string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s in technology table: %s", ErrMissingReference, strings.Join(e.Keys, ", "))
}

func (e *ReferenceError) Unwrap() error { return ErrMissingReference }
