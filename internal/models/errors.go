package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the forecasting and simulation cores. Handlers map
// these onto HTTP status codes; nothing in the core is fatal.
var (
	// ErrInsufficientHistory indicates too few observations to train.
	// Callers recover by falling back to the seasonal-average model.
	ErrInsufficientHistory = errors.New("insufficient demand history")

	// ErrModelNotTrained is internal only: predict auto-trains on demand,
	// so this never reaches a caller.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrUnknownScenario indicates an unrecognized scenario or severity.
	ErrUnknownScenario = errors.New("unknown scenario or severity")

	// ErrUnavailable indicates an optional backing store is not configured.
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError reports a caller-correctable input problem such as an
// out-of-range horizon or an unknown blood type.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
