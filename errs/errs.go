// Package errs holds the structural failures the pipeline reports to callers.
// Data-quality problems (blank fields, bad bytes, short records) are never
// reported here; they decode to missing values instead.
package errs

import "fmt"

// FormatNotFoundError reports a required format definition that is absent or malformed.
type FormatNotFoundError struct {
	DataType string
	Reason   string
	Err      error
}

func (e *FormatNotFoundError) Error() string {
	msg := fmt.Sprintf("format %q not found", e.DataType)
	if e.Reason != "" {
		msg = fmt.Sprintf("format %q invalid: %s", e.DataType, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatNotFoundError) Unwrap() error { return e.Err }

// MissingRequiredDataError reports a required record type or column absent from the input.
type MissingRequiredDataError struct {
	What string
}

func (e *MissingRequiredDataError) Error() string {
	return fmt.Sprintf("missing required data: %s", e.What)
}

// JoinConfigurationError reports a data type the combiner has no join rule for.
type JoinConfigurationError struct {
	DataType string
	Reason   string
}

func (e *JoinConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("join configuration for %q: %s", e.DataType, e.Reason)
	}
	return fmt.Sprintf("no join configuration for data type %q", e.DataType)
}

// EmptyInputError reports a combine call with zero record types.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string { return "combine: no record types supplied" }

// MissingData is shorthand for a *MissingRequiredDataError.
func MissingData(format string, args ...any) error {
	return &MissingRequiredDataError{What: fmt.Sprintf(format, args...)}
}
