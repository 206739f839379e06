// Package parsererror defines the typed error taxonomy shared by the
// normalizers and the reconciliation engine.
package parsererror

import "fmt"

// ParseError represents a single row or field that failed to normalize.
// Row-level parse failures are recovered locally: the row is logged and
// skipped, never fatal for the batch.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingColumnError indicates that an input file lacks a column the
// normalizer treats as mandatory. The file is skipped with a warning.
type MissingColumnError struct {
	FilePath string
	Column   string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("file '%s' is missing required column '%s'", e.FilePath, e.Column)
}

// PlanNotFoundError indicates that no commission plan is configured for a
// year the data requires. This is the one place the rate resolver fails
// loudly: a silent zero rate would hide real discrepancies.
type PlanNotFoundError struct {
	Year int
}

func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf("no commission plan configured for year %d", e.Year)
}

// ValidationError represents a structural validation failure, such as a
// plan file that does not satisfy its schema.
type ValidationError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for %s: %s: %v", e.Subject, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// EmptyInputError indicates that an input file produced zero usable rows.
// Unlike row-level failures this propagates to the caller.
type EmptyInputError struct {
	FilePath string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no usable rows in '%s'", e.FilePath)
}
