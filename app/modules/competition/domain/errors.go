package competitiondomain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NonFieldErrors is the key for validation messages not tied to one field.
const NonFieldErrors = "non_field_errors"

var (
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrUnverifiedReport  = errors.New("report is not verified")
	ErrReportingClosed   = errors.New("reporting window is closed")
	ErrReportVerified    = errors.New("verified reports cannot be changed this way")
	ErrCompetitionLocked = errors.New("competition already has reports")
	ErrPairingsFrozen    = errors.New("pairings cannot change after a metric cutoff")
)

// InvalidStateError reports a call made out of order, such as scoring an
// unverified report.
type InvalidStateError struct {
	Op  string
	Err error
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state in %s: %v", e.Op, e.Err)
}

func (e *InvalidStateError) Unwrap() error { return e.Err }

// ValidationError maps field paths to human readable messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends msg under field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// OrNil returns e when it holds messages and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// FieldError builds a single-field ValidationError.
func FieldError(field, msg string) *ValidationError {
	e := NewValidationError()
	e.Add(field, msg)
	return e
}
