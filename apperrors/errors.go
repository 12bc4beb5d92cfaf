package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"rtrs-be/models"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent update won the race; the caller
	// should re-fetch and retry.
	ErrConflict = errors.New("conflict: record was modified concurrently")
	// ErrInvalidInput indicates the verifier was invoked with unusable input
	// (e.g. no images). Distinct from a verification rejection.
	ErrInvalidInput = errors.New("invalid input")
	// ErrVerifierUnavailable indicates the verifier timed out or is down.
	// Never to be conflated with the verifier saying "no".
	ErrVerifierUnavailable = errors.New("verifier unavailable")
)

// FieldViolation names one failed constraint on one input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint, not just the first.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
	return e
}

// OrNil returns nil when no violations were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// IllegalTransitionError rejects a status change absent from the lifecycle
// table or whose guard failed. The issue is left unchanged.
type IllegalTransitionError struct {
	From   models.IssueStatus
	To     models.IssueStatus
	Reason string
}

func (e *IllegalTransitionError) Error() string {
	msg := fmt.Sprintf("illegal transition %q -> %q", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
