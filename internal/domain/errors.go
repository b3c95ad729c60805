package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during proof generation and
// verdict aggregation.
var (
	// ErrMalformedEvidence indicates that an evidence input failed
	// canonicalization or required-field validation. It is local and
	// non-retryable.
	ErrMalformedEvidence = errors.New("malformed evidence")

	// ErrEvidenceIncomplete indicates that provider data was reachable
	// but missing fields required to build an evidence input.
	ErrEvidenceIncomplete = errors.New("evidence incomplete")

	// ErrNoProofs indicates that aggregation received no proofs at all.
	ErrNoProofs = errors.New("no proofs to aggregate")

	// ErrInvalidTransition indicates an illegal stage state transition.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// EvidenceError records which evidence kind failed and why during
// normalization or proof generation.
type EvidenceError struct {
	// Kind is the evidence kind that was being processed.
	Kind EvidenceKind

	// Field names the offending field when the failure is field-level.
	Field string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for EvidenceError.
func (e *EvidenceError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("evidence error: kind=%s, field=%s, err=%v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("evidence error: kind=%s, err=%v", e.Kind, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is/As matching.
func (e *EvidenceError) Unwrap() error { return e.Err }

// NewEvidenceError creates a new EvidenceError with the given details.
func NewEvidenceError(kind EvidenceKind, field string, err error) *EvidenceError {
	return &EvidenceError{Kind: kind, Field: field, Err: err}
}

// TransitionError reports an attempted illegal state transition on a
// verification stage.
type TransitionError struct {
	// Stage is the stage on which the transition was attempted.
	Stage Stage

	// From and To are the states involved in the rejected transition.
	From, To StageState
}

// Error implements the error interface for TransitionError.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("stage %s: %v: %s -> %s", e.Stage, ErrInvalidTransition, e.From, e.To)
}

// Unwrap returns ErrInvalidTransition so callers can match with errors.Is.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
