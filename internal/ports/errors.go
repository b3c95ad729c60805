package ports

import (
	"errors"
	"fmt"

	"github.com/truthstream/verity/internal/domain"
)

// Common infrastructure errors that can occur during external
// collaborator interactions.
var (
	// ErrProviderUnavailable indicates that an evidence provider could
	// not be reached.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderTimeout indicates that an evidence stage exceeded its
	// configured timeout.
	ErrProviderTimeout = errors.New("provider timed out")

	// ErrLedgerUnavailable indicates that the ledger collaborator could
	// not be reached.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrLedgerRecording indicates that recording a computed verdict
	// failed. The verdict itself remains valid; verification success is
	// never downgraded by a ledger outage.
	ErrLedgerRecording = errors.New("ledger recording failed")

	// ErrRunCancelled indicates that the caller cancelled the run before
	// it produced a verdict.
	ErrRunCancelled = errors.New("verification run cancelled")
)

// ProviderError represents a failure from an evidence provider. It keeps
// the evidence kind and operation so a failed stage can report exactly
// which corroboration channel broke.
type ProviderError struct {
	// Kind is the evidence kind the provider serves.
	Kind domain.EvidenceKind

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ProviderError.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: kind=%s, operation=%s, err=%v", e.Kind, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// IsRetryable reports whether a fresh run could plausibly succeed.
// Malformed evidence is not retryable; unreachable or slow providers are.
func (e *ProviderError) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrProviderTimeout)
}

// NewProviderError creates a new ProviderError with the given details.
func NewProviderError(kind domain.EvidenceKind, operation string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Operation: operation, Err: err}
}

// LedgerError represents a failure from the ledger collaborator.
type LedgerError struct {
	// VerdictID identifies the verdict being recorded.
	VerdictID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for LedgerError.
func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger error: verdict=%s, err=%v", e.VerdictID, e.Err)
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error { return e.Err }

// NewLedgerError creates a new LedgerError with the given details.
func NewLedgerError(verdictID string, err error) *LedgerError {
	return &LedgerError{VerdictID: verdictID, Err: err}
}

// HistoryError represents a failure from the trust-history store.
type HistoryError struct {
	// UserID identifies whose history was involved.
	UserID string

	// Operation is the name of the store operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for HistoryError.
func (e *HistoryError) Error() string {
	return fmt.Sprintf("history error: user=%s, operation=%s, err=%v", e.UserID, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *HistoryError) Unwrap() error { return e.Err }

// NewHistoryError creates a new HistoryError with the given details.
func NewHistoryError(userID, operation string, err error) *HistoryError {
	return &HistoryError{UserID: userID, Operation: operation, Err: err}
}
