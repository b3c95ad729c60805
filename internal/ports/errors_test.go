package ports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truthstream/verity/internal/domain"
)

func TestProviderError(t *testing.T) {
	t.Run("retryable failures", func(t *testing.T) {
		tests := []struct {
			name      string
			err       error
			retryable bool
		}{
			{"unavailable", ErrProviderUnavailable, true},
			{"timeout", ErrProviderTimeout, true},
			{"wrapped timeout", fmt.Errorf("stage: %w", ErrProviderTimeout), true},
			{"malformed evidence", domain.ErrMalformedEvidence, false},
			{"arbitrary", errors.New("boom"), false},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				perr := NewProviderError(domain.KindPayment, "fetch", tc.err)
				assert.Equal(t, tc.retryable, perr.IsRetryable())
			})
		}
	})

	t.Run("unwraps and formats", func(t *testing.T) {
		err := NewProviderError(domain.KindLocation, "fetch", ErrProviderTimeout)
		assert.ErrorIs(t, err, ErrProviderTimeout)
		assert.Contains(t, err.Error(), "kind=location")
		assert.Contains(t, err.Error(), "operation=fetch")
	})
}

func TestLedgerError(t *testing.T) {
	err := NewLedgerError("verdict-1", fmt.Errorf("%w: connection refused", ErrLedgerRecording))
	assert.ErrorIs(t, err, ErrLedgerRecording)
	assert.Contains(t, err.Error(), "verdict=verdict-1")
}

func TestHistoryError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewHistoryError("user-1", "append", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "operation=append")
}
