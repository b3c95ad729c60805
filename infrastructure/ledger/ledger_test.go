package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthstream/verity/internal/domain"
)

func sampleVerdict(id string) domain.Verdict {
	proof := &domain.Proof{
		Kind:        domain.KindLocation,
		DataHash:    domain.Hash256("data"),
		ProofHash:   domain.Hash256("proof"),
		Confidence:  0.9,
		GeneratedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Valid:       true,
	}
	return domain.Verdict{
		ID:                id,
		ExperienceID:      "exp-1",
		UserID:            "user-1",
		Proofs:            []*domain.Proof{proof, nil, nil},
		OverallConfidence: 0.9,
		Verified:          true,
		DecidedAt:         time.Date(2026, 2, 1, 10, 0, 1, 0, time.UTC),
	}
}

func TestMemoryRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("records and retrieves", func(t *testing.T) {
		rec := NewMemoryRecorder()
		recordID, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		require.NotEmpty(t, recordID)

		stored, ok := rec.Recorded(recordID)
		require.True(t, ok)
		assert.Equal(t, "v-1", stored.ID)
		assert.Equal(t, 1, rec.Len())
	})

	t.Run("re-recording is idempotent", func(t *testing.T) {
		rec := NewMemoryRecorder()
		first, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		second, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, rec.Len())
	})

	t.Run("failure injection", func(t *testing.T) {
		rec := NewMemoryRecorder()
		rec.FailWith = assert.AnError
		_, err := rec.Record(ctx, sampleVerdict("v-1"))
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 0, rec.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		rec := NewMemoryRecorder()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := rec.Record(cancelled, sampleVerdict("v-1"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()

	newRecorder := func(t *testing.T) *SQLiteRecorder {
		t.Helper()
		rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "ledger.db"))
		require.NoError(t, err)
		t.Cleanup(func() { rec.Close() })
		return rec
	}

	t.Run("requires a path", func(t *testing.T) {
		_, err := NewSQLiteRecorder("")
		require.Error(t, err)
	})

	t.Run("records a verdict", func(t *testing.T) {
		rec := newRecorder(t)
		recordID, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		assert.NotEmpty(t, recordID)
	})

	t.Run("re-recording returns the original record id", func(t *testing.T) {
		rec := newRecorder(t)
		first, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		second, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("distinct verdicts get distinct records", func(t *testing.T) {
		rec := newRecorder(t)
		first, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		second, err := rec.Record(ctx, sampleVerdict("v-2"))
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.db")
		rec, err := NewSQLiteRecorder(path)
		require.NoError(t, err)
		first, err := rec.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		require.NoError(t, rec.Close())

		reopened, err := NewSQLiteRecorder(path)
		require.NoError(t, err)
		defer reopened.Close()

		second, err := reopened.Record(ctx, sampleVerdict("v-1"))
		require.NoError(t, err)
		assert.Equal(t, first, second, "idempotency holds across restarts")
	})
}
