package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.LedgerRecorder = (*MemoryRecorder)(nil)

// MemoryRecorder keeps verdict records in process memory. It backs demos
// and tests; nothing about it is durable.
type MemoryRecorder struct {
	mu      sync.Mutex
	byID    map[string]string // verdict id -> record id
	records map[string]domain.Verdict

	// FailWith, when set, makes every Record call fail with this error.
	FailWith error
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		byID:    make(map[string]string),
		records: make(map[string]domain.Verdict),
	}
}

// Record implements ports.LedgerRecorder with the same idempotency as
// the durable recorder: re-recording a verdict returns its original
// record id.
func (m *MemoryRecorder) Record(ctx context.Context, verdict domain.Verdict) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return "", m.FailWith
	}
	if recordID, ok := m.byID[verdict.ID]; ok {
		return recordID, nil
	}

	recordID := uuid.NewString()
	m.byID[verdict.ID] = recordID
	m.records[recordID] = verdict
	return recordID, nil
}

// Recorded returns the verdict stored under recordID, if any.
func (m *MemoryRecorder) Recorded(recordID string) (domain.Verdict, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	verdict, ok := m.records[recordID]
	return verdict, ok
}

// Len reports the number of recorded verdicts.
func (m *MemoryRecorder) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
