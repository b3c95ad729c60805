package history

import (
	"context"
	"sync"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.HistoryStore = (*MemoryStore)(nil)

// MemoryStore keeps trust history in process memory, for tests and
// demos.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.TrustHistory
	scores  map[string]int
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]domain.TrustHistory),
		scores:  make(map[string]int),
	}
}

// History implements ports.HistoryStore. The returned slice is a copy;
// the engine's read-only snapshot contract holds even if the caller
// mutates it.
func (m *MemoryStore) History(ctx context.Context, userID string) (domain.TrustHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.entries[userID]
	history := make(domain.TrustHistory, len(stored))
	copy(history, stored)
	return history, nil
}

// Append implements ports.HistoryStore.
func (m *MemoryStore) Append(ctx context.Context, userID string, entry domain.TrustEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = append(m.entries[userID], entry)
	return nil
}

// SetScore implements ports.HistoryStore.
func (m *MemoryStore) SetScore(ctx context.Context, userID string, score int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[userID] = score
	return nil
}

// Score returns the latest persisted score, zero when none exists.
func (m *MemoryStore) Score(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scores[userID]
}
