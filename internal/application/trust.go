package application

import (
	"context"
	"fmt"
	"time"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

// TrustService recomputes user trust scores from recorded verification
// history. The score itself is a pure function of the history snapshot;
// the service only adds the plumbing to read the snapshot and persist
// the derived value.
type TrustService struct {
	store   ports.HistoryStore
	metrics ports.MetricsCollector
	now     func() time.Time
}

// NewTrustService creates a trust service over the given history store.
// The metrics collector is optional.
func NewTrustService(store ports.HistoryStore, metrics ports.MetricsCollector) (*TrustService, error) {
	if store == nil {
		return nil, fmt.Errorf("trust service: history store cannot be nil")
	}
	return &TrustService{store: store, metrics: metrics, now: time.Now}, nil
}

// RecordOutcome appends a durably recorded verdict's outcome to the
// user's history and recomputes the score. It is called after the ledger
// stage completes, never for unrecorded verdicts.
func (s *TrustService) RecordOutcome(ctx context.Context, verdict domain.Verdict) (int, error) {
	entry := domain.TrustEntry{
		Confidence: verdict.OverallConfidence,
		Verified:   verdict.Verified,
		OccurredAt: verdict.DecidedAt,
	}
	if err := s.store.Append(ctx, verdict.UserID, entry); err != nil {
		return 0, ports.NewHistoryError(verdict.UserID, "append", err)
	}
	return s.Recompute(ctx, verdict.UserID)
}

// Recompute loads the user's full history, derives the 0-100 trust
// score, persists it, and returns it. Same history, same score: calling
// Recompute twice in a row is idempotent.
func (s *TrustService) Recompute(ctx context.Context, userID string) (int, error) {
	history, err := s.store.History(ctx, userID)
	if err != nil {
		return 0, ports.NewHistoryError(userID, "history", err)
	}

	score := domain.ComputeTrustScore(history)
	if err := s.store.SetScore(ctx, userID, score); err != nil {
		return 0, ports.NewHistoryError(userID, "set_score", err)
	}

	if s.metrics != nil {
		s.metrics.RecordGauge("user_trust_score", float64(score),
			map[string]string{"user": userID})
	}
	return score, nil
}
