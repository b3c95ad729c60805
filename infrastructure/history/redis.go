package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.HistoryStore = (*RedisStore)(nil)

// RedisStore keeps trust history in a sorted set per user, scored by the
// entry's occurrence time, and the latest trust score in a plain key.
// It suits deployments where the trust score is read on a hot path.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("history: redis client cannot be nil")
	}
	return &RedisStore{client: client}, nil
}

func historyKey(userID string) string { return "trust:history:" + userID }
func scoreKey(userID string) string   { return "trust:score:" + userID }

// History implements ports.HistoryStore, returning entries oldest first
// by sorted-set score.
func (s *RedisStore) History(ctx context.Context, userID string) (domain.TrustHistory, error) {
	members, err := s.client.ZRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: reading redis history for %s: %w", userID, err)
	}

	history := make(domain.TrustHistory, 0, len(members))
	for _, member := range members {
		var entry domain.TrustEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, fmt.Errorf("history: decoding entry for %s: %w", userID, err)
		}
		history = append(history, entry)
	}
	return history, nil
}

// Append implements ports.HistoryStore.
func (s *RedisStore) Append(ctx context.Context, userID string, entry domain.TrustEntry) error {
	member, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("history: encoding entry for %s: %w", userID, err)
	}

	err = s.client.ZAdd(ctx, historyKey(userID), redis.Z{
		Score:  float64(entry.OccurredAt.UnixNano()),
		Member: string(member),
	}).Err()
	if err != nil {
		return fmt.Errorf("history: appending redis entry for %s: %w", userID, err)
	}
	return nil
}

// SetScore implements ports.HistoryStore.
func (s *RedisStore) SetScore(ctx context.Context, userID string, score int) error {
	if err := s.client.Set(ctx, scoreKey(userID), score, 0).Err(); err != nil {
		return fmt.Errorf("history: setting redis score for %s: %w", userID, err)
	}
	return nil
}

// Score returns the latest persisted score, zero when none exists.
func (s *RedisStore) Score(ctx context.Context, userID string) (int, error) {
	score, err := s.client.Get(ctx, scoreKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("history: reading redis score for %s: %w", userID, err)
	}
	return score, nil
}
