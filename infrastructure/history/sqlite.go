// Package history provides HistoryStore implementations over SQLite,
// Redis, and process memory. The store is the storage collaborator's
// surface for trust scoring: verification outcomes go in after a verdict
// is durably recorded, history snapshots and the latest score come out.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.HistoryStore = (*SQLiteStore)(nil)

// SQLiteStore persists trust history and scores in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the history database at path and
// ensures its schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("history: sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS trust_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		confidence  REAL NOT NULL,
		verified    INTEGER NOT NULL,
		occurred_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trust_entries_user ON trust_entries(user_id, occurred_at);
	CREATE TABLE IF NOT EXISTS trust_scores (
		user_id    TEXT PRIMARY KEY,
		score      INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("history: ensuring schema: %w", err)
	}
	return nil
}

// History implements ports.HistoryStore, returning entries oldest first.
func (s *SQLiteStore) History(ctx context.Context, userID string) (domain.TrustHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT confidence, verified, occurred_at
		FROM trust_entries WHERE user_id = ? ORDER BY occurred_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("history: querying entries for %s: %w", userID, err)
	}
	defer rows.Close()

	var history domain.TrustHistory
	for rows.Next() {
		var entry domain.TrustEntry
		var occurredAt string
		if err := rows.Scan(&entry.Confidence, &entry.Verified, &occurredAt); err != nil {
			return nil, fmt.Errorf("history: scanning entry for %s: %w", userID, err)
		}
		entry.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("history: parsing timestamp for %s: %w", userID, err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// Append implements ports.HistoryStore.
func (s *SQLiteStore) Append(ctx context.Context, userID string, entry domain.TrustEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trust_entries (user_id, confidence, verified, occurred_at)
		VALUES (?, ?, ?, ?)`,
		userID, entry.Confidence, entry.Verified,
		entry.OccurredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("history: appending entry for %s: %w", userID, err)
	}
	return nil
}

// SetScore implements ports.HistoryStore.
func (s *SQLiteStore) SetScore(ctx context.Context, userID string, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trust_scores (user_id, score, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		userID, score, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("history: setting score for %s: %w", userID, err)
	}
	return nil
}

// Score returns the latest persisted score for the user, zero when none
// has been computed yet.
func (s *SQLiteStore) Score(ctx context.Context, userID string) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM trust_scores WHERE user_id = ?`, userID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("history: reading score for %s: %w", userID, err)
	}
	return score, nil
}
