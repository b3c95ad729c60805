// Package ledger provides LedgerRecorder implementations: a durable
// SQLite recorder and an in-memory recorder for tests and demos. The
// recorder models the external ledger collaborator that permanently
// records verified verdicts.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/truthstream/verity/internal/domain"
	"github.com/truthstream/verity/internal/ports"
)

var _ ports.LedgerRecorder = (*SQLiteRecorder)(nil)

// SQLiteRecorder appends verdicts to an append-only SQLite table and
// returns the durable record id. Recording the same verdict twice is
// idempotent: the existing record id is returned.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (or creates) the ledger database at path and
// ensures its schema.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		return nil, errors.New("ledger: sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: setting busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection.
func (r *SQLiteRecorder) Close() error { return r.db.Close() }

func (r *SQLiteRecorder) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS verdict_records (
		record_id     TEXT PRIMARY KEY,
		verdict_id    TEXT NOT NULL UNIQUE,
		experience_id TEXT NOT NULL,
		user_id       TEXT NOT NULL,
		verified      INTEGER NOT NULL,
		confidence    REAL NOT NULL,
		decided_at    TEXT NOT NULL,
		payload       TEXT NOT NULL,
		recorded_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	);
	CREATE INDEX IF NOT EXISTS idx_verdict_records_user ON verdict_records(user_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ledger: ensuring schema: %w", err)
	}
	return nil
}

// Record implements ports.LedgerRecorder. The verdict is stored in full
// as JSON alongside the columns queried by reporting.
func (r *SQLiteRecorder) Record(ctx context.Context, verdict domain.Verdict) (string, error) {
	payload, err := json.Marshal(verdict)
	if err != nil {
		return "", fmt.Errorf("ledger: encoding verdict %s: %w", verdict.ID, err)
	}

	recordID := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO verdict_records
			(record_id, verdict_id, experience_id, user_id, verified, confidence, decided_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(verdict_id) DO NOTHING`,
		recordID, verdict.ID, verdict.ExperienceID, verdict.UserID,
		verdict.Verified, verdict.OverallConfidence,
		verdict.DecidedAt.UTC().Format("2006-01-02T15:04:05.000Z"), string(payload))
	if err != nil {
		return "", fmt.Errorf("ledger: recording verdict %s: %w: %v", verdict.ID, ports.ErrLedgerUnavailable, err)
	}

	// A conflict means the verdict was already recorded; hand back the
	// original record id so re-submission stays idempotent.
	var existing string
	if err := r.db.QueryRowContext(ctx,
		`SELECT record_id FROM verdict_records WHERE verdict_id = ?`, verdict.ID).
		Scan(&existing); err != nil {
		return "", fmt.Errorf("ledger: reading record for verdict %s: %w: %v", verdict.ID, ports.ErrLedgerUnavailable, err)
	}
	return existing, nil
}
