package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/maitred/internal/docstore"
	"github.com/soyeahso/maitred/internal/domain"
)

// SQLiteStore persists sessions in the shared document database so
// conversations survive a restart.
type SQLiteStore struct {
	db      *sql.DB
	window  int
	timeout time.Duration
}

// NewSQLiteStore creates a session store backed by db. The sessions and
// turns tables are created by the docstore migrations.
func NewSQLiteStore(db *docstore.DB, window int, timeout time.Duration) *SQLiteStore {
	if window < 1 {
		window = DefaultWindowSize
	}
	if timeout <= 0 {
		timeout = 60 * time.Minute
	}
	return &SQLiteStore{db: db.SQL(), window: window, timeout: timeout}
}

func (s *SQLiteStore) Create(userID string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO sessions (id, user_id, active, created_at, last_used_at) VALUES (?, ?, 1, ?, ?)`,
		id, userID, now, now)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(sessionID string) (domain.Session, error) {
	ctx := context.Background()

	var sess domain.Session
	var active int
	var createdAt, lastUsedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, active, created_at, last_used_at FROM sessions WHERE id = ?`,
		sessionID).Scan(&sess.ID, &sess.UserID, &active, &createdAt, &lastUsedAt)
	if err == sql.ErrNoRows {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("loading session: %w", err)
	}
	if active == 0 {
		return domain.Session{}, ErrNotFound
	}
	sess.Active = true
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.LastUsedAt = time.Now().UTC()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_used_at = ? WHERE id = ?`,
		sess.LastUsedAt.Format(time.RFC3339Nano), sessionID); err != nil {
		return domain.Session{}, fmt.Errorf("touching session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_text, response, handler, timestamp FROM turns WHERE session_id = ? ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var turn domain.Turn
		var ts string
		if err := rows.Scan(&turn.UserText, &turn.Response, &turn.Handler, &ts); err != nil {
			return domain.Session{}, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		sess.Turns = append(sess.Turns, turn)
	}
	return sess, rows.Err()
}

func (s *SQLiteStore) Reset(userID, currentSessionID string) (string, error) {
	if _, err := s.db.ExecContext(context.Background(),
		`UPDATE sessions SET active = 0 WHERE id = ?`, currentSessionID); err != nil {
		return "", fmt.Errorf("deactivating session: %w", err)
	}
	return s.Create(userID)
}

func (s *SQLiteStore) AppendTurn(sessionID string, turn domain.Turn) error {
	ctx := context.Background()

	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT active FROM sessions WHERE id = ?`, sessionID).Scan(&active)
	if err == sql.ErrNoRows || (err == nil && active == 0) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, user_text, response, handler, timestamp) VALUES (?, ?, ?, ?, ?)`,
		sessionID, turn.UserText, turn.Response, turn.Handler,
		turn.Timestamp.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	// drop turns that fell out of the window
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM turns WHERE session_id = ? AND id NOT IN (
			SELECT id FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`, sessionID, sessionID, s.window); err != nil {
		return fmt.Errorf("trimming turns: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET last_used_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), sessionID); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) SweepExpired(now time.Time) (int, error) {
	cutoff := now.Add(-s.timeout).Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(context.Background(),
		`UPDATE sessions SET active = 0 WHERE active = 1 AND last_used_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
