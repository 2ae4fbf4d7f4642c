package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LibSQLStore keeps sessions in the admin_sessions table (see migrations).
// Expired rows are swept whenever a session is created.
type LibSQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewLibSQLStore(db *sql.DB, ttl time.Duration) *LibSQLStore {
	return &LibSQLStore{db: db, ttl: ttl, now: time.Now}
}

func (s *LibSQLStore) Create(ctx context.Context) (string, error) {
	now := s.now()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM admin_sessions WHERE expires_at <= ?`, now.Unix(),
	); err != nil {
		return "", fmt.Errorf("sweeping sessions: %w", err)
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, expires_at) VALUES (?, ?)`, id, now.Add(s.ttl).Unix(),
	); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return id, nil
}

func (s *LibSQLStore) Valid(ctx context.Context, id string) (bool, error) {
	var exp int64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM admin_sessions WHERE id = ?`, id,
	).Scan(&exp)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up session: %w", err)
	}
	if s.now().Unix() >= exp {
		return false, s.Delete(ctx, id)
	}
	return true, nil
}

func (s *LibSQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, id)
	return err
}
