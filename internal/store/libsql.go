package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/technomatra/missions/internal/metrics"
	"github.com/technomatra/missions/internal/missions"
)

const documentID = "main"

// LibSQLStore keeps the document as a single JSONB row. Updates run inside
// a transaction and are additionally serialised in-process, since SQLite
// allows one writer at a time anyway.
type LibSQLStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewLibSQLStore expects the documents table to exist (see migrations).
func NewLibSQLStore(db *sql.DB) *LibSQLStore {
	return &LibSQLStore{db: db}
}

func (s *LibSQLStore) Load(ctx context.Context) (missions.Document, error) {
	defer metrics.ObserveStore("load", "libsql", time.Now())

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE id = ?`, documentID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return missions.Document{}, nil
	}
	if err != nil {
		return missions.Document{}, fmt.Errorf("reading document: %w", err)
	}

	var doc missions.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return missions.Document{}, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// Update loads the document, applies fn, and saves it in a transaction.
func (s *LibSQLStore) Update(ctx context.Context, fn func(*missions.Document) error) error {
	defer metrics.ObserveStore("update", "libsql", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var doc missions.Document
	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM documents WHERE id = ?`, documentID,
	).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading document: %w", err)
	default:
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return fmt.Errorf("decoding document: %w", err)
		}
	}

	if err := fn(&doc); err != nil {
		return err
	}

	if err := put(ctx, tx, doc); err != nil {
		return err
	}
	return tx.Commit()
}

// Replace overwrites the stored document.
func (s *LibSQLStore) Replace(ctx context.Context, doc missions.Document) error {
	return s.Update(ctx, func(d *missions.Document) error {
		*d = doc
		return nil
	})
}

func put(ctx context.Context, tx *sql.Tx, doc missions.Document) error {
	if doc.Users == nil {
		doc.Users = []missions.User{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []missions.Task{}
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, data, updated_at) VALUES (?, jsonb(?), ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		documentID, string(jsonData), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

func (s *LibSQLStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
