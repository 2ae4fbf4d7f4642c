// Package store persists the mission document. Every backend reads and
// writes the whole document and serialises Update calls.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/technomatra/missions/internal/metrics"
	"github.com/technomatra/missions/internal/missions"
)

// FileStore keeps the document in one JSON file, rewritten atomically
// (temp file, fsync, rename) on every update.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("data file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (missions.Document, error) {
	defer metrics.ObserveStore("load", "file", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

func (s *FileStore) Update(_ context.Context, fn func(*missions.Document) error) error {
	defer metrics.ObserveStore("update", "file", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	if err := fn(&doc); err != nil {
		return err
	}
	return s.write(doc)
}

// read never fails: a missing or unreadable file is an empty document.
func (s *FileStore) read() missions.Document {
	var doc missions.Document
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("data file unreadable, using empty document", "path", s.path, "error", err)
		}
		return missions.Document{}
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("data file corrupt, using empty document", "path", s.path, "error", err)
		return missions.Document{}
	}
	return doc
}

func (s *FileStore) write(doc missions.Document) error {
	if doc.Users == nil {
		doc.Users = []missions.User{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []missions.Task{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing data file: %w", err)
	}
	return nil
}

// Check verifies the data directory is reachable.
func (s *FileStore) Check(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}
