// Package timers persists countdown deadlines outside the main document so
// that a reload or reconnect resumes the same countdown.
package timers

import (
	"context"
	"sync"
	"time"

	"github.com/technomatra/missions/internal/missions"
)

// MemoryStore keeps deadlines in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	deadlines map[missions.TimerKey]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{deadlines: make(map[missions.TimerKey]time.Time)}
}

func (m *MemoryStore) Deadline(_ context.Context, key missions.TimerKey) (time.Time, bool, error) {
	m.mu.RLock()
	end, ok := m.deadlines[key]
	m.mu.RUnlock()
	return end, ok, nil
}

func (m *MemoryStore) SetDeadline(_ context.Context, key missions.TimerKey, end time.Time) error {
	m.mu.Lock()
	m.deadlines[key] = end
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key missions.TimerKey) error {
	m.mu.Lock()
	delete(m.deadlines, key)
	m.mu.Unlock()
	return nil
}

// Len reports how many deadlines are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.deadlines)
}
