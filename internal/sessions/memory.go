// Package sessions stores admin session ids issued by the admin login.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps session ids in process memory. Sessions do not survive
// a restart; it is the fallback when neither Redis nor libSQL is configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Create issues a new session id and drops every expired one.
func (m *MemoryStore) Create(_ context.Context) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for sid, exp := range m.sessions {
		if !now.Before(exp) {
			delete(m.sessions, sid)
		}
	}
	m.sessions[id] = now.Add(m.ttl)
	return id, nil
}

func (m *MemoryStore) Valid(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if !m.now().Before(exp) {
		delete(m.sessions, id)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
