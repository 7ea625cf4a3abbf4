package session

import (
	"context"
	"sync"
	"time"

	"bookingagent/models"
)

type memoryEntry struct {
	sess      models.Session
	expiresAt time.Time
}

// MemoryStore is a process-local Store. A zero ttl keeps sessions forever.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return models.Session{}, NewSessionNotFoundError(id)
	}
	return e.sess.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sess models.Session) error {
	e := memoryEntry{sess: sess.Clone()}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[sess.ID] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
