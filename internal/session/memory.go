package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-instance fallback when no Redis URL is
// configured. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memorySession)}
}

// Put records the session.
func (s *MemoryStore) Put(ctx context.Context, sessionID, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memorySession{userID: userID, expiresAt: expiresAt}
	return nil
}

// UserID resolves the session to its user id.
func (s *MemoryStore) UserID(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return "", ErrSessionNotFound
	}
	return entry.userID, nil
}

// Delete revokes the session.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
