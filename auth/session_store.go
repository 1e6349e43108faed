// auth/session_store.go
package auth

import (
	"context"
	"sync"

	"github.com/asinfra/adconsole/db"
	"github.com/asinfra/adconsole/model"
)

// SessionStore persists console sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps sessions in Redis so they survive restarts and are
// shared across instances.
type RedisSessionStore struct{}

func NewRedisSessionStore() *RedisSessionStore {
	return &RedisSessionStore{}
}

func (s *RedisSessionStore) Save(ctx context.Context, session *model.Session) error {
	return db.SaveSession(ctx, session)
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	return db.GetSession(ctx, sessionID)
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return db.DeleteSession(ctx, sessionID)
}

// MemorySessionStore is the process-local store used with the in-memory
// backend and in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]model.Session)}
}

func (s *MemorySessionStore) Save(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := session
	return &cp, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
