package store

import (
	"context"
	"sync"
	"time"

	"relay/internal/session"
	"relay/pkg/platform/sentinel"
)

type entry struct {
	sess      session.Session
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemorySessionStore keeps sessions in process memory. Expired entries are
// dropped lazily on lookup.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	now      func() time.Time
}

// NewMemory constructs an empty in-memory session store.
func NewMemory() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

func (s *InMemorySessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if e.expired(s.now()) {
		return s.evict(id)
	}
	sess := e.sess
	return &sess, nil
}

// evict deletes id if it is still expired under the write lock. A Save that
// landed after the read lock was released wins and is returned instead.
func (s *InMemorySessionStore) evict(id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if e.expired(s.now()) {
		delete(s.sessions, id)
		return nil, sentinel.ErrNotFound
	}
	sess := e.sess
	return &sess, nil
}

// Save stores a copy of sess. A zero ttl never expires.
func (s *InMemorySessionStore) Save(_ context.Context, sess *session.Session, ttl time.Duration) error {
	e := entry{sess: *sess}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.sessions[sess.ID] = e
	s.mu.Unlock()
	return nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
