package nonce

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"relay/pkg/platform/sentinel"
)

// nonceBytes is the amount of randomness behind each issued state value (256 bits).
const nonceBytes = 32

// Store contract:
// - Issue returns a fresh URL-safe nonce already registered as pending.
// - Exists never mutates.
// - Consume is check-and-delete under a single lock; for one nonce at most one
//   caller ever observes true.
// Pending nonces are never evicted. Abandoned flows stay in memory until the
// process exits.

// InMemoryNonceStore tracks the state values of pending authorization flows.
type InMemoryNonceStore struct {
	mu      sync.Mutex
	pending map[string]struct{}
	random  func([]byte) (int, error)
}

// New constructs an empty registry. Build one per process and share the pointer.
func New() *InMemoryNonceStore {
	return &InMemoryNonceStore{
		pending: make(map[string]struct{}),
		random:  rand.Read,
	}
}

// Issue generates a nonce and records it as pending.
func (s *InMemoryNonceStore) Issue(_ context.Context) (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := s.random(buf); err != nil {
		return "", fmt.Errorf("read random nonce: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.pending[value]; taken {
		return "", fmt.Errorf("nonce collision: %w", sentinel.ErrConflict)
	}
	s.pending[value] = struct{}{}
	return value, nil
}

// Exists reports whether the nonce is pending.
func (s *InMemoryNonceStore) Exists(_ context.Context, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[value]
	return ok
}

// Consume removes the nonce, reporting whether it was pending.
func (s *InMemoryNonceStore) Consume(_ context.Context, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[value]; !ok {
		return false
	}
	delete(s.pending, value)
	return true
}

// Len returns the number of pending nonces.
func (s *InMemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
