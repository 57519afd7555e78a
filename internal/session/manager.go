package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"relay/pkg/platform/sentinel"
)

// Store persists sessions by id.
// Get returns sentinel.ErrNotFound for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Manager ties the cookie to the stored session.
type Manager struct {
	store  Store
	codec  *CookieCodec
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewManager builds a session manager. ttl bounds both the stored record and the cookie.
func NewManager(store Store, codec *CookieCodec, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		codec:  codec,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the caller's session, or a fresh unsaved one when the cookie is
// missing, forged or points at nothing.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	ctx := r.Context()
	id, ok := m.codec.ID(r)
	if !ok {
		return m.fresh(), nil
	}
	sess, err := m.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		m.logger.DebugContext(ctx, "session cookie points at no session, starting fresh")
		return m.fresh(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess.ID = id
	return sess, nil
}

// Save persists sess and refreshes the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if err := m.store.Save(r.Context(), sess, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	http.SetCookie(w, m.codec.Cookie(sess.ID))
	return nil
}

func (m *Manager) fresh() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: m.now()}
}
