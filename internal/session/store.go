package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/favo-app/favo-web/internal/api"
)

// ErrNoSession is returned when a session id is unknown or already closed.
var ErrNoSession = errors.New("session: not found")

// ErrSessionExpired is returned by a Store for a session past its expiry.
// It matches ErrNoSession.
var ErrSessionExpired = fmt.Errorf("session: past expiry: %w", ErrNoSession)

// Session binds a browser cookie to a backend bearer token.
type Session struct {
	ID        string
	Token     string
	User      api.User
	Remember  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists sessions. Load returns ErrNoSession for unknown ids and
// ErrSessionExpired for expired ones.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper is a Store that can list the ids of its expired sessions.
type Sweeper interface {
	Expired(ctx context.Context) ([]string, error)
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Session
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Session), now: time.Now}
}

// WithClock overrides the time source used for expiry.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.items[s.ID] = *s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	if !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(m.now()) {
		m.mu.Lock()
		delete(m.items, id)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}
	return &s, nil
}

func (m *MemoryStore) Expired(_ context.Context) ([]string, error) {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, s := range m.items {
		if !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
