package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/favo-app/favo-web/internal/api"
)

// Authenticator is the part of the backend the session layer talks to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.Token, error)
	Me(ctx context.Context, token string) (api.User, error)
}

// Close reasons delivered to listeners.
const (
	ReasonLogout  = "logout"
	ReasonExpired = "expired"
	ReasonInvalid = "invalid"
)

// CloseFunc is called after a session is closed, for any reason.
type CloseFunc func(sessionID, reason string)

// Manager is the single owner of login state. Handlers ask it for the
// current session instead of reading tokens themselves.
type Manager struct {
	auth       Authenticator
	memory     Store
	persistent Store
	ttl        time.Duration
	now        func() time.Time
	newID      func() string

	mu        sync.RWMutex
	listeners []CloseFunc
}

// NewManager wires the two stores. persistent may be nil, in which case
// remembered sessions are kept in memory too.
func NewManager(auth Authenticator, memory, persistent Store, ttl time.Duration) *Manager {
	return &Manager{
		auth:       auth,
		memory:     memory,
		persistent: persistent,
		ttl:        ttl,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// WithClock overrides the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithIDGenerator overrides session id generation.
func (m *Manager) WithIDGenerator(fn func() string) *Manager {
	m.newID = fn
	return m
}

// OnClose registers fn to run whenever a session is closed.
func (m *Manager) OnClose(fn CloseFunc) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Login authenticates against the backend and opens a session. remember
// selects the persistent store.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (*Session, error) {
	tok, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("session: login: %w", err)
	}
	return m.Open(ctx, tok.AccessToken, remember)
}

// Open creates a session around an already issued token.
func (m *Manager) Open(ctx context.Context, token string, remember bool) (*Session, error) {
	now := m.now()
	info, err := InspectToken(token)
	if err != nil {
		return nil, err
	}
	if info.Expired(now) {
		return nil, ErrExpired
	}

	user, err := m.auth.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("session: load profile: %w", err)
	}

	expires := now.Add(m.ttl)
	if !info.ExpiresAt.IsZero() && info.ExpiresAt.Before(expires) {
		expires = info.ExpiresAt
	}
	s := &Session{
		ID:        m.newID(),
		Token:     token,
		User:      user,
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.storeFor(remember).Save(ctx, s); err != nil {
		return nil, err
	}
	log.Printf("[session] opened user=%d remember=%t", user.ID, remember)
	return s, nil
}

// Current returns the live session for id. A session past its expiry is
// closed and yields ErrSessionExpired. An expired or undecodable token
// closes the session and yields ErrExpired or ErrInvalidToken.
func (m *Manager) Current(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	s, err := m.load(ctx, id)
	if errors.Is(err, ErrSessionExpired) {
		m.close(ctx, id, ReasonExpired)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if err := CheckToken(s.Token, m.now()); err != nil {
		reason := ReasonInvalid
		if errors.Is(err, ErrExpired) {
			reason = ReasonExpired
		}
		m.close(ctx, id, reason)
		return nil, err
	}
	return s, nil
}

// Logout closes the session. Unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.close(ctx, id, ReasonLogout)
	return nil
}

// Invalidate closes a session the backend refused, e.g. after a 401.
func (m *Manager) Invalidate(ctx context.Context, id string) {
	m.close(ctx, id, ReasonInvalid)
}

// Sweep closes every expired session the stores can list and reports how
// many it closed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	closed := 0
	for _, st := range []Store{m.memory, m.persistent} {
		sw, ok := st.(Sweeper)
		if !ok {
			continue
		}
		ids, err := sw.Expired(ctx)
		if err != nil {
			return closed, err
		}
		for _, id := range ids {
			m.close(ctx, id, ReasonExpired)
			closed++
		}
	}
	return closed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := m.Sweep(ctx)
		if err != nil {
			log.Printf("[session][ERROR] sweep: %v", err)
		}
		if n > 0 {
			log.Printf("[session] swept %d expired sessions", n)
		}
	}
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	if m.persistent != nil {
		s, err := m.persistent.Load(ctx, id)
		if err == nil {
			return s, nil
		}
		if errors.Is(err, ErrSessionExpired) || !errors.Is(err, ErrNoSession) {
			return nil, err
		}
	}
	return m.memory.Load(ctx, id)
}

func (m *Manager) storeFor(remember bool) Store {
	if remember && m.persistent != nil {
		return m.persistent
	}
	return m.memory
}

func (m *Manager) close(ctx context.Context, id, reason string) {
	if err := m.memory.Delete(ctx, id); err != nil {
		log.Printf("[session][ERROR] memory delete: %v", err)
	}
	if m.persistent != nil {
		if err := m.persistent.Delete(ctx, id); err != nil {
			log.Printf("[session][ERROR] persistent delete: %v", err)
		}
	}
	log.Printf("[session] closed reason=%s", reason)

	m.mu.RLock()
	listeners := append([]CloseFunc(nil), m.listeners...)
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(id, reason)
	}
}
