package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/favo-app/favo-web/internal/api"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps "remember me" sessions in the web_sessions table so
// they survive restarts.
type PostgresStore struct {
	db  Querier
	now func() time.Time
}

func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// WithClock overrides the time source used for expiry.
func (p *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	p.now = now
	return p
}

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	profile, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO web_sessions (id, token, user_id, profile, remember, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET token = EXCLUDED.token, profile = EXCLUDED.profile, expires_at = EXCLUDED.expires_at`,
		s.ID, s.Token, s.User.ID, profile, s.Remember, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	var (
		s       Session
		profile []byte
	)
	err := p.db.QueryRow(ctx, `
		SELECT id::text, token, profile, remember, created_at, expires_at
		FROM web_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Token, &profile, &s.Remember, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	if !s.ExpiresAt.After(p.now()) {
		return nil, ErrSessionExpired
	}
	var u api.User
	if err := json.Unmarshal(profile, &u); err != nil {
		return nil, fmt.Errorf("session: decode profile: %w", err)
	}
	s.User = u
	return &s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM web_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Expired lists the ids of sessions whose expiry has passed.
func (p *PostgresStore) Expired(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `SELECT id::text FROM web_sessions WHERE expires_at <= $1`, p.now())
	if err != nil {
		return nil, fmt.Errorf("session: list expired: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("session: list expired: %w", err)
	}
	return ids, nil
}

// PurgeExpired deletes sessions whose expiry is before now and reports how many.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM web_sessions WHERE expires_at <= $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("session: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
