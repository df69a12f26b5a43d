package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/favo-app/favo-web/internal/api"
	"github.com/favo-app/favo-web/internal/db/dbtest"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	store := NewPostgresStore(pool).WithClock(func() time.Time { return now })

	live := &Session{
		ID:        uuid.New().String(),
		Token:     "tok",
		User:      api.User{ID: 7, Name: "Ana", Verified: true},
		Remember:  true,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	stale := &Session{
		ID:        uuid.New().String(),
		Token:     "old",
		User:      api.User{ID: 9},
		Remember:  true,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, stale))

	got, err := store.Load(ctx, live.ID)
	require.NoError(t, err)
	require.Equal(t, "tok", got.Token)
	require.Equal(t, "Ana", got.User.Name)
	require.True(t, got.User.Verified)

	_, err = store.Load(ctx, stale.ID)
	require.ErrorIs(t, err, ErrNoSession)
	require.ErrorIs(t, err, ErrSessionExpired)

	expired, err := store.Expired(ctx)
	require.NoError(t, err)
	require.Contains(t, expired, stale.ID)
	require.NotContains(t, expired, live.ID)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, store.Delete(ctx, live.ID))
	_, err = store.Load(ctx, live.ID)
	require.ErrorIs(t, err, ErrNoSession)
}
