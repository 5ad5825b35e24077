package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *SessionStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewSessionStore(client)
}

func TestSessionStore_Session(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	got, err := store.GetUserSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	login := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetUserSession(ctx, "u1", Session{UserID: "u1", Role: "user", LoginAt: login}, time.Hour))

	got, err = store.GetUserSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user", got.Role)
	assert.True(t, login.Equal(got.LoginAt))

	mr.FastForward(2 * time.Hour)
	got, err = store.GetUserSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_Blacklist(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.BlacklistToken(ctx, "expired", 0))
	revoked, err := store.IsTokenBlacklisted(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.BlacklistToken(ctx, "tok", time.Minute))
	revoked, err = store.IsTokenBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsTokenBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}
