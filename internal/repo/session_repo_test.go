package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/domain"
	"portfolio-api/internal/testkit"
)

func newSession(hash, account string, expires time.Time) *domain.Session {
	return &domain.Session{
		TokenHash: hash, AccountID: account, Username: "u-" + account, Role: domain.RoleBlogger,
		CreatedAt: time.Now().UTC(), ExpiresAt: expires.UTC(),
	}
}

// exerciseStore runs the shared SessionStore contract.
func exerciseStore(t *testing.T, s domain.SessionStore) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.Create(ctx, newSession("h1", "a1", exp)))
	require.NoError(t, s.Create(ctx, newSession("h2", "a1", exp)))
	require.NoError(t, s.Create(ctx, newSession("h3", "a2", exp)))

	got, err := s.Find(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a1", got.AccountID)
	assert.Equal(t, domain.RoleBlogger, got.Role)
	assert.Equal(t, "h1", got.TokenHash)

	missing, err := s.Find(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.Delete(ctx, "h1"))
	require.NoError(t, s.Delete(ctx, "h1"), "delete is idempotent")
	got, err = s.Find(ctx, "h1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.DeleteByAccount(ctx, "a1"))
	got, err = s.Find(ctx, "h2")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.Find(ctx, "h3")
	require.NoError(t, err)
	assert.NotNil(t, got, "other accounts keep their sessions")
}

func TestSessionRepo_Contract(t *testing.T) {
	exerciseStore(t, NewSessionRepo(testkit.NewDB(t)))
}

func TestSessionRepo_PurgeExpired(t *testing.T) {
	r := NewSessionRepo(testkit.NewDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, r.Create(ctx, newSession("old", "a", now.Add(-time.Minute))))
	require.NoError(t, r.Create(ctx, newSession("live", "a", now.Add(time.Hour))))

	n, err := r.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	live, err := r.Find(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestRedisSessionStore_Contract(t *testing.T) {
	m := miniredis.RunT(t)
	exerciseStore(t, NewRedisSessionStore(redis.NewClient(&redis.Options{Addr: m.Addr()})))
}

func TestRedisSessionStore_TTL(t *testing.T) {
	m := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newSession("h", "a", time.Now().Add(10*time.Minute))))
	assert.True(t, m.Exists("sess:h"))

	m.FastForward(11 * time.Minute)
	got, err := s.Find(ctx, "h")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Create(ctx, newSession("gone", "a", time.Now().Add(-time.Second))))
	assert.False(t, m.Exists("sess:gone"), "already expired sessions are not stored")
}
