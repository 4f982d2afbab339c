package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"portfolio-api/internal/domain"
)

// RedisSessionStore keeps one key per session with a TTL matching its expiry, plus a set per
// account so every session of an account can be revoked at once.
type RedisSessionStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, prefix: "sess:"}
}

func (s *RedisSessionStore) key(tokenHash string) string { return s.prefix + tokenHash }
func (s *RedisSessionStore) accountKey(id string) string { return s.prefix + "acct:" + id }

func (s *RedisSessionStore) Create(ctx context.Context, sess *domain.Session) error {
	ttl := sess.ExpiresAt.Sub(sess.CreatedAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(sess.TokenHash), b, ttl)
		p.SAdd(ctx, s.accountKey(sess.AccountID), sess.TokenHash)
		// every session has the same lifetime, so the newest one sets the index expiry
		p.Expire(ctx, s.accountKey(sess.AccountID), ttl)
		return nil
	})
	return err
}

func (s *RedisSessionStore) Find(ctx context.Context, tokenHash string) (*domain.Session, error) {
	b, err := s.rdb.Get(ctx, s.key(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	sess.TokenHash = tokenHash
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, tokenHash string) error {
	sess, err := s.Find(ctx, tokenHash)
	if err != nil || sess == nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key(tokenHash))
		p.SRem(ctx, s.accountKey(sess.AccountID), tokenHash)
		return nil
	})
	return err
}

func (s *RedisSessionStore) DeleteByAccount(ctx context.Context, accountID string) error {
	hashes, err := s.rdb.SMembers(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, s.key(h))
	}
	keys = append(keys, s.accountKey(accountID))
	return s.rdb.Del(ctx, keys...).Err()
}

// PurgeExpired is a no-op: redis expires session keys on its own.
func (s *RedisSessionStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
