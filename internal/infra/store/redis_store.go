// File: internal/infra/store/redis_store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"mbti-assessment-client/internal/config"
	"mbti-assessment-client/internal/domain/ports/repository"
)

var _ repository.SessionStore = (*RedisStore)(nil)

// RedisStore keeps the active session id in Redis under a fixed key. It is
// best-effort: when Redis is unreachable every operation degrades to a no-op
// and Available reports false, so the caller falls back to a fresh session.
type RedisStore struct {
	cli *redis.Client
	key string
	ttl time.Duration
}

func NewRedisStore(cfg *config.StoreConfig) *RedisStore {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{cli: cli, key: cfg.Key, ttl: cfg.TTL}
}

func (s *RedisStore) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.cli.Ping(ctx).Err() == nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string) error {
	if err := s.cli.Set(ctx, s.key, sessionID, s.ttl).Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil // best-effort
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context) (string, error) {
	v, err := s.cli.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", nil
	}
	return v, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.cli.Del(ctx, s.key).Err(); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (s *RedisStore) Close() error { return s.cli.Close() }
