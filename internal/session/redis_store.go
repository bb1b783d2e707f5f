package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage"
)

// RedisStore 基于 Redis 的会话存储，过期由 Redis TTL 处理
type RedisStore struct {
	redis *storage.Redis
}

func NewRedisStore(r *storage.Redis) (*RedisStore, error) {
	if r == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisStore{redis: r}, nil
}

func buildKey(id string) string {
	return fmt.Sprintf(constants.KeySessionContext, id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Context, error) {
	var sc Context
	if err := s.redis.GetJSON(ctx, buildKey(id), &sc); err != nil {
		if errors.Is(err, storage.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取会话 %s 失败: %w", id, err)
	}
	return &sc, nil
}

func (s *RedisStore) Save(ctx context.Context, sc *Context, ttl time.Duration) error {
	if err := s.redis.SetJSON(ctx, buildKey(sc.ID), sc, ttl); err != nil {
		return fmt.Errorf("保存会话 %s 失败: %w", sc.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, buildKey(id))
}
