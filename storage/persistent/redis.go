package persistent

import (
	"bulletin/storage"
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type RedisKV struct {
	client *redis.Client
}

// CreateRedisKV accepts either a bare "host:port" address or a redis:// URL.
func CreateRedisKV(redisUrl string) *RedisKV {
	opts, err := redis.ParseURL(redisUrl)
	if err != nil {
		opts = &redis.Options{Addr: redisUrl}
	}
	return NewRedisKV(redis.NewClient(opts))
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %s: %w", key, err.Error(), storage.InternalError)
	}
	return val, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	err := s.client.Set(ctx, key, value, 0).Err()
	if err != nil {
		return fmt.Errorf("redis set %s: %s: %w", key, err.Error(), storage.InternalError)
	}
	return nil
}

func (s *RedisKV) Del(ctx context.Context, key string) error {
	err := s.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("redis del %s: %s: %w", key, err.Error(), storage.InternalError)
	}
	return nil
}

func (s *RedisKV) Name() string {
	return "redis"
}

func (s *RedisKV) Close(_ context.Context) error {
	return s.client.Close()
}
