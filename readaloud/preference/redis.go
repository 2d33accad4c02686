package preference

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "readaloud:preferences"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps preferences in one redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{
		client: client,
		key:    key,
	}
}

func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	value, err := s.client.HGet(ctx, s.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *RedisStore) Set(ctx context.Context, name, value string) error {
	return s.client.HSet(ctx, s.key, name, value).Err()
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.HDel(ctx, s.key, name).Err()
}

func (s *RedisStore) All(ctx context.Context) (map[string]string, error) {
	return s.client.HGetAll(ctx, s.key).Result()
}
