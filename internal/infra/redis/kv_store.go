package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KVStore implements app.KV on Redis string keys. It lets the websocket
// server keep identities across restarts and instances.
type KVStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewKVStore stores keys under prefix; ttl 0 means no expiry.
func NewKVStore(client *redis.Client, prefix string, ttl time.Duration) *KVStore {
	return &KVStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *KVStore) key(key string) string {
	return s.prefix + key
}
