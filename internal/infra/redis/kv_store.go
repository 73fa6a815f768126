package redis

import (
	"context"
	"errors"
	"fmt"

	"edu-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by KVStore.
const DefaultPrefix = "quizgame:"

// KVStore keeps each collection as one string value:
//
//	SET quizgame:{key} {json}
//
// Values never expire; the store is the system of record, not a cache.
type KVStore struct {
	client *redis.Client
	prefix string
}

func NewKVStore(client *redis.Client, prefix string) *KVStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) key(key string) string {
	return s.prefix + key
}
