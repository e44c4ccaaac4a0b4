package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-master/internal/domain"
)

// Store is a Redis-backed implementation of app.Store.
// Keys are stored as plain strings: SET {prefix}:{key} {json}.
// A zero ttl keeps values until they are deleted.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "quiz"
	}
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) key(key string) string {
	return s.prefix + ":" + key
}
