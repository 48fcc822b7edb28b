package redis

// Package redis provides the Redis-backed session record store.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/portal-auth/internal/ports"
)

// RecordStore stores session records as plain string values.
// Keys are used as given; callers own the namespace.
type RecordStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRecordStore creates a Redis record store. A ttl of zero keeps records until cleared.
func NewRecordStore(client redis.UniversalClient, ttl time.Duration) *RecordStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RecordStore{client: client, ttl: ttl}
}

func (s *RecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ports.ErrRecordNotFound
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrRecordNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *RecordStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("record key cannot be empty")
	}
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
