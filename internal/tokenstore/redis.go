package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists bot tokens in Redis so they survive restarts and are
// shared between replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Store on top of an existing Redis client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(teamID string) string {
	return s.prefix + teamID
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, teamID string) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key(teamID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read token for team %s: %w", teamID, err)
	}
	return token, true, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, teamID, token string) error {
	if err := s.client.Set(ctx, s.key(teamID), token, 0).Err(); err != nil {
		return fmt.Errorf("failed to store token for team %s: %w", teamID, err)
	}
	return nil
}
