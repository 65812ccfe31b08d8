package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the known codes of each game as one JSON array value
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a new Redis backed store
func NewRedisStore(addr string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisStore{client: client, keyPrefix: "hoyocodes:known:"}
}

// Key returns the Redis key holding the codes of game
func (s *RedisStore) Key(game string) string {
	return s.keyPrefix + game
}

// Load reads the codes of game
func (s *RedisStore) Load(ctx context.Context, game string) (*KnownCodes, error) {
	data, err := s.client.Get(ctx, s.Key(game)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewKnownCodes(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Key(game), err)
	}

	codes, err := decodeCodes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.Key(game), err)
	}
	known := NewKnownCodes(codes)
	known.Persisted = true
	return known, nil
}

// Save replaces the codes of game
func (s *RedisStore) Save(ctx context.Context, game string, codes []string) error {
	if codes == nil {
		codes = []string{}
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to encode codes: %w", err)
	}
	return s.client.Set(ctx, s.Key(game), data, 0).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
