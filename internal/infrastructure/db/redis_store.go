package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/damon-houk/currency-widget/internal/domain/repository"
	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces widget keys in a shared Redis
const DefaultRedisPrefix = "currency-widget:"

// RedisStore implements KeyValueStore on Redis. Keys are written without a TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures NewRedisClient
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds a client and checks connectivity
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

// NewRedisStore creates a store over client; an empty prefix uses DefaultRedisPrefix
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// GetRaw returns the value stored under key
func (s *RedisStore) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return val, true, nil
}

// SetRaw stores value under key with no expiration
func (s *RedisStore) SetRaw(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Exists reports whether key is stored
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key %q: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the store prefix
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ repository.KeyValueStore = (*RedisStore)(nil)
