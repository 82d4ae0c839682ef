package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/damon-houk/currency-widget/internal/domain/apperrors"
	"github.com/damon-houk/currency-widget/internal/domain/repository"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/metrics"
)

// LocalCache stores JSON documents in a KeyValueStore with no expiry.
// Reads never fail outward: missing, unreadable and corrupt entries are misses.
type LocalCache struct {
	store   repository.KeyValueStore
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewLocalCache wraps store
func NewLocalCache(store repository.KeyValueStore, log logger.Logger, m *metrics.Metrics) *LocalCache {
	return &LocalCache{
		store:   store,
		logger:  logger.OrDefault(log).WithField("component", "local_cache"),
		metrics: m,
	}
}

// Get decodes the entry under key into out, which must be a non-nil pointer.
// out is only modified on a hit.
func (c *LocalCache) Get(ctx context.Context, key string, out interface{}) bool {
	raw, exists, err := c.store.GetRaw(ctx, key)
	if err != nil {
		c.metrics.ObserveCacheLookup(key, "error")
		c.logger.Warn("Cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	if !exists {
		c.metrics.ObserveCacheLookup(key, "miss")
		c.logger.Debug("Cache miss", map[string]interface{}{"key": key})
		return false
	}

	if err := decodeInto(key, raw, out); err != nil {
		c.metrics.ObserveCacheLookup(key, "corrupt")
		c.logger.Debug("Ignoring undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	c.metrics.ObserveCacheLookup(key, "hit")
	return true
}

// Set encodes value as JSON and overwrites key
func (c *LocalCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %q: %w", key, err)
	}

	if err := c.store.SetRaw(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store cache entry %q: %w", key, err)
	}

	return nil
}

// SetRaw stores an encoded JSON document byte for byte
func (c *LocalCache) SetRaw(ctx context.Context, key string, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("refusing to store invalid JSON under %q", key)
	}

	if err := c.store.SetRaw(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to store cache entry %q: %w", key, err)
	}

	return nil
}

// Has reports whether an entry exists under key, decodable or not
func (c *LocalCache) Has(ctx context.Context, key string) bool {
	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		c.logger.Warn("Cache existence check failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return exists
}

// decodeInto unmarshals into a fresh value and copies it to out on success,
// so a partially decoded document never leaks to the caller.
func decodeInto(key string, raw []byte, out interface{}) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return &apperrors.CacheParseError{Key: key, Err: errors.New("destination must be a non-nil pointer")}
	}

	if !json.Valid(raw) {
		return &apperrors.CacheParseError{Key: key, Err: errors.New("stored value is not valid JSON")}
	}

	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		return &apperrors.CacheParseError{Key: key, Err: err}
	}

	target.Elem().Set(fresh.Elem())
	return nil
}

var _ repository.Cache = (*LocalCache)(nil)
var _ repository.KeyValueStore = (*MemoryStore)(nil)
