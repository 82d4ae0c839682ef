// Package repository defines the storage ports used by the application layer
package repository

import (
	"context"
)

// KeyValueStore is a durable string-keyed store of raw values
type KeyValueStore interface {
	// GetRaw returns the stored bytes and whether the key exists
	GetRaw(ctx context.Context, key string) ([]byte, bool, error)

	// SetRaw stores value under key, replacing any previous value
	SetRaw(ctx context.Context, key string, value []byte) error

	// Exists reports whether key has a stored value
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Clear removes every key owned by the store
	Clear(ctx context.Context) error

	// Close releases the underlying resources
	Close() error
}

// Cache is the JSON-typed view over a KeyValueStore
type Cache interface {
	// Get decodes the value under key into out. Missing and undecodable
	// entries both report false.
	Get(ctx context.Context, key string, out interface{}) bool

	// Set encodes value as JSON and stores it under key
	Set(ctx context.Context, key string, value interface{}) error

	// SetRaw stores an already-encoded JSON document unchanged
	SetRaw(ctx context.Context, key string, raw []byte) error

	// Has reports whether an entry exists under key
	Has(ctx context.Context, key string) bool
}
