// Package db implements the durable KeyValueStore backends
package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/damon-houk/currency-widget/internal/domain/repository"
	"github.com/dgraph-io/badger/v3"
)

// badgerKeyPrefix namespaces widget entries inside the database
const badgerKeyPrefix = "kv:"

// BadgerStore implements KeyValueStore using BadgerDB
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a BadgerDB at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// NewBadgerStore creates a new BadgerDB-backed store
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// GetRaw returns the value stored under key
func (s *BadgerStore) GetRaw(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	return value, true, nil
}

// SetRaw stores value under key
func (s *BadgerStore) SetRaw(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), value)
	})

	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	return nil
}

// Exists reports whether key is stored
func (s *BadgerStore) Exists(_ context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(badgerKeyPrefix + key))
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to check key %q: %w", key, err)
	}

	return true, nil
}

// Delete removes key
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + key))
	})

	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}

	return nil
}

// Clear removes every widget entry
func (s *BadgerStore) Clear(_ context.Context) error {
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ repository.KeyValueStore = (*BadgerStore)(nil)
