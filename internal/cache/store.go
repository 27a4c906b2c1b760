// Quartermaster - Asset Tracking with Offline-Tolerant Data Access
// Copyright 2026 Quartermaster contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quartermasterhq/quartermaster

// Package cache provides the durable local key/value store that backs
// offline reads. Records are stored as raw JSON under "collection:id"
// keys so the access facade can rehydrate them without talking to the
// backend. Writes are upserts; the cache holds snapshots of confirmed
// backend state, never speculative local state.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/quartermasterhq/quartermaster/internal/logging"
)

// Store is a badger-backed snapshot cache. The database is opened
// lazily on first use so a missing cache directory does not prevent
// startup; a cache that cannot open degrades reads, not the process.
//
// Thread safety: all methods are safe for concurrent use.
type Store struct {
	path string

	initOnce sync.Once
	initErr  error
	db       *badger.DB

	mu     sync.RWMutex
	closed bool
}

// NewStore creates a cache store rooted at path. The badger database is
// not opened until the first operation.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// init opens the badger database exactly once.
func (s *Store) init() error {
	s.initOnce.Do(func() {
		opts := badger.DefaultOptions(s.path).
			WithLogger(newBadgerLogger()).
			WithNumVersionsToKeep(1).
			WithCompactL0OnClose(true)

		db, err := badger.Open(opts)
		if err != nil {
			s.initErr = fmt.Errorf("failed to open cache at %s: %w", s.path, err)
			logging.Error().Err(err).Str("path", s.path).Msg("Cache store unavailable")
			return
		}
		s.db = db
		logging.Info().Str("path", s.path).Msg("Cache store opened")
	})
	return s.initErr
}

// key builds the storage key for a record.
func key(collection, id string) []byte {
	return []byte(collection + ":" + id)
}

// Put upserts one record's JSON snapshot.
func (s *Store) Put(ctx context.Context, collection, id string, data []byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(collection, id), data)
	})
}

// GetAll returns the JSON snapshots of every record in a collection.
// An unknown collection yields an empty result, not an error.
func (s *Store) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results [][]byte
	prefix := []byte(collection + ":")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			results = append(results, data)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache collection %s: %w", collection, err)
	}
	return results, nil
}

// Get returns one record's JSON snapshot, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(collection, id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached record %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// Delete prunes one record. Deleting an absent record is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(collection, id))
	})
}

// PutAll replaces the snapshots for the given ids in one transaction.
// Existing records not named in the batch are left in place.
func (s *Store) PutAll(ctx context.Context, collection string, records map[string][]byte) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for id, data := range records {
		if err := wb.Set(key(collection, id), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *Store) ready() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("cache store is closed")
	}
	return s.init()
}

// Close flushes and closes the underlying database. Safe to call when
// the database never opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// badgerLogger routes badger's internal logging through zerolog at
// reduced verbosity.
type badgerLogger struct {
	log zerolog.Logger
}

func newBadgerLogger() *badgerLogger {
	return &badgerLogger{log: logging.With().Str("component", "badger").Logger()}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func trimNewline(s string) string {
	return string(bytes.TrimRight([]byte(s), "\n"))
}
