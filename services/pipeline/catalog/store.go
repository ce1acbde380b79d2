// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// =============================================================================
// Errors
// =============================================================================

// ErrNotFound is returned when no record exists under the requested name.
var ErrNotFound = errors.New("pokemon not found")

// ErrMissingName is returned when a record cannot be keyed.
var ErrMissingName = errors.New("record name is required")

// ErrInvalidName is returned when an identifier fails resource name validation
// before it reaches the upstream API or the store.
var ErrInvalidName = errors.New("invalid pokemon name")

// =============================================================================
// Configuration
// =============================================================================

// recordKeyPrefix namespaces record keys so other key families can share
// the database later without colliding.
const recordKeyPrefix = "pokemon:"

// StoreConfig holds configuration for the badger-backed record store.
type StoreConfig struct {
	// Path is the directory for database files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives badger's internal logging. Nil disables it.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Zero disables the GC runner. Ignored in memory mode.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64
}

// DefaultStoreConfig returns production defaults for the given directory.
func DefaultStoreConfig(path string) StoreConfig {
	return StoreConfig{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryStoreConfig returns configuration optimized for testing:
// no disk I/O, no sync, no GC.
func InMemoryStoreConfig() StoreConfig {
	return StoreConfig{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// =============================================================================
// Store
// =============================================================================

// Store is the persistent record store.
//
// # Description
//
// Records are stored as JSON values under "pokemon:<lowercase-name>" keys,
// so badger's ordered key iteration yields name-sorted listings without a
// secondary index. The store performs no retries and no policy: badger
// errors propagate to the caller untouched.
//
// # Thread Safety
//
// Safe for concurrent use; badger provides transaction isolation.
type Store struct {
	db        *badger.DB
	logger    *slog.Logger
	gcRunner  *gcRunner
	closeOnce sync.Once
}

// OpenStore opens the record store with the given configuration and, when
// GCInterval is set on a persistent store, starts the value log GC runner.
// Caller must Close() when done.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	s := &Store{db: db, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		ratio := cfg.GCDiscardRatio
		if ratio <= 0 || ratio >= 1 {
			ratio = DefaultStoreConfig("").GCDiscardRatio
		}
		s.gcRunner = newGCRunner(db, cfg.GCInterval, ratio, cfg.Logger)
		s.gcRunner.Start()
	}
	return s, nil
}

// OpenInMemoryStore opens a throwaway in-memory store for tests.
func OpenInMemoryStore(logger *slog.Logger) (*Store, error) {
	cfg := InMemoryStoreConfig()
	cfg.Logger = logger
	return OpenStore(cfg)
}

// Close stops the GC runner (if any) and closes the database. Safe to
// call more than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.gcRunner != nil {
			s.gcRunner.Stop()
		}
		err = s.db.Close()
	})
	return err
}

func recordKey(name string) []byte {
	return []byte(recordKeyPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// Upsert inserts or replaces the record keyed by its name.
//
// CreatedAt is preserved from the stored copy on replace (set to now on
// first insert); UpdatedAt is always bumped. The record is normalized
// before writing so keys and payload agree.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.Name) == "" {
		return ErrMissingName
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec.Normalize()
	key := recordKey(rec.Name)
	now := time.Now().UTC()

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var prior Record
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prior)
			}); verr == nil && !prior.CreatedAt.IsZero() {
				rec.CreatedAt = prior.CreatedAt
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
		default:
			return err
		}
		rec.UpdatedAt = now

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %q: %w", rec.Name, err)
		}
		return txn.Set(key, data)
	})
}

// Get returns the record stored under name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns records in name order, skipping offset records and
// returning at most limit (limit <= 0 means no cap), plus the total
// record count regardless of the window.
func (s *Store) List(ctx context.Context, offset, limit int) ([]*Record, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}

	var (
		out   []*Record
		total int
	)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			idx := total
			total++
			if idx < offset {
				continue
			}
			if limit > 0 && len(out) >= limit {
				continue
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Delete removes the record stored under name, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := recordKey(name)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// Count returns the number of stored records without loading values.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Scan streams every record through fn in name order.
//
// The scan is lazy (one value decoded at a time) and restartable (each
// call opens a fresh view). A non-nil error from fn stops the scan and
// propagates. Context cancellation is honored between records.
func (s *Store) Scan(ctx context.Context, fn func(*Record) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if err := fn(&rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Health verifies the store is open and readable.
func (s *Store) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("record store is closed")
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// =============================================================================
// Value log GC
// =============================================================================

// gcRunner runs periodic value log garbage collection.
type gcRunner struct {
	db       *badger.DB
	interval time.Duration
	ratio    float64
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newGCRunner(db *badger.DB, interval time.Duration, ratio float64, logger *slog.Logger) *gcRunner {
	return &gcRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins periodic garbage collection in a background goroutine.
func (r *gcRunner) Start() {
	go r.run()
}

// Stop signals the GC goroutine and waits for it to finish.
func (r *gcRunner) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *gcRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runGC()
		}
	}
}

func (r *gcRunner) runGC() {
	// RunValueLogGC returns nil when a rewrite happened; ErrNoRewrite
	// means there was nothing to collect.
	err := r.db.RunValueLogGC(r.ratio)
	if err == nil {
		if r.logger != nil {
			r.logger.Debug("record store value log GC completed")
		}
	} else if !errors.Is(err, badger.ErrNoRewrite) {
		if r.logger != nil {
			r.logger.Warn("record store value log GC error", slog.String("error", err.Error()))
		}
	}
}
