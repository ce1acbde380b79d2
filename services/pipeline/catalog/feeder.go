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
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

// Fetcher retrieves a single record by id or name. *Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, idOrName string) (*Record, error)
}

// IngestFunc hands a fetched record to the downstream pipeline.
type IngestFunc func(ctx context.Context, rec *Record) error

// FeederConfig configures the background feeder.
type FeederConfig struct {
	// Interval between fetches. Defaults to 5s.
	Interval time.Duration

	// MinID and MaxID bound the random id range (inclusive).
	// Defaults to the original 151-entry dex.
	MinID int
	MaxID int

	// Logger for skipped fetches. Nil uses slog.Default.
	Logger *slog.Logger
}

// Feeder periodically fetches a random record from the upstream catalog,
// persists it, and pushes it into the pipeline via the injected ingest
// function.
//
// # Thread Safety
//
// Start and Stop are safe to call from multiple goroutines. Stop blocks
// until the feed loop has exited.
type Feeder struct {
	fetcher  Fetcher
	store    *Store
	ingest   IngestFunc
	interval time.Duration
	minID    int
	maxID    int
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFeeder wires a feeder. The ingest function may be nil, in which case
// fetched records are only persisted.
func NewFeeder(fetcher Fetcher, store *Store, ingest IngestFunc, cfg FeederConfig) *Feeder {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MinID <= 0 {
		cfg.MinID = 1
	}
	if cfg.MaxID < cfg.MinID {
		cfg.MaxID = 151
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Feeder{
		fetcher:  fetcher,
		store:    store,
		ingest:   ingest,
		interval: cfg.Interval,
		minID:    cfg.MinID,
		maxID:    cfg.MaxID,
		logger:   cfg.Logger,
	}
}

// Start launches the feed loop. Calling Start on a running feeder is a
// no-op and returns false.
func (f *Feeder) Start() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return false
	}
	f.running = true
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	go f.run(f.stopCh, f.doneCh)
	f.logger.Info("feeder started",
		slog.Duration("interval", f.interval),
		slog.Int("min_id", f.minID),
		slog.Int("max_id", f.maxID))
	return true
}

// Stop halts the feed loop and waits for it to exit. Calling Stop on a
// stopped feeder is a no-op and returns false.
func (f *Feeder) Stop() bool {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return false
	}
	f.running = false
	stopCh, doneCh := f.stopCh, f.doneCh
	f.mu.Unlock()

	close(stopCh)
	<-doneCh
	f.logger.Info("feeder stopped")
	return true
}

// Running reports whether the feed loop is active.
func (f *Feeder) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Feeder) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.feedOnce(stopCh)
		case <-stopCh:
			return
		}
	}
}

// feedOnce fetches one random record and pushes it downstream. Failures
// are logged and the tick is skipped; the loop keeps going.
func (f *Feeder) feedOnce(stopCh chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), f.interval)
	defer cancel()

	// Abort the in-flight fetch promptly when Stop is called.
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	id := rand.IntN(f.maxID-f.minID+1) + f.minID
	rec, err := f.fetcher.Fetch(ctx, strconv.Itoa(id))
	if err != nil {
		f.logger.Warn("feeder fetch skipped", slog.Int("id", id), slog.String("error", err.Error()))
		return
	}

	if err := f.store.Upsert(ctx, rec); err != nil {
		f.logger.Warn("feeder upsert skipped", slog.String("name", rec.Name), slog.String("error", err.Error()))
		return
	}

	if f.ingest != nil {
		if err := f.ingest(ctx, rec); err != nil {
			f.logger.Warn("feeder ingest skipped", slog.String("name", rec.Name), slog.String("error", err.Error()))
		}
	}
}
