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
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubFetcher) Fetch(ctx context.Context, idOrName string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	id, _ := strconv.Atoi(idOrName)
	return testRecord(id, "mon-"+idOrName), nil
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFeederFeedsPipeline(t *testing.T) {
	store := newTestStore(t)
	fetcher := &stubFetcher{}

	var (
		mu       sync.Mutex
		ingested []string
	)
	ingest := func(ctx context.Context, rec *Record) error {
		mu.Lock()
		defer mu.Unlock()
		ingested = append(ingested, rec.Name)
		return nil
	}

	feeder := NewFeeder(fetcher, store, ingest, FeederConfig{
		Interval: 10 * time.Millisecond,
		MinID:    1,
		MaxID:    5,
	})
	require.True(t, feeder.Start())
	assert.False(t, feeder.Start(), "second Start is a no-op")
	assert.True(t, feeder.Running())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ingested) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.True(t, feeder.Stop())
	assert.False(t, feeder.Stop(), "second Stop is a no-op")
	assert.False(t, feeder.Running())

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Greater(t, n, 0, "fetched records are persisted")
}

func TestFeederSkipsFetchFailures(t *testing.T) {
	store := newTestStore(t)
	fetcher := &stubFetcher{err: errors.New("upstream down")}

	ingestCalled := false
	feeder := NewFeeder(fetcher, store, func(ctx context.Context, rec *Record) error {
		ingestCalled = true
		return nil
	}, FeederConfig{Interval: 5 * time.Millisecond})

	require.True(t, feeder.Start())
	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 2
	}, 2*time.Second, 2*time.Millisecond)
	require.True(t, feeder.Stop())

	assert.False(t, ingestCalled, "failed fetches never reach ingest")

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFeederNilIngest(t *testing.T) {
	store := newTestStore(t)
	fetcher := &stubFetcher{}

	feeder := NewFeeder(fetcher, store, nil, FeederConfig{Interval: 5 * time.Millisecond})
	require.True(t, feeder.Start())
	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 1
	}, 2*time.Second, 2*time.Millisecond)
	require.True(t, feeder.Stop())
}
