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
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemoryStore(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testRecord(id int, name string) *Record {
	return &Record{
		ID:     id,
		Name:   name,
		Height: 4,
		Weight: 60,
		Types:  []string{"electric"},
		Stats: map[string]int{
			"hp":              35,
			"attack":          55,
			"defense":         40,
			"special_attack":  50,
			"special_defense": 50,
			"speed":           90,
		},
		SpriteFront: "https://example.com/front.png",
		SpriteBack:  "https://example.com/back.png",
	}
}

func TestStoreUpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord(25, "Pikachu")
	require.NoError(t, store.Upsert(ctx, rec))

	got, err := store.Get(ctx, "pikachu")
	require.NoError(t, err)
	assert.Equal(t, 25, got.ID)
	assert.Equal(t, "pikachu", got.Name, "names are normalized to lowercase")
	assert.Equal(t, 90, got.Stats["speed"])
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestStoreUpsertPreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord(25, "pikachu")
	require.NoError(t, store.Upsert(ctx, rec))

	first, err := store.Get(ctx, "pikachu")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	rec.Weight = 61
	require.NoError(t, store.Upsert(ctx, rec))

	second, err := store.Get(ctx, "pikachu")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "CreatedAt survives re-upsert")
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt), "UpdatedAt advances on re-upsert")
	assert.Equal(t, 61, second.Weight)
}

func TestStoreUpsertRequiresName(t *testing.T) {
	store := newTestStore(t)

	err := store.Upsert(context.Background(), &Record{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestStoreGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missingno")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testRecord(1, "bulbasaur")))
	require.NoError(t, store.Delete(ctx, "bulbasaur"))

	_, err := store.Get(ctx, "bulbasaur")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, "bulbasaur")
	assert.ErrorIs(t, err, ErrNotFound, "deleting a missing record reports not found")
}

func TestStoreListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	names := []string{"bulbasaur", "charmander", "pikachu", "squirtle"}
	for i, name := range names {
		require.NoError(t, store.Upsert(ctx, testRecord(i+1, name)))
	}

	page, total, err := store.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "bulbasaur", page[0].Name, "listing is ordered by name")
	assert.Equal(t, "charmander", page[1].Name)

	page, total, err = store.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "pikachu", page[0].Name)
	assert.Equal(t, "squirtle", page[1].Name)

	page, total, err = store.List(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, page, "offset beyond the end yields an empty page")

	page, _, err = store.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 4, "zero limit means no cap")
}

func TestStoreCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Upsert(ctx, testRecord(i, fmt.Sprintf("mon-%d", i))))
	}

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStoreScan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Upsert(ctx, testRecord(i, fmt.Sprintf("mon-%d", i))))
	}

	var seen int
	err := store.Scan(ctx, func(rec *Record) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)

	stop := errors.New("stop")
	seen = 0
	err = store.Scan(ctx, func(rec *Record) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen, "scan stops at the first callback error")
}

func TestStoreScanCancelled(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Upsert(context.Background(), testRecord(1, "bulbasaur")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Scan(ctx, func(rec *Record) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreHealth(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Health(context.Background()))

	require.NoError(t, store.Close())
	assert.Error(t, store.Health(context.Background()), "closed store is unhealthy")
}
