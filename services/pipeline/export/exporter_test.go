// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
)

func seededStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.OpenInMemoryStore(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pikachu := &catalog.Record{
		ID:    25,
		Name:  "pikachu",
		Types: []string{"electric"},
		Stats: map[string]int{
			"hp": 35, "attack": 55, "defense": 40,
			"special_attack": 50, "special_defense": 50, "speed": 90,
		},
		Abilities:   []string{"static", "lightning-rod"},
		SpriteFront: "front.png",
		SpriteBack:  "back.png",
	}
	partial := &catalog.Record{
		ID:    129,
		Name:  "magikarp",
		Types: []string{"water"},
		Stats: map[string]int{"hp": 20},
	}
	require.NoError(t, store.Upsert(context.Background(), pikachu))
	require.NoError(t, store.Upsert(context.Background(), partial))
	return store
}

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	exp, err := NewExporter(t.TempDir(), nil)
	require.NoError(t, err)
	return exp
}

func TestWriteRecordsCSV(t *testing.T) {
	store := seededStore(t)
	exp := newTestExporter(t)

	var buf bytes.Buffer
	count, err := exp.WriteRecordsCSV(context.Background(), store, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")
	assert.Equal(t, csvHeader, rows[0])

	// Store iteration is name ordered, so magikarp comes first.
	magikarp := rows[1]
	assert.Equal(t, "129", magikarp[0])
	assert.Equal(t, "magikarp", magikarp[1])
	assert.Equal(t, "20", magikarp[7], "hp column")
	assert.Equal(t, "", magikarp[8], "absent stats export as empty cells")

	pikachu := rows[2]
	assert.Equal(t, "pikachu", pikachu[1])
	assert.Equal(t, "static|lightning-rod", pikachu[6])
	assert.Equal(t, "90", pikachu[12], "speed column")
}

func TestWriteRecordsJSON(t *testing.T) {
	store := seededStore(t)
	exp := newTestExporter(t)

	var buf bytes.Buffer
	count, err := exp.WriteRecordsJSON(context.Background(), store, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var recs []catalog.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "magikarp", recs[0].Name)
	assert.Equal(t, "pikachu", recs[1].Name)
}

func TestWriteRecordsJSONEmptyStore(t *testing.T) {
	store, err := catalog.OpenInMemoryStore(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	exp := newTestExporter(t)

	var buf bytes.Buffer
	count, err := exp.WriteRecordsJSON(context.Background(), store, &buf)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()), "empty store exports an empty array, not null")
}

func TestExportRecordsFile(t *testing.T) {
	store := seededStore(t)
	exp := newTestExporter(t)

	path, count, err := exp.ExportRecords(context.Background(), store, "csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, strings.HasPrefix(path, exp.Dir()))
	assert.True(t, strings.HasSuffix(path, ".csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pikachu")

	_, _, err = exp.ExportRecords(context.Background(), store, "xml")
	assert.Error(t, err, "unsupported formats are rejected")
}

func TestAppendAlerts(t *testing.T) {
	exp := newTestExporter(t)

	batch := []alerts.Alert{
		{ID: "a1", Level: alerts.LevelInfo, Title: "Test Alert", Message: "one"},
		{ID: "a2", Level: alerts.LevelCritical, Title: "Negative Stats Detected", Message: "two"},
	}

	path, n, err := exp.AppendAlerts(batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, n, err = exp.AppendAlerts(batch[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "appends accumulate")

	var decoded alerts.Alert
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "a2", decoded.ID)
	assert.Equal(t, alerts.LevelCritical, decoded.Level)
}
