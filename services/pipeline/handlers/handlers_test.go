// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Shared fixtures for handler tests

package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/dashboard"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testDeps struct {
	store  *catalog.Store
	engine *rules.Engine
	proc   *stream.Processor
	sys    *alerts.System
	agg    *dashboard.Aggregator
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	store, err := catalog.OpenInMemoryStore(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := rules.NewEngine(nil)
	sys := alerts.NewSystem(alerts.Config{})
	proc := stream.NewProcessor(engine, sys, stream.Config{})
	sys.SetFindingCallback(proc.NoteAlertSent)

	return &testDeps{
		store:  store,
		engine: engine,
		proc:   proc,
		sys:    sys,
		agg:    dashboard.NewAggregator(store, proc, sys, engine, nil),
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %T", resp.Data)
	return m
}

func cleanPayload(id int, name string) *catalog.Record {
	return &catalog.Record{
		ID:    id,
		Name:  name,
		Types: []string{"electric"},
		Stats: map[string]int{
			"hp": 35, "attack": 55, "defense": 40,
			"special_attack": 50, "special_defense": 50, "speed": 90,
		},
		SpriteFront: "front.png",
		SpriteBack:  "back.png",
	}
}
