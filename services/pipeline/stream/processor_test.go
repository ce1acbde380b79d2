// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
)

func cleanRecord(id int, name string) *catalog.Record {
	return &catalog.Record{
		ID:    id,
		Name:  name,
		Types: []string{"electric"},
		Stats: map[string]int{
			"hp":              35,
			"attack":          55,
			"defense":         40,
			"special_attack":  50,
			"special_defense": 50,
			"speed":           90,
		},
		SpriteFront: "https://img.example/front.png",
		SpriteBack:  "https://img.example/back.png",
	}
}

type stubSink struct {
	mu       sync.Mutex
	findings []rules.Finding
}

func (s *stubSink) RecordFinding(rec *catalog.Record, f rules.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
}

func (s *stubSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.findings)
}

func newTestProcessor(sink AlertSink, logSize int) *Processor {
	return NewProcessor(rules.NewEngine(nil), sink, Config{EventLogSize: logSize})
}

func TestLifecycle(t *testing.T) {
	p := newTestProcessor(nil, 0)

	st := p.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.StartedAt)

	assert.True(t, p.Start())
	assert.False(t, p.Start(), "starting a running stream is a no-op")

	st = p.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.StartedAt)

	assert.True(t, p.Stop())
	assert.False(t, p.Stop(), "stopping a stopped stream is a no-op")

	st = p.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.StartedAt)
}

func TestIngestWhileStopped(t *testing.T) {
	p := newTestProcessor(nil, 0)

	_, err := p.Ingest(context.Background(), cleanRecord(1, "bulbasaur"))
	assert.ErrorIs(t, err, ErrNotRunning)

	st := p.Status()
	assert.Zero(t, st.Processed)
	assert.Zero(t, st.Errors, "rejected records are not errors")
	assert.Zero(t, st.EventCount)
}

func TestIngestCountsExactly(t *testing.T) {
	p := newTestProcessor(nil, 0)
	p.Start()

	for i := 1; i <= 7; i++ {
		findings, err := p.Ingest(context.Background(), cleanRecord(i, fmt.Sprintf("mon-%d", i)))
		require.NoError(t, err)
		assert.Empty(t, findings)
	}

	st := p.Status()
	assert.Equal(t, int64(7), st.Processed)
	assert.Zero(t, st.Anomalies)
	assert.Zero(t, st.Errors)
	assert.Equal(t, 7, st.EventCount)
	require.NotNil(t, st.LastProcessed)
}

func TestIngestValidation(t *testing.T) {
	p := newTestProcessor(nil, 0)
	p.Start()

	_, err := p.Ingest(context.Background(), nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = p.Ingest(context.Background(), &catalog.Record{ID: 0, Name: "x"})
	require.ErrorAs(t, err, &verr)

	_, err = p.Ingest(context.Background(), &catalog.Record{ID: 1, Name: ""})
	require.ErrorAs(t, err, &verr)

	st := p.Status()
	assert.Equal(t, int64(3), st.Errors)
	assert.Zero(t, st.Processed, "invalid records are not processed")
	assert.Zero(t, st.EventCount)
}

func TestIngestAnomalies(t *testing.T) {
	sink := &stubSink{}
	p := newTestProcessor(sink, 0)
	p.Start()

	rec := cleanRecord(1, "glitchmon")
	rec.Stats["hp"] = -10
	rec.SpriteFront = ""
	rec.SpriteBack = ""

	findings, err := p.Ingest(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, rules.RuleNegativeStats, findings[0].RuleID)
	assert.Equal(t, rules.RuleMissingSprite, findings[1].RuleID)

	st := p.Status()
	assert.Equal(t, int64(1), st.Processed)
	assert.Equal(t, int64(2), st.Anomalies, "each finding counts")
	assert.Equal(t, 2, sink.count(), "findings reach the sink")

	events := p.Events(1)
	require.Len(t, events, 1)
	assert.True(t, events[0].Anomalous())
	assert.Equal(t, 2, events[0].AnomaliesFound)
	assert.Len(t, events[0].Findings, 2)
}

func TestCountersSurviveRestart(t *testing.T) {
	p := newTestProcessor(nil, 0)

	p.Start()
	_, err := p.Ingest(context.Background(), cleanRecord(1, "bulbasaur"))
	require.NoError(t, err)
	p.Stop()

	p.Start()
	_, err = p.Ingest(context.Background(), cleanRecord(2, "ivysaur"))
	require.NoError(t, err)

	st := p.Status()
	assert.Equal(t, int64(2), st.Processed, "counters are monotonic across restarts")
	assert.Equal(t, 2, st.EventCount, "event log survives restarts")
}

func TestEventLogBounded(t *testing.T) {
	p := newTestProcessor(nil, 5)
	p.Start()

	for i := 1; i <= 8; i++ {
		_, err := p.Ingest(context.Background(), cleanRecord(i, fmt.Sprintf("mon-%d", i)))
		require.NoError(t, err)
	}

	st := p.Status()
	assert.Equal(t, int64(8), st.Processed)
	assert.Equal(t, 5, st.EventCount)
	assert.Equal(t, int64(3), st.EventsDropped)

	events := p.Events(0)
	require.Len(t, events, 5)
	assert.Equal(t, "mon-8", events[0].Name, "newest first")
	assert.Equal(t, "mon-4", events[4].Name, "oldest surviving entry")
}

func TestEventsLimit(t *testing.T) {
	p := newTestProcessor(nil, 0)
	p.Start()

	for i := 1; i <= 4; i++ {
		_, err := p.Ingest(context.Background(), cleanRecord(i, fmt.Sprintf("mon-%d", i)))
		require.NoError(t, err)
	}

	events := p.Events(2)
	require.Len(t, events, 2)
	assert.Equal(t, "mon-4", events[0].Name)
	assert.Equal(t, "mon-3", events[1].Name)

	assert.Len(t, p.Events(100), 4, "limit beyond size returns everything")
	assert.Len(t, p.Events(-1), 4)
}

func TestNoteAlertSent(t *testing.T) {
	p := newTestProcessor(nil, 0)

	p.NoteAlertSent()
	p.NoteAlertSent()

	assert.Equal(t, int64(2), p.Status().AlertsSent)
}

func TestSimulateScenarios(t *testing.T) {
	tests := []struct {
		ruleID string
	}{
		{rules.RuleNegativeStats},
		{rules.RuleInvalidType},
		{rules.RuleMissingSprite},
		{rules.RuleExtremeStats},
		{rules.RuleMissingData},
	}
	for _, tt := range tests {
		t.Run(tt.ruleID, func(t *testing.T) {
			p := newTestProcessor(nil, 0)
			p.Start()

			rec, findings, err := p.Simulate(context.Background(), "", tt.ruleID)
			require.NoError(t, err)
			assert.Equal(t, 99999, rec.ID)
			assert.Equal(t, "missingno", rec.Name)

			require.NotEmpty(t, findings)
			var hit bool
			for _, f := range findings {
				if f.RuleID == tt.ruleID {
					hit = true
				}
			}
			assert.True(t, hit, "simulation trips the targeted rule")

			assert.Equal(t, int64(1), p.Status().Processed, "simulation uses the normal ingest path")
		})
	}
}

func TestSimulateUnknownRule(t *testing.T) {
	p := newTestProcessor(nil, 0)
	p.Start()

	_, _, err := p.Simulate(context.Background(), "missingno", "nope")
	assert.ErrorIs(t, err, rules.ErrUnknownRule)
}

func TestSimulateWhileStopped(t *testing.T) {
	p := newTestProcessor(nil, 0)

	_, _, err := p.Simulate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestConcurrentIngest(t *testing.T) {
	p := newTestProcessor(nil, 0)
	p.Start()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := p.Ingest(context.Background(), cleanRecord(w*perWorker+i+1, "mon"))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	st := p.Status()
	assert.Equal(t, int64(workers*perWorker), st.Processed, "no increments lost under concurrency")
}
