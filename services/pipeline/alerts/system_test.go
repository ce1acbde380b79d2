// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package alerts

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
)

func testFinding(ruleID string, sev rules.Severity) rules.Finding {
	return rules.Finding{
		RuleID:      ruleID,
		Severity:    sev,
		Description: "pokemon pikachu tripped " + ruleID,
		Details:     map[string]any{"sample": true},
	}
}

func testSubject() *catalog.Record {
	return &catalog.Record{ID: 25, Name: "pikachu"}
}

func TestLevelForSeverity(t *testing.T) {
	assert.Equal(t, LevelInfo, LevelForSeverity(rules.SeverityLow))
	assert.Equal(t, LevelWarning, LevelForSeverity(rules.SeverityMedium))
	assert.Equal(t, LevelCritical, LevelForSeverity(rules.SeverityHigh))
	assert.Equal(t, LevelWarning, LevelForSeverity(rules.Severity("weird")), "unknown severities land on warning")
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"info", "warning", "critical"} {
		lvl, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, Level(s), lvl)
	}

	_, err := ParseLevel("panic")
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = ParseLevel("")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestRecordFinding(t *testing.T) {
	sys := NewSystem(Config{})

	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))

	history := sys.History(0)
	require.Len(t, history, 1)

	alert := history[0]
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, LevelCritical, alert.Level)
	assert.Equal(t, "Negative Stats Detected", alert.Title)
	assert.Contains(t, alert.Message, "pikachu")
	assert.Equal(t, SourceRule, alert.Source)
	assert.Equal(t, "pikachu", alert.Details["pokemon"])
	assert.Equal(t, 25, alert.Details["pokemon_id"])
	assert.Equal(t, rules.RuleNegativeStats, alert.Details["rule_id"])
	assert.Equal(t, true, alert.Details["sample"], "finding details carry through")

	stats := sys.Stats()
	assert.Equal(t, 1, stats.Total)
	require.NotNil(t, stats.LastAlert)
	assert.Equal(t, alert.ID, stats.LastAlert.ID)
}

func TestUnknownRuleTitle(t *testing.T) {
	sys := NewSystem(Config{})

	sys.RecordFinding(testSubject(), testFinding("custom_rule", rules.SeverityLow))

	history := sys.History(1)
	require.Len(t, history, 1)
	assert.Equal(t, "Anomaly Detected", history[0].Title)
	assert.Equal(t, LevelInfo, history[0].Level)
}

func TestFindingCallback(t *testing.T) {
	sys := NewSystem(Config{})

	var fired atomic.Int64
	sys.SetFindingCallback(func() { fired.Add(1) })

	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))
	sys.RecordFinding(testSubject(), testFinding(rules.RuleMissingSprite, rules.SeverityLow))

	assert.Equal(t, int64(2), fired.Load(), "callback fires once per recorded alert")
}

func TestTestAlert(t *testing.T) {
	sys := NewSystem(Config{})

	var fired atomic.Int64
	sys.SetFindingCallback(func() { fired.Add(1) })

	alert, err := sys.Test(LevelWarning, "drill")
	require.NoError(t, err)
	assert.Equal(t, "Test Alert", alert.Title)
	assert.Equal(t, "drill", alert.Message)
	assert.Equal(t, SourceTest, alert.Source)

	assert.Zero(t, fired.Load(), "test alerts never fire the finding callback")
	assert.Equal(t, 1, sys.Stats().Total, "test alerts share the history")

	_, err = sys.Test(Level("nope"), "x")
	assert.ErrorIs(t, err, ErrInvalidLevel)

	alert, err = sys.Test(LevelInfo, "")
	require.NoError(t, err)
	assert.Equal(t, "test alert", alert.Message, "empty messages get a default")
}

func TestHistoryBounded(t *testing.T) {
	sys := NewSystem(Config{HistorySize: 3})

	for i := 1; i <= 5; i++ {
		_, err := sys.Test(LevelInfo, fmt.Sprintf("alert-%d", i))
		require.NoError(t, err)
	}

	history := sys.History(0)
	require.Len(t, history, 3)
	assert.Equal(t, "alert-5", history[0].Message, "newest first")
	assert.Equal(t, "alert-3", history[2].Message, "oldest surviving entry")

	stats := sys.Stats()
	assert.Equal(t, 3, stats.Total, "total reflects retained alerts")
	require.NotNil(t, stats.LastAlert)
	assert.Equal(t, "alert-5", stats.LastAlert.Message)
}

func TestHistoryLimit(t *testing.T) {
	sys := NewSystem(Config{})

	for i := 1; i <= 4; i++ {
		_, err := sys.Test(LevelInfo, fmt.Sprintf("alert-%d", i))
		require.NoError(t, err)
	}

	history := sys.History(2)
	require.Len(t, history, 2)
	assert.Equal(t, "alert-4", history[0].Message)
	assert.Equal(t, "alert-3", history[1].Message)

	assert.Len(t, sys.History(100), 4)
}

func TestClearKeepsDispatchSideEffects(t *testing.T) {
	sys := NewSystem(Config{})

	var fired atomic.Int64
	sys.SetFindingCallback(func() { fired.Add(1) })

	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))
	sys.RecordFinding(testSubject(), testFinding(rules.RuleMissingData, rules.SeverityHigh))
	require.Equal(t, int64(2), fired.Load())

	cleared := sys.Clear()
	assert.Equal(t, 2, cleared)

	stats := sys.Stats()
	assert.Zero(t, stats.Total)
	assert.Nil(t, stats.LastAlert)
	assert.Empty(t, sys.History(0))

	assert.Equal(t, int64(2), fired.Load(), "clearing history does not rewind dispatches")

	sys.RecordFinding(testSubject(), testFinding(rules.RuleInvalidType, rules.SeverityMedium))
	assert.Equal(t, int64(3), fired.Load(), "recording resumes after a clear")
}

func TestSuppressionWindow(t *testing.T) {
	sys := NewSystem(Config{SuppressionWindow: time.Hour})

	var fired atomic.Int64
	sys.SetFindingCallback(func() { fired.Add(1) })

	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))
	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))
	sys.RecordFinding(testSubject(), testFinding(rules.RuleMissingSprite, rules.SeverityLow))

	stats := sys.Stats()
	assert.Equal(t, 2, stats.Total, "repeat alerts inside the window are dropped")
	assert.Equal(t, int64(1), stats.Suppressed)
	assert.Equal(t, int64(2), fired.Load(), "suppressed findings never fire the callback")
}

func TestRateLimit(t *testing.T) {
	sys := NewSystem(Config{RatePerMinute: 2})

	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))
	sys.RecordFinding(testSubject(), testFinding(rules.RuleMissingSprite, rules.SeverityLow))
	sys.RecordFinding(testSubject(), testFinding(rules.RuleInvalidType, rules.SeverityMedium))

	stats := sys.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, int64(1), stats.Suppressed)
}

func TestStatsByLevel(t *testing.T) {
	sys := NewSystem(Config{})

	_, err := sys.Test(LevelInfo, "a")
	require.NoError(t, err)
	_, err = sys.Test(LevelInfo, "b")
	require.NoError(t, err)
	_, err = sys.Test(LevelCritical, "c")
	require.NoError(t, err)

	stats := sys.Stats()
	assert.Equal(t, 2, stats.ByLevel[LevelInfo])
	assert.Equal(t, 0, stats.ByLevel[LevelWarning])
	assert.Equal(t, 1, stats.ByLevel[LevelCritical])
}

func TestSubscribe(t *testing.T) {
	sys := NewSystem(Config{})

	ch, cancel := sys.Subscribe()

	sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))

	select {
	case alert := <-ch:
		assert.Equal(t, "Negative Stats Detected", alert.Title)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the alert")
	}

	cancel()
	cancel() // double cancel is safe

	sys.RecordFinding(testSubject(), testFinding(rules.RuleMissingData, rules.SeverityHigh))

	_, open := <-ch
	assert.False(t, open, "cancelled subscription channel is closed")
}

func TestSubscribeSlowConsumerDoesNotBlock(t *testing.T) {
	sys := NewSystem(Config{})

	_, cancel := sys.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			_, err := sys.Test(LevelInfo, "flood")
			assert.NoError(t, err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder blocked on a slow subscriber")
	}
}

func TestConcurrentRecording(t *testing.T) {
	sys := NewSystem(Config{HistorySize: 100})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				sys.RecordFinding(testSubject(), testFinding(rules.RuleNegativeStats, rules.SeverityHigh))
				sys.History(10)
				sys.Stats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, sys.Stats().Total, "history saturates at its bound")
}
