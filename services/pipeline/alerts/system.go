// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package alerts turns rule findings into leveled alerts and keeps a
// bounded alert history.
//
// The system is the stream processor's AlertSink. Every finding maps to
// exactly one alert level, alerts land in a bounded history (oldest
// evicted first), and an optional callback fires once per alert actually
// recorded from a finding. Clearing the history never rewinds that
// callback's effect: dispatch counts measure what was sent, the history
// measures what is retained.
package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/observability"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
)

// Level is the alert severity surfaced to operators.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Alert sources.
const (
	SourceRule = "rule"
	SourceTest = "test"
)

// DefaultHistorySize bounds the alert history.
const DefaultHistorySize = 500

const subscriberBuffer = 16

// ErrInvalidLevel is returned for levels outside the known set.
var ErrInvalidLevel = errors.New("invalid alert level")

// ParseLevel validates a level string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelInfo, LevelWarning, LevelCritical:
		return Level(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// LevelForSeverity maps a rule severity to an alert level. Every
// severity maps somewhere; anything unrecognized lands on warning.
func LevelForSeverity(sev rules.Severity) Level {
	switch sev {
	case rules.SeverityLow:
		return LevelInfo
	case rules.SeverityMedium:
		return LevelWarning
	case rules.SeverityHigh:
		return LevelCritical
	default:
		return LevelWarning
	}
}

var ruleTitles = map[string]string{
	rules.RuleNegativeStats: "Negative Stats Detected",
	rules.RuleInvalidType:   "Unknown Type Detected",
	rules.RuleMissingSprite: "Missing Sprite Detected",
	rules.RuleExtremeStats:  "Extreme Stats Detected",
	rules.RuleMissingData:   "Missing Data Detected",
}

func titleForRule(id string) string {
	if t, ok := ruleTitles[id]; ok {
		return t
	}
	return "Anomaly Detected"
}

// Alert is one recorded alert.
type Alert struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Source    string         `json:"source"`
	Details   map[string]any `json:"details,omitempty"`
}

// Stats is the read-side summary of the alert system.
type Stats struct {
	Total      int           `json:"total_alerts"`
	ByLevel    map[Level]int `json:"by_level"`
	Suppressed int64         `json:"suppressed"`
	LastAlert  *Alert        `json:"last_alert,omitempty"`
}

// Config tunes the alert system.
type Config struct {
	// HistorySize bounds the history. Defaults to DefaultHistorySize.
	HistorySize int

	// SuppressionWindow drops repeat alerts for the same rule inside
	// the window. Zero disables suppression.
	SuppressionWindow time.Duration

	// RatePerMinute caps finding-sourced alerts per minute. Zero
	// disables the cap.
	RatePerMinute int

	// Logger for recorded alerts. Nil uses slog.Default.
	Logger *slog.Logger
}

// =============================================================================
// System
// =============================================================================

// System records alerts and fans them out to subscribers.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The finding callback runs
// outside the system lock so it may freely call back into other
// components.
type System struct {
	historySize int
	window      time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu         sync.Mutex
	history    []Alert
	lastAlert  *Alert
	suppressed int64
	lastByRule map[string]time.Time
	subs       map[int]chan Alert
	nextSubID  int
	onFinding  func()
}

// NewSystem builds an alert system from cfg.
func NewSystem(cfg Config) *System {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	return &System{
		historySize: cfg.HistorySize,
		window:      cfg.SuppressionWindow,
		limiter:     limiter,
		logger:      cfg.Logger,
		metrics:     observability.Default(),
		lastByRule:  make(map[string]time.Time),
		subs:        make(map[int]chan Alert),
	}
}

// SetFindingCallback registers fn to run once per alert recorded from a
// finding. Suppressed findings and test alerts never fire it.
func (s *System) SetFindingCallback(fn func()) {
	s.mu.Lock()
	s.onFinding = fn
	s.mu.Unlock()
}

// RecordFinding converts a rule finding into an alert. It satisfies the
// stream processor's AlertSink interface.
func (s *System) RecordFinding(rec *catalog.Record, f rules.Finding) {
	details := make(map[string]any, len(f.Details)+3)
	for k, v := range f.Details {
		details[k] = v
	}
	details["rule_id"] = f.RuleID
	if rec != nil {
		details["pokemon"] = rec.Name
		details["pokemon_id"] = rec.ID
	}

	alert := Alert{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     LevelForSeverity(f.Severity),
		Title:     titleForRule(f.RuleID),
		Message:   f.Description,
		Source:    SourceRule,
		Details:   details,
	}

	s.mu.Lock()
	if s.window > 0 {
		if last, ok := s.lastByRule[f.RuleID]; ok && alert.Timestamp.Sub(last) < s.window {
			s.suppressed++
			s.mu.Unlock()
			s.logger.Debug("alert suppressed", slog.String("rule_id", f.RuleID))
			return
		}
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.suppressed++
		s.mu.Unlock()
		s.logger.Debug("alert rate limited", slog.String("rule_id", f.RuleID))
		return
	}
	s.lastByRule[f.RuleID] = alert.Timestamp
	callback := s.onFinding
	s.recordLocked(alert)
	s.mu.Unlock()

	s.logger.Info("alert recorded",
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title))

	if callback != nil {
		callback()
	}
}

// Test records a synthetic alert at the given level. Test alerts share
// the history and subscriptions but never fire the finding callback.
func (s *System) Test(level Level, message string) (Alert, error) {
	level, err := ParseLevel(string(level))
	if err != nil {
		return Alert{}, err
	}
	if message == "" {
		message = "test alert"
	}

	alert := Alert{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     level,
		Title:     "Test Alert",
		Message:   message,
		Source:    SourceTest,
	}

	s.mu.Lock()
	s.recordLocked(alert)
	s.mu.Unlock()

	s.logger.Info("test alert recorded", slog.String("level", string(level)))
	return alert, nil
}

// recordLocked appends to the bounded history and publishes to
// subscribers. Callers hold s.mu.
func (s *System) recordLocked(alert Alert) {
	s.history = append(s.history, alert)
	if len(s.history) > s.historySize {
		s.history = s.history[1:]
	}
	s.lastAlert = &alert

	s.metrics.AlertsTotal.WithLabelValues(string(alert.Level), alert.Source).Inc()
	s.metrics.AlertHistorySize.Set(float64(len(s.history)))

	for _, ch := range s.subs {
		select {
		case ch <- alert:
		default:
			// Slow subscribers lose alerts rather than stall the pipeline.
		}
	}
}

// History returns up to limit alerts, newest first. A non-positive limit
// returns everything retained.
func (s *System) History(limit int) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// Stats summarizes the current history. Total reflects what is retained
// right now, not what was ever sent.
func (s *System) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	byLevel := map[Level]int{
		LevelInfo:     0,
		LevelWarning:  0,
		LevelCritical: 0,
	}
	for _, a := range s.history {
		byLevel[a.Level]++
	}

	st := Stats{
		Total:      len(s.history),
		ByLevel:    byLevel,
		Suppressed: s.suppressed,
	}
	if s.lastAlert != nil {
		a := *s.lastAlert
		st.LastAlert = &a
	}
	return st
}

// Clear empties the history and forgets the last alert. It returns the
// number of alerts dropped. Dispatch counters elsewhere are untouched.
func (s *System) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	s.history = nil
	s.lastAlert = nil
	s.metrics.AlertHistorySize.Set(0)
	return n
}

// Subscribe returns a channel receiving every alert recorded from now
// on, plus a cancel function. Subscribers that fall behind miss alerts
// instead of blocking the recorder.
func (s *System) Subscribe() (<-chan Alert, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Alert, subscriberBuffer)
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
