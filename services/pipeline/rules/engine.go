// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules implements the anomaly rule engine.
//
// Rules are pure predicates over a single record. The engine evaluates
// them in registration order and returns findings for every enabled rule
// that triggers; evaluation never mutates the record or the engine, so
// the same record against the same configuration always yields the same
// findings. Registry mutations replace entries last-write-wins while
// preserving registration order.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
)

// Severity grades how bad a triggered rule is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Builtin rule ids.
const (
	RuleNegativeStats = "negative_stats"
	RuleInvalidType   = "invalid_type"
	RuleMissingSprite = "missing_sprite"
	RuleExtremeStats  = "extreme_stats"
	RuleMissingData   = "missing_data"
)

// DefaultMaxStat is the threshold above which a stat is considered
// extreme. 255 is the largest base stat in the source data.
const DefaultMaxStat = 255

// ErrUnknownRule is returned when an id does not match any registered rule.
var ErrUnknownRule = errors.New("unknown rule")

// Finding is one triggered rule against one record.
type Finding struct {
	RuleID      string         `json:"rule_id"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

// CheckFunc inspects a record and reports whether the rule triggers,
// along with a per-record message and structured details. Checks MUST
// NOT mutate the record.
type CheckFunc func(rec *catalog.Record) (string, map[string]any, bool)

// Rule is one registered anomaly check.
type Rule struct {
	ID          string
	Severity    Severity
	Description string
	Enabled     bool
	Check       CheckFunc
}

// RuleInfo is the API-facing view of a registered rule.
type RuleInfo struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
}

// =============================================================================
// Engine
// =============================================================================

// Engine holds the ordered rule registry.
//
// # Thread Safety
//
// Evaluate copies the registry under a read lock and runs checks without
// holding it, so evaluation never blocks mutations for longer than the
// snapshot copy and mutations mid-evaluation do not affect an evaluation
// already in flight.
type Engine struct {
	mu     sync.RWMutex
	rules  []Rule
	logger *slog.Logger
}

// NewEngine returns an engine preloaded with the builtin rules, all
// enabled, in their canonical order.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:  defaultRules(),
		logger: logger,
	}
}

// Evaluate runs every enabled rule against rec in registration order and
// returns the findings. A record that trips nothing yields nil.
func (e *Engine) Evaluate(rec *catalog.Record) []Finding {
	e.mu.RLock()
	snapshot := make([]Rule, len(e.rules))
	copy(snapshot, e.rules)
	e.mu.RUnlock()

	var findings []Finding
	for _, r := range snapshot {
		if !r.Enabled || r.Check == nil {
			continue
		}
		msg, details, ok := r.Check(rec)
		if !ok {
			continue
		}
		findings = append(findings, Finding{
			RuleID:      r.ID,
			Severity:    r.Severity,
			Description: msg,
			Details:     details,
		})
	}
	return findings
}

// Upsert registers a rule. An existing id is replaced in place, keeping
// its position in the evaluation order; a new id is appended.
func (e *Engine) Upsert(rule Rule) error {
	if rule.ID == "" {
		return errors.New("rule id is required")
	}
	if rule.Check == nil {
		return errors.New("rule check is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rules {
		if e.rules[i].ID == rule.ID {
			e.rules[i] = rule
			return nil
		}
	}
	e.rules = append(e.rules, rule)
	return nil
}

// Remove unregisters a rule by id.
func (e *Engine) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rules {
		if e.rules[i].ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRule, id)
}

// SetEnabled toggles a rule without touching its position or check.
func (e *Engine) SetEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rules {
		if e.rules[i].ID == id {
			e.rules[i].Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRule, id)
}

// Rules returns a snapshot of the registry in evaluation order.
func (e *Engine) Rules() []RuleInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]RuleInfo, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, RuleInfo{
			ID:          r.ID,
			Severity:    r.Severity,
			Description: r.Description,
			Enabled:     r.Enabled,
		})
	}
	return out
}

// =============================================================================
// Builtin rules
// =============================================================================

func defaultRules() []Rule {
	return []Rule{
		{
			ID:          RuleNegativeStats,
			Severity:    SeverityHigh,
			Description: "one or more stat values are negative",
			Enabled:     true,
			Check:       checkNegativeStats,
		},
		{
			ID:          RuleInvalidType,
			Severity:    SeverityMedium,
			Description: "record carries a type tag outside the known vocabulary",
			Enabled:     true,
			Check:       checkInvalidType,
		},
		{
			ID:          RuleMissingSprite,
			Severity:    SeverityLow,
			Description: "both sprite URLs are missing",
			Enabled:     true,
			Check:       checkMissingSprite,
		},
		{
			ID:          RuleExtremeStats,
			Severity:    SeverityMedium,
			Description: "a stat value exceeds the expected maximum",
			Enabled:     true,
			Check:       newExtremeStatsCheck(DefaultMaxStat),
		},
		{
			ID:          RuleMissingData,
			Severity:    SeverityHigh,
			Description: "record is missing stat dimensions or type tags",
			Enabled:     true,
			Check:       checkMissingData,
		},
	}
}

func checkNegativeStats(rec *catalog.Record) (string, map[string]any, bool) {
	negative := make(map[string]int)
	for name, v := range rec.Stats {
		if v < 0 {
			negative[name] = v
		}
	}
	if len(negative) == 0 {
		return "", nil, false
	}
	return fmt.Sprintf("pokemon %s has negative stat values", rec.Name),
		map[string]any{"negative_stats": negative}, true
}

func checkInvalidType(rec *catalog.Record) (string, map[string]any, bool) {
	var unknown []string
	for _, t := range rec.Types {
		if !catalog.IsKnownType(t) {
			unknown = append(unknown, t)
		}
	}
	if len(unknown) == 0 {
		return "", nil, false
	}
	return fmt.Sprintf("pokemon %s has unknown types: %s", rec.Name, strings.Join(unknown, ", ")),
		map[string]any{"unknown_types": unknown}, true
}

// A record with only one sprite still renders; the rule fires only when
// both references are empty.
func checkMissingSprite(rec *catalog.Record) (string, map[string]any, bool) {
	if rec.SpriteFront != "" || rec.SpriteBack != "" {
		return "", nil, false
	}
	return fmt.Sprintf("pokemon %s has no sprites", rec.Name),
		map[string]any{"sprite_front": "", "sprite_back": ""}, true
}

func newExtremeStatsCheck(maxStat int) CheckFunc {
	return func(rec *catalog.Record) (string, map[string]any, bool) {
		extreme := make(map[string]int)
		for name, v := range rec.Stats {
			if v > maxStat {
				extreme[name] = v
			}
		}
		if len(extreme) == 0 {
			return "", nil, false
		}
		return fmt.Sprintf("pokemon %s has stats above %d", rec.Name, maxStat),
			map[string]any{"extreme_stats": extreme, "max_stat": maxStat}, true
	}
}

func checkMissingData(rec *catalog.Record) (string, map[string]any, bool) {
	var missing []string
	for _, name := range catalog.StatNames {
		if _, ok := rec.Stats[name]; !ok {
			missing = append(missing, name)
		}
	}
	noTypes := len(rec.Types) == 0
	if len(missing) == 0 && !noTypes {
		return "", nil, false
	}

	details := make(map[string]any)
	if len(missing) > 0 {
		details["missing_stats"] = missing
	}
	if noTypes {
		details["no_types"] = true
	}
	return fmt.Sprintf("pokemon %s is missing required data", rec.Name), details, true
}
