// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleOverride tunes one registered rule from configuration. Nil fields
// leave the current value untouched.
type RuleOverride struct {
	Enabled *bool `yaml:"enabled"`
	MaxStat *int  `yaml:"max_stat"`
}

// Overrides is the on-disk rule configuration, keyed by rule id.
//
//	rules:
//	  extreme_stats:
//	    enabled: true
//	    max_stat: 300
//	  missing_sprite:
//	    enabled: false
type Overrides struct {
	Rules map[string]RuleOverride `yaml:"rules"`
}

// LoadOverrides parses a rule override file.
func LoadOverrides(path string) (Overrides, error) {
	var out Overrides

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read rule overrides: %w", err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parse rule overrides: %w", err)
	}
	return out, nil
}

// Reconfigure applies overrides to the registry. Unknown rule ids are
// logged and skipped; thresholds only apply to rules that have one.
// Evaluation order is never affected.
func (e *Engine) Reconfigure(o Overrides) {
	e.mu.Lock()
	defer e.mu.Unlock()

	known := make(map[string]struct{}, len(e.rules))
	for i := range e.rules {
		known[e.rules[i].ID] = struct{}{}

		ov, ok := o.Rules[e.rules[i].ID]
		if !ok {
			continue
		}
		if ov.MaxStat != nil && e.rules[i].ID == RuleExtremeStats {
			e.rules[i].Check = newExtremeStatsCheck(*ov.MaxStat)
		}
		if ov.Enabled != nil {
			e.rules[i].Enabled = *ov.Enabled
		}
	}

	for id := range o.Rules {
		if _, ok := known[id]; !ok {
			e.logger.Warn("rule override ignores unknown rule", slog.String("rule_id", id))
		}
	}
}

// ReconfigureFromFile loads and applies a rule override file in one step.
func (e *Engine) ReconfigureFromFile(path string) error {
	o, err := LoadOverrides(path)
	if err != nil {
		return err
	}
	e.Reconfigure(o)
	return nil
}
