// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STYLE MAPPING TESTS
// =============================================================================

func TestSeverityLevel(t *testing.T) {
	tests := []struct {
		severity string
		expected string
	}{
		{"high", "critical"},
		{"medium", "warning"},
		{"low", "info"},
		{"unknown", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			if got := severityLevel(tt.severity); got != tt.expected {
				t.Errorf("severityLevel(%q) = %q, want %q", tt.severity, got, tt.expected)
			}
		})
	}
}

func TestLevelStyle(t *testing.T) {
	tests := []struct {
		level    string
		expected lipgloss.TerminalColor
	}{
		{"critical", styleBad.GetForeground()},
		{"warning", styleWarn.GetForeground()},
		{"info", styleOK.GetForeground()},
		{"unknown", styleOK.GetForeground()},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := levelStyle(tt.level).GetForeground(); got != tt.expected {
				t.Errorf("levelStyle(%q) foreground = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestScoreStyle(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected lipgloss.TerminalColor
	}{
		{"high band", 95.0, styleOK.GetForeground()},
		{"ninety boundary", 90.0, styleOK.GetForeground()},
		{"middle band", 75.0, styleWarn.GetForeground()},
		{"seventy boundary", 70.0, styleWarn.GetForeground()},
		{"low band", 42.0, styleBad.GetForeground()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreStyle(tt.score).GetForeground(); got != tt.expected {
				t.Errorf("scoreStyle(%v) foreground = %v, want %v", tt.score, got, tt.expected)
			}
		})
	}
}

// =============================================================================
// RENDER GATING TESTS
// =============================================================================

func TestRenderPlainWhenPiped(t *testing.T) {
	orig := stdoutIsTTY
	stdoutIsTTY = false
	defer func() { stdoutIsTTY = orig }()

	if got := render(styleBad, "critical"); got != "critical" {
		t.Errorf("render() = %q, want unstyled %q", got, "critical")
	}
}
