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
	"encoding/json"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// stdoutIsTTY gates all styling: piped output stays plain so pokectl
// composes with grep and jq.
var stdoutIsTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

var (
	styleTitle = lipgloss.NewStyle().Bold(true)
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
	styleBad   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	styleMuted = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

func render(style lipgloss.Style, s string) string {
	if !stdoutIsTTY {
		return s
	}
	return style.Render(s)
}

// levelStyle maps an alert level to its display style.
func levelStyle(level string) lipgloss.Style {
	switch level {
	case "critical":
		return styleBad
	case "warning":
		return styleWarn
	default:
		return styleOK
	}
}

// scoreStyle colors a 0-100 score by band.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 90:
		return styleOK
	case score >= 70:
		return styleWarn
	default:
		return styleBad
	}
}

// outputJSON writes indented JSON to stdout for scripting.
func outputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Fatalf("Failed to encode the output: %v", err)
	}
}
