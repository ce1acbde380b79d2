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

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND REGISTRATION TESTS
// =============================================================================

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "pokectl" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "pokectl")
	}
	if flag := rootCmd.PersistentFlags().Lookup("json"); flag == nil {
		t.Error("Persistent flag --json not registered")
	}
}

func TestSubcommandRegistration(t *testing.T) {
	expected := []string{
		"status", "stream", "simulate", "alerts", "quality", "summary", "pokemon",
	}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		if !registered[name] {
			t.Errorf("Command %q not registered on root", name)
		}
	}
}

// =============================================================================
// COMMAND FLAG TESTS
// =============================================================================

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		flag string
	}{
		{"alerts limit", alertsCmd, "limit"},
		{"alert test level", alertTestCmd, "level"},
		{"alert test message", alertTestCmd, "message"},
		{"simulate name", simulateCmd, "name"},
		{"pokemon list limit", pokemonListCmd, "limit"},
		{"export format", pokemonExportCmd, "format"},
		{"export output", pokemonExportCmd, "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if flag := tt.cmd.Flags().Lookup(tt.flag); flag == nil {
				t.Errorf("Flag %q not registered on %q", tt.flag, tt.cmd.Use)
			}
		})
	}
}

func TestCommandShortFlags(t *testing.T) {
	tests := []struct {
		name  string
		cmd   *cobra.Command
		short string
		long  string
	}{
		{"alerts", alertsCmd, "n", "limit"},
		{"alert test", alertTestCmd, "m", "message"},
		{"pokemon list", pokemonListCmd, "n", "limit"},
		{"export", pokemonExportCmd, "o", "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := tt.cmd.Flags().ShorthandLookup(tt.short)
			if flag == nil {
				t.Fatalf("Short flag -%s not registered on %q", tt.short, tt.cmd.Use)
			}
			if flag.Name != tt.long {
				t.Errorf("Short flag -%s maps to %q, want %q", tt.short, flag.Name, tt.long)
			}
		})
	}
}
