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
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// qualityView mirrors the /v1/dashboard/quality payload.
type qualityView struct {
	TotalRecords   int     `json:"total_records"`
	ValidRecords   int     `json:"valid_records"`
	InvalidRecords int     `json:"invalid_records"`
	Completeness   float64 `json:"completeness"`
	Accuracy       float64 `json:"accuracy"`
	Consistency    float64 `json:"consistency"`
	QualityScore   float64 `json:"quality_score"`
}

// summaryView mirrors the /v1/dashboard/summary payload.
type summaryView struct {
	DataQuality  qualityView `json:"data_quality"`
	PokemonStats struct {
		Total        int            `json:"total"`
		ByType       map[string]int `json:"by_type"`
		ByGeneration map[string]int `json:"by_generation"`
		TopByStats   []struct {
			Name  string `json:"name"`
			Total int    `json:"total_stats"`
		} `json:"top_by_stats"`
	} `json:"pokemon_stats"`
	ProcessingStats struct {
		TotalProcessed    int64 `json:"total_processed"`
		AnomaliesDetected int64 `json:"anomalies_detected"`
		AlertsSent        int64 `json:"alerts_sent"`
		ErrorCount        int64 `json:"error_count"`
		AlertsGenerated   int   `json:"alerts_generated"`
	} `json:"processing_stats"`
}

func printQuality(q qualityView) {
	fmt.Println(render(styleTitle, "Data Quality"))
	fmt.Printf("  records:      %d (%d valid, %d invalid)\n",
		q.TotalRecords, q.ValidRecords, q.InvalidRecords)
	fmt.Printf("  completeness: %.1f%%\n", q.Completeness)
	fmt.Printf("  accuracy:     %.1f%%\n", q.Accuracy)
	fmt.Printf("  consistency:  %.1f%%\n", q.Consistency)
	fmt.Printf("  score:        %s\n",
		render(scoreStyle(q.QualityScore), fmt.Sprintf("%.1f", q.QualityScore)))
}

func runQuality(cmd *cobra.Command, args []string) {
	env := apiGet("/v1/dashboard/quality")

	var q qualityView
	decodeData(env, &q)

	if jsonOutput {
		outputJSON(q)
		return
	}
	printQuality(q)
}

func runSummary(cmd *cobra.Command, args []string) {
	env := apiGet("/v1/dashboard/summary")

	var s summaryView
	decodeData(env, &s)

	if jsonOutput {
		outputJSON(s)
		return
	}

	printQuality(s.DataQuality)

	fmt.Println(render(styleTitle, "Pokemon"))
	fmt.Printf("  stored: %d\n", s.PokemonStats.Total)
	if len(s.PokemonStats.ByGeneration) > 0 {
		gens := make([]string, 0, len(s.PokemonStats.ByGeneration))
		for gen := range s.PokemonStats.ByGeneration {
			gens = append(gens, gen)
		}
		sort.Strings(gens)
		parts := make([]string, 0, len(gens))
		for _, gen := range gens {
			parts = append(parts, fmt.Sprintf("%s: %d", gen, s.PokemonStats.ByGeneration[gen]))
		}
		fmt.Printf("  by generation: %s\n", strings.Join(parts, ", "))
	}
	for i, entry := range s.PokemonStats.TopByStats {
		fmt.Printf("  #%d %s (%d)\n", i+1, entry.Name, entry.Total)
	}

	fmt.Println(render(styleTitle, "Processing"))
	fmt.Printf("  processed: %d (%d anomalous, %d errors)\n",
		s.ProcessingStats.TotalProcessed,
		s.ProcessingStats.AnomaliesDetected,
		s.ProcessingStats.ErrorCount)
	fmt.Printf("  alerts:    %d sent, %d retained\n",
		s.ProcessingStats.AlertsSent, s.ProcessingStats.AlertsGenerated)
}
