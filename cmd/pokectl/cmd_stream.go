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
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// streamStatus mirrors the /v1/stream/status payload.
type streamStatus struct {
	Running       bool       `json:"running"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	LastProcessed *time.Time `json:"last_processed,omitempty"`
	Processed     int64      `json:"total_processed"`
	Anomalies     int64      `json:"anomalies_detected"`
	AlertsSent    int64      `json:"alerts_sent"`
	Errors        int64      `json:"error_count"`
	EventCount    int        `json:"event_count"`
	EventsDropped int64      `json:"events_dropped"`
}

// finding mirrors one rule finding in simulate and ingest responses.
type finding struct {
	RuleID      string `json:"rule_id"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

func runStatus(cmd *cobra.Command, args []string) {
	healthRaw, healthCode := apiGetRaw("/health")
	var health struct {
		Status string `json:"status"`
		Store  string `json:"store"`
	}
	_ = json.Unmarshal(healthRaw, &health)

	env := apiGet("/v1/stream/status")
	var status streamStatus
	decodeData(env, &status)

	if jsonOutput {
		outputJSON(map[string]interface{}{
			"health": json.RawMessage(healthRaw),
			"stream": status,
		})
		return
	}

	storeLine := render(styleOK, health.Store)
	if healthCode != http.StatusOK || health.Store != "ok" {
		storeLine = render(styleBad, health.Store)
	}

	streamLine := render(styleMuted, "stopped")
	if status.Running {
		streamLine = render(styleOK, "running")
		if status.StartedAt != nil {
			streamLine += render(styleMuted,
				fmt.Sprintf(" since %s", status.StartedAt.Format(time.RFC3339)))
		}
	}

	fmt.Println(render(styleTitle, "Pokemon Pipeline"))
	fmt.Printf("  store:     %s\n", storeLine)
	fmt.Printf("  stream:    %s\n", streamLine)
	fmt.Printf("  processed: %d (%d anomalous, %d errors)\n",
		status.Processed, status.Anomalies, status.Errors)
	fmt.Printf("  alerts:    %d sent\n", status.AlertsSent)
	fmt.Printf("  events:    %d retained, %d dropped\n",
		status.EventCount, status.EventsDropped)
}

func runStreamStart(cmd *cobra.Command, args []string) {
	env := apiPost("/v1/stream/start", nil)
	fmt.Println(env.Message)
}

func runStreamStop(cmd *cobra.Command, args []string) {
	env := apiPost("/v1/stream/stop", nil)
	fmt.Println(env.Message)
}

func runSimulate(cmd *cobra.Command, args []string) {
	ruleID := ""
	if len(args) == 1 {
		ruleID = args[0]
	}

	env := apiPost("/v1/stream/simulate", map[string]string{
		"name":    simulateName,
		"rule_id": ruleID,
	})

	var payload struct {
		Record struct {
			Name string `json:"name"`
			ID   int    `json:"id"`
		} `json:"record"`
		Findings []finding `json:"findings"`
	}
	decodeData(env, &payload)

	if jsonOutput {
		outputJSON(payload)
		return
	}

	fmt.Printf("Injected %s (id %d), %d finding(s):\n",
		payload.Record.Name, payload.Record.ID, len(payload.Findings))
	for _, f := range payload.Findings {
		fmt.Printf("  %s %s: %s\n",
			render(levelStyle(severityLevel(f.Severity)), fmt.Sprintf("%-8s", f.Severity)),
			f.RuleID, f.Description)
	}
}

// severityLevel maps rule severities onto alert level names so both
// share one color scheme.
func severityLevel(severity string) string {
	switch severity {
	case "high":
		return "critical"
	case "medium":
		return "warning"
	default:
		return "info"
	}
}
