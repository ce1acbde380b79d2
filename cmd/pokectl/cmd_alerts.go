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
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// alertView mirrors one alert in API responses.
type alertView struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Source    string                 `json:"source"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

func printAlert(a alertView) {
	fmt.Printf("%s  %s  %s: %s\n",
		render(styleMuted, a.Timestamp.Local().Format("15:04:05")),
		render(levelStyle(a.Level), fmt.Sprintf("%-8s", strings.ToUpper(a.Level))),
		a.Title, a.Message)
}

func runAlertHistory(cmd *cobra.Command, args []string) {
	env := apiGet(fmt.Sprintf("/v1/alerts?limit=%d", limitFlag))

	var history []alertView
	decodeData(env, &history)

	if jsonOutput {
		outputJSON(history)
		return
	}
	if len(history) == 0 {
		fmt.Println("No alerts recorded.")
		return
	}
	for _, a := range history {
		printAlert(a)
	}
}

func runAlertTest(cmd *cobra.Command, args []string) {
	env := apiPost("/v1/alerts/test", map[string]string{
		"level":   alertLevel,
		"message": alertMessage,
	})

	var a alertView
	decodeData(env, &a)
	if jsonOutput {
		outputJSON(a)
		return
	}
	printAlert(a)
}

func runAlertWatch(cmd *cobra.Command, args []string) {
	base := getPipelineBaseURL()
	wsURL := strings.Replace(base, "http", "ws", 1) + "/v1/alerts/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to the alert feed at %s: %v", wsURL, err)
	}
	defer conn.Close()

	fmt.Println(render(styleMuted, "Watching alerts, press Ctrl+C to stop."))
	for {
		var a alertView
		if err := conn.ReadJSON(&a); err != nil {
			log.Fatalf("Alert feed closed: %v", err)
		}
		if jsonOutput {
			outputJSON(a)
			continue
		}
		printAlert(a)
	}
}
