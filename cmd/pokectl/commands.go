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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	jsonOutput   bool
	limitFlag    int
	simulateName string
	alertLevel   string
	alertMessage string
	exportFormat string
	exportOutput string

	rootCmd = &cobra.Command{
		Use:   "pokectl",
		Short: "A cli to drive the pokemon data pipeline",
		Long: `Pokectl talks to a running pokemon-pipeline service: it controls
the stream processor, injects synthetic anomalies, inspects alerts and
data quality, and manages the stored record set.`,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show pipeline health and stream counters",
		Run:   runStatus, // Defined in cmd_stream.go
	}

	// --- Stream Control ---
	streamCmd = &cobra.Command{
		Use:   "stream",
		Short: "Control the stream processor",
	}
	streamStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the stream processor",
		Run:   runStreamStart, // Defined in cmd_stream.go
	}
	streamStopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the stream processor, keeping its counters",
		Run:   runStreamStop, // Defined in cmd_stream.go
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate [rule_id]",
		Short: "Inject a synthetic anomaly that trips the given rule",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSimulate, // Defined in cmd_stream.go
	}

	// --- Alerts ---
	alertsCmd = &cobra.Command{
		Use:   "alerts",
		Short: "Show recent alerts, newest first",
		Run:   runAlertHistory, // Defined in cmd_alerts.go
	}
	alertTestCmd = &cobra.Command{
		Use:   "test",
		Short: "Record a test alert at the given level",
		Run:   runAlertTest, // Defined in cmd_alerts.go
	}
	alertWatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Stream alerts live until interrupted",
		Run:   runAlertWatch, // Defined in cmd_alerts.go
	}

	// --- Dashboard ---
	qualityCmd = &cobra.Command{
		Use:   "quality",
		Short: "Show the data quality report for the stored records",
		Run:   runQuality, // Defined in cmd_dashboard.go
	}
	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Show the full dashboard summary",
		Run:   runSummary, // Defined in cmd_dashboard.go
	}

	// --- Record Management ---
	pokemonCmd = &cobra.Command{
		Use:   "pokemon",
		Short: "Manage the stored pokemon records",
	}
	pokemonListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored records in name order",
		Run:   runPokemonList, // Defined in cmd_data.go
	}
	pokemonFetchCmd = &cobra.Command{
		Use:   "fetch [name]",
		Short: "Fetch one pokemon from the upstream catalog into the store",
		Args:  cobra.ExactArgs(1),
		Run:   runPokemonFetch, // Defined in cmd_data.go
	}
	pokemonImportCmd = &cobra.Command{
		Use:   "import [first] [last]",
		Short: "Import an inclusive id range from the upstream catalog",
		Args:  cobra.ExactArgs(2),
		Run:   runPokemonImport, // Defined in cmd_data.go
	}
	pokemonExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Download the record set as CSV or JSON",
		Run:   runPokemonExport, // Defined in cmd_data.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output raw JSON for scripting")

	rootCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(streamCmd)
	streamCmd.AddCommand(streamStartCmd)
	streamCmd.AddCommand(streamStopCmd)

	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simulateName, "name", "",
		"Name for the synthetic record (default missingno)")

	rootCmd.AddCommand(alertsCmd)
	alertsCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum alerts to show")
	alertsCmd.AddCommand(alertTestCmd)
	alertTestCmd.Flags().StringVar(&alertLevel, "level", "info",
		"Alert level: info, warning, critical")
	alertTestCmd.Flags().StringVarP(&alertMessage, "message", "m", "", "Alert message")
	alertsCmd.AddCommand(alertWatchCmd)

	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(summaryCmd)

	rootCmd.AddCommand(pokemonCmd)
	pokemonCmd.AddCommand(pokemonListCmd)
	pokemonListCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum records to show")
	pokemonCmd.AddCommand(pokemonFetchCmd)
	pokemonCmd.AddCommand(pokemonImportCmd)
	pokemonCmd.AddCommand(pokemonExportCmd)
	pokemonExportCmd.Flags().StringVar(&exportFormat, "format", "csv",
		"Export format: csv or json")
	pokemonExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"Write to a file instead of stdout")
}
