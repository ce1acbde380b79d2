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
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// recordView mirrors the stored record fields the CLI displays.
type recordView struct {
	ID    int            `json:"id"`
	Name  string         `json:"name"`
	Types []string       `json:"types"`
	Stats map[string]int `json:"stats"`
}

func (r recordView) totalStats() int {
	total := 0
	for _, v := range r.Stats {
		total += v
	}
	return total
}

func runPokemonList(cmd *cobra.Command, args []string) {
	env := apiGet(fmt.Sprintf("/v1/pokemon?limit=%d", limitFlag))

	var records []recordView
	decodeData(env, &records)

	if jsonOutput {
		outputJSON(records)
		return
	}
	if len(records) == 0 {
		fmt.Println("No records stored.")
		return
	}

	total := 0
	if env.Total != nil {
		total = *env.Total
	}
	fmt.Println(render(styleTitle, fmt.Sprintf("%-6s %-20s %-20s %s", "ID", "NAME", "TYPES", "STATS")))
	for _, r := range records {
		fmt.Printf("%-6d %-20s %-20s %d\n",
			r.ID, r.Name, strings.Join(r.Types, "/"), r.totalStats())
	}
	fmt.Println(render(styleMuted, fmt.Sprintf("showing %d of %d", len(records), total)))
}

func runPokemonFetch(cmd *cobra.Command, args []string) {
	name := url.PathEscape(strings.ToLower(args[0]))
	env := apiPost("/v1/pokemon/fetch/"+name, nil)

	var rec recordView
	decodeData(env, &rec)
	if jsonOutput {
		outputJSON(rec)
		return
	}
	fmt.Printf("Fetched %s (id %d, %s)\n", rec.Name, rec.ID, strings.Join(rec.Types, "/"))
}

func runPokemonImport(cmd *cobra.Command, args []string) {
	first, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("Invalid first id %q: %v", args[0], err)
	}
	last, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("Invalid last id %q: %v", args[1], err)
	}

	fmt.Printf("Importing ids %d through %d, this honors the upstream rate limit...\n", first, last)
	env := apiPost("/v1/pokemon/import", map[string]int{"first": first, "last": last})

	var result struct {
		Imported int `json:"imported"`
		Failed   int `json:"failed"`
	}
	decodeData(env, &result)

	if jsonOutput {
		outputJSON(result)
		return
	}
	fmt.Printf("Imported %d record(s), %d failed.\n", result.Imported, result.Failed)
}

func runPokemonExport(cmd *cobra.Command, args []string) {
	format := strings.ToLower(exportFormat)
	if format != "csv" && format != "json" {
		log.Fatalf("Unsupported format %q: use csv or json", exportFormat)
	}

	raw, code := apiGetRaw("/v1/export/pokemon?format=" + format)
	if code != http.StatusOK {
		log.Fatalf("Export failed (status %d): %s", code, string(raw))
	}

	if exportOutput == "" {
		os.Stdout.Write(raw)
		return
	}
	if err := os.WriteFile(exportOutput, raw, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", exportOutput, err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(raw), exportOutput)
}
