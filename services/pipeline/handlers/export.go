// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/export"
)

// ExportPokemon streams the record set as a CSV or JSON download.
// This endpoint writes raw file content, not the JSON envelope.
func ExportPokemon(exporter *export.Exporter, store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := strings.ToLower(c.DefaultQuery("format", "csv"))

		stamp := time.Now().UTC().Format("20060102T150405Z")
		filename := fmt.Sprintf("pokemon_%s.%s", stamp, format)

		var err error
		switch format {
		case "csv":
			c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
			c.Header("Content-Type", "text/csv")
			_, err = exporter.WriteRecordsCSV(c.Request.Context(), store, c.Writer)
		case "json":
			c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
			c.Header("Content-Type", "application/json")
			_, err = exporter.WriteRecordsJSON(c.Request.Context(), store, c.Writer)
		default:
			respondError(c, http.StatusBadRequest, CodeBadRequest, "format must be csv or json")
			return
		}
		if err != nil {
			// Headers may already be out; all we can do is log and drop.
			slog.Error("pokemon export failed", "format", format, "error", err)
		}
	}
}

// ExportAlerts appends the current alert history to the JSONL alert log
// on disk and reports where it landed.
func ExportAlerts(exporter *export.Exporter, sys *alerts.System) gin.HandlerFunc {
	return func(c *gin.Context) {
		history := sys.History(0)

		path, n, err := exporter.AppendAlerts(history)
		if err != nil {
			slog.Error("alert export failed", "error", err)
			respondError(c, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		respondOK(c, http.StatusOK, "alerts exported", gin.H{"path": path, "count": n})
	}
}
