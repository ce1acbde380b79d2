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
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"
)

// parseLimit reads a ?limit= query value. Missing means def; garbage is
// a bad request signalled by ok=false (the handler responds).
func parseLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
		return 0, false
	}
	return limit, true
}

// StartStream starts the processor. Starting a running stream is a
// no-op, reported in the message.
func StartStream(proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := proc.Start()
		msg := "stream processor started"
		if !started {
			msg = "stream processor already running"
		}
		respondOK(c, http.StatusOK, msg, gin.H{"running": true, "started": started})
	}
}

// StopStream stops the processor. Stopping a stopped stream is a no-op.
func StopStream(proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		stopped := proc.Stop()
		msg := "stream processor stopped"
		if !stopped {
			msg = "stream processor already stopped"
		}
		respondOK(c, http.StatusOK, msg, gin.H{"running": false, "stopped": stopped})
	}
}

// StreamStatus returns the processor snapshot.
func StreamStatus(proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, "stream status", proc.Status())
	}
}

// StreamEvents returns recent events, newest first.
func StreamEvents(proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, 50)
		if !ok {
			return
		}
		events := proc.Events(limit)
		respondList(c, "recent events", events, len(events))
	}
}

// IngestRecord pushes one record through the stream.
func IngestRecord(proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec catalog.Record
		if err := c.BindJSON(&rec); err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
			return
		}
		rec.Normalize()

		findings, err := proc.Ingest(c.Request.Context(), &rec)
		if err != nil {
			respondDomainError(c, err)
			return
		}

		respondOK(c, http.StatusOK, "record processed", gin.H{
			"pokemon":  rec.Name,
			"findings": findings,
		})
	}
}

// SimulateRequest selects an anomaly scenario.
type SimulateRequest struct {
	Name   string `json:"name"`
	RuleID string `json:"rule_id"`
}

// SimulateAnomaly injects a synthetic record that trips the requested
// rule and reports what the engine raised.
func SimulateAnomaly(proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SimulateRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
			return
		}

		rec, findings, err := proc.Simulate(c.Request.Context(), req.Name, req.RuleID)
		if err != nil {
			respondDomainError(c, err)
			return
		}

		slog.Info("anomaly simulated", "pokemon", rec.Name, "findings", len(findings))
		respondOK(c, http.StatusOK, "anomaly simulated", gin.H{
			"record":   rec,
			"findings": findings,
		})
	}
}
