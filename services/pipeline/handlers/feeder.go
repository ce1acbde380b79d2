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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
)

// StartFeeder turns the background feeder on.
func StartFeeder(feeder *catalog.Feeder) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := feeder.Start()
		msg := "feeder started"
		if !started {
			msg = "feeder already running"
		}
		respondOK(c, http.StatusOK, msg, gin.H{"running": true, "started": started})
	}
}

// StopFeeder turns the background feeder off.
func StopFeeder(feeder *catalog.Feeder) gin.HandlerFunc {
	return func(c *gin.Context) {
		stopped := feeder.Stop()
		msg := "feeder stopped"
		if !stopped {
			msg = "feeder already stopped"
		}
		respondOK(c, http.StatusOK, msg, gin.H{"running": false, "stopped": stopped})
	}
}

// FeederStatus reports whether the feeder loop is active.
func FeederStatus(feeder *catalog.Feeder) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, "feeder status", gin.H{"running": feeder.Running()})
	}
}
