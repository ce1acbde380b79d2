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
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"
)

// HealthCheck reports process and store health. A broken store turns
// the endpoint 503 so orchestrators restart or reroute.
func HealthCheck(store *catalog.Store, proc *stream.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		storeStatus := "ok"
		code := http.StatusOK
		if err := store.Health(c.Request.Context()); err != nil {
			status = "degraded"
			storeStatus = "unavailable"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":         status,
			"store":          storeStatus,
			"stream_running": proc.Running(),
		})
	}
}
