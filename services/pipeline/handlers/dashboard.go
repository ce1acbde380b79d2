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

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/dashboard"
)

// DashboardSummary returns the full dashboard payload.
func DashboardSummary(agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := agg.Summarize(c.Request.Context())
		if err != nil {
			slog.Error("dashboard summary failed", "error", err)
			respondError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, err.Error())
			return
		}
		respondOK(c, http.StatusOK, "dashboard summary", summary)
	}
}

// DataQuality returns the quality report alone.
func DataQuality(agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := agg.Quality(c.Request.Context())
		if err != nil {
			slog.Error("quality report failed", "error", err)
			respondError(c, http.StatusServiceUnavailable, CodeStoreUnavailable, err.Error())
			return
		}
		respondOK(c, http.StatusOK, "data quality", report)
	}
}

// RecentActivity returns the merged event and alert feed.
func RecentActivity(agg *dashboard.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, 20)
		if !ok {
			return
		}
		feed := agg.RecentActivity(limit)
		respondList(c, "recent activity", feed, len(feed))
	}
}
