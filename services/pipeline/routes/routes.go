// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/dashboard"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/export"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/handlers"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"
)

// Deps carries everything the route table needs.
type Deps struct {
	Store      *catalog.Store
	Client     *catalog.Client
	Feeder     *catalog.Feeder
	Engine     *rules.Engine
	Processor  *stream.Processor
	Alerts     *alerts.System
	Aggregator *dashboard.Aggregator
	Exporter   *export.Exporter
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck(deps.Store, deps.Processor))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		streamGroup := v1.Group("/stream")
		{
			streamGroup.POST("/start", handlers.StartStream(deps.Processor))
			streamGroup.POST("/stop", handlers.StopStream(deps.Processor))
			streamGroup.GET("/status", handlers.StreamStatus(deps.Processor))
			streamGroup.GET("/events", handlers.StreamEvents(deps.Processor))
			streamGroup.POST("/ingest", handlers.IngestRecord(deps.Processor))
			streamGroup.POST("/simulate", handlers.SimulateAnomaly(deps.Processor))
		}

		alertGroup := v1.Group("/alerts")
		{
			alertGroup.GET("", handlers.AlertHistory(deps.Alerts))
			alertGroup.GET("/stats", handlers.AlertStats(deps.Alerts))
			alertGroup.POST("/test", handlers.TestAlert(deps.Alerts))
			alertGroup.DELETE("", handlers.ClearAlerts(deps.Alerts))
			alertGroup.GET("/ws", handlers.AlertsFeed(deps.Alerts))
		}

		dashboardGroup := v1.Group("/dashboard")
		{
			dashboardGroup.GET("/summary", handlers.DashboardSummary(deps.Aggregator))
			dashboardGroup.GET("/quality", handlers.DataQuality(deps.Aggregator))
			dashboardGroup.GET("/activity", handlers.RecentActivity(deps.Aggregator))
		}

		pokemonGroup := v1.Group("/pokemon")
		{
			pokemonGroup.GET("", handlers.ListPokemon(deps.Store))
			pokemonGroup.POST("", handlers.CreatePokemon(deps.Store))
			pokemonGroup.GET("/:name", handlers.GetPokemon(deps.Store))
			pokemonGroup.DELETE("/:name", handlers.DeletePokemon(deps.Store))
			pokemonGroup.POST("/fetch/:name", handlers.FetchPokemon(deps.Client, deps.Store))
			pokemonGroup.POST("/import", handlers.ImportPokemon(deps.Client, deps.Store))
		}

		ruleGroup := v1.Group("/rules")
		{
			ruleGroup.GET("", handlers.ListRules(deps.Engine))
			ruleGroup.PATCH("/:id", handlers.SetRuleEnabled(deps.Engine))
		}

		exportGroup := v1.Group("/export")
		{
			exportGroup.GET("/pokemon", handlers.ExportPokemon(deps.Exporter, deps.Store))
			exportGroup.POST("/alerts", handlers.ExportAlerts(deps.Exporter, deps.Alerts))
		}

		feederGroup := v1.Group("/feeder")
		{
			feederGroup.POST("/start", handlers.StartFeeder(deps.Feeder))
			feederGroup.POST("/stop", handlers.StopFeeder(deps.Feeder))
			feederGroup.GET("/status", handlers.FeederStatus(deps.Feeder))
		}
	}
}
