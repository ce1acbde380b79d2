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
	"github.com/gorilla/websocket"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// AlertHistory returns recent alerts, newest first.
func AlertHistory(sys *alerts.System) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c, 50)
		if !ok {
			return
		}
		history := sys.History(limit)
		respondList(c, "alert history", history, len(history))
	}
}

// AlertStats returns the alert summary.
func AlertStats(sys *alerts.System) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondOK(c, http.StatusOK, "alert stats", sys.Stats())
	}
}

// TestAlertRequest fires a synthetic alert.
type TestAlertRequest struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// TestAlert records a test alert at the requested level.
func TestAlert(sys *alerts.System) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TestAlertRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
			return
		}

		alert, err := sys.Test(alerts.Level(req.Level), req.Message)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		respondOK(c, http.StatusCreated, "test alert recorded", alert)
	}
}

// ClearAlerts empties the alert history.
func ClearAlerts(sys *alerts.System) gin.HandlerFunc {
	return func(c *gin.Context) {
		cleared := sys.Clear()
		slog.Info("alert history cleared", "count", cleared)
		respondOK(c, http.StatusOK, "alert history cleared", gin.H{"cleared": cleared})
	}
}

// AlertsFeed streams alerts over a websocket as they are recorded. The
// client gets the most recent alert on connect, then live updates until
// it disconnects.
func AlertsFeed(sys *alerts.System) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("alert feed client connected")

		if last := sys.Stats().LastAlert; last != nil {
			if err := sendJSON(ws, last); err != nil {
				return
			}
		}

		feed, cancel := sys.Subscribe()
		defer cancel()

		// Drain reads so client close frames are noticed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case alert, open := <-feed:
				if !open {
					return
				}
				if err := sendJSON(ws, alert); err != nil {
					return
				}
			case <-done:
				slog.Info("alert feed client disconnected")
				return
			}
		}
	}
}
