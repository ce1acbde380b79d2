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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
)

// ListRules returns the registry in evaluation order.
func ListRules(engine *rules.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := engine.Rules()
		respondList(c, "anomaly rules", infos, len(infos))
	}
}

// RuleToggleRequest enables or disables one rule.
type RuleToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetRuleEnabled toggles a rule by id.
func SetRuleEnabled(engine *rules.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RuleToggleRequest
		if err := c.BindJSON(&req); err != nil || req.Enabled == nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "body must carry an enabled flag")
			return
		}

		id := c.Param("id")
		if err := engine.SetEnabled(id, *req.Enabled); err != nil {
			if errors.Is(err, rules.ErrUnknownRule) {
				respondError(c, http.StatusNotFound, CodeUnknownRule, err.Error())
				return
			}
			respondDomainError(c, err)
			return
		}

		slog.Info("rule toggled", "rule_id", id, "enabled", *req.Enabled)
		respondOK(c, http.StatusOK, "rule updated", gin.H{"id": id, "enabled": *req.Enabled})
	}
}
