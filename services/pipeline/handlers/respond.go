// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP API of the pipeline service.
//
// Every endpoint answers with the same envelope: success flag, human
// message, optional data and total, and a machine-readable error code on
// failure. Domain errors map to stable codes so clients can branch
// without parsing messages.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"
)

// Machine-readable error codes.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationError  = "validation_error"
	CodeNotRunning       = "not_running"
	CodeNotFound         = "not_found"
	CodeInvalidLevel     = "invalid_level"
	CodeUnknownRule      = "unknown_rule"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternal         = "internal_error"
)

// Response is the API envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, message string, data any, total int) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data, Total: &total})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Success: false, Error: code, Message: message})
}

// respondDomainError translates pipeline errors into status plus code.
func respondDomainError(c *gin.Context, err error) {
	var verr *stream.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, stream.ErrNotRunning):
		respondError(c, http.StatusConflict, CodeNotRunning, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalidName):
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, rules.ErrUnknownRule):
		respondError(c, http.StatusBadRequest, CodeUnknownRule, err.Error())
	case errors.Is(err, alerts.ErrInvalidLevel):
		respondError(c, http.StatusBadRequest, CodeInvalidLevel, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}
