// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for pipeline components.
//
// The package is a thin layer over Go's standard slog: it parses a level
// string, picks a JSON or text handler, and stamps every record with the
// service name so multi-service deployments can tell log streams apart.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{Service: "pipeline", Level: "info", JSON: true})
//	logger.Info("stream started", "interval", interval)
//
// Services normally install the logger process-wide once at startup:
//
//	logging.SetDefault(logging.Config{Service: "pipeline", Level: os.Getenv("LOG_LEVEL"), JSON: true})
//
// # Thread Safety
//
// The returned *slog.Logger is safe for concurrent use.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// =============================================================================
// Configuration
// =============================================================================

// Config controls handler selection and filtering.
type Config struct {
	// Service is attached to every record as the "service" attribute.
	Service string

	// Level is the minimum level to emit: "debug", "info", "warn", "error".
	// Unknown or empty values fall back to "info".
	Level string

	// JSON selects the JSON handler; false selects the text handler.
	// Deployed services log JSON to stdout, tests and CLIs usually text.
	JSON bool

	// Output overrides the destination. Nil means os.Stdout.
	Output io.Writer
}

// ParseLevel maps a level string to a slog.Level.
//
// Matching is case-insensitive; unknown values return slog.LevelInfo so a
// typo in LOG_LEVEL never silences a service.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Construction
// =============================================================================

// New builds a logger from cfg.
//
// # Inputs
//
//   - cfg: handler selection, level, service name, optional output.
//
// # Outputs
//
//   - *slog.Logger: ready to use, never nil.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return logger
}

// SetDefault builds a logger from cfg and installs it as the process-wide
// slog default, then returns it.
func SetDefault(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}
