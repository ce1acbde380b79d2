// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export writes the record set and alert history to portable
// formats: CSV and JSON for records, JSONL appends for alerts.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
)

// RecordSource is the slice of the record store the exporter needs.
// *catalog.Store satisfies it.
type RecordSource interface {
	Scan(ctx context.Context, fn func(rec *catalog.Record) error) error
}

// csvHeader is the column layout of record CSV exports. Absent stat
// dimensions export as empty cells so they stay distinguishable from
// zero values.
var csvHeader = []string{
	"id", "name", "height", "weight", "base_experience",
	"types", "abilities",
	"hp", "attack", "defense", "special_attack", "special_defense", "speed",
	"sprite_front", "sprite_back",
	"created_at", "updated_at",
}

// Exporter writes exports under a base directory. The streaming Write*
// methods take any io.Writer, so HTTP handlers can export without
// touching disk.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

// NewExporter builds an exporter rooted at dir, creating it if needed.
func NewExporter(dir string, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Exporter{dir: dir, logger: logger}, nil
}

// Dir is the export base directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// WriteRecordsCSV streams every record to w as CSV and returns how many
// rows were written (excluding the header).
func (e *Exporter) WriteRecordsCSV(ctx context.Context, src RecordSource, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	count := 0
	err := src.Scan(ctx, func(rec *catalog.Record) error {
		if err := cw.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", rec.Name, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush csv: %w", err)
	}
	return count, nil
}

func csvRow(rec *catalog.Record) []string {
	row := []string{
		strconv.Itoa(rec.ID),
		rec.Name,
		strconv.Itoa(rec.Height),
		strconv.Itoa(rec.Weight),
		strconv.Itoa(rec.BaseExperience),
		strings.Join(rec.Types, "|"),
		strings.Join(rec.Abilities, "|"),
	}
	for _, name := range catalog.StatNames {
		if v, ok := rec.Stats[name]; ok {
			row = append(row, strconv.Itoa(v))
		} else {
			row = append(row, "")
		}
	}
	row = append(row,
		rec.SpriteFront,
		rec.SpriteBack,
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return row
}

// WriteRecordsJSON writes every record to w as one indented JSON array
// and returns how many records it contained.
func (e *Exporter) WriteRecordsJSON(ctx context.Context, src RecordSource, w io.Writer) (int, error) {
	var recs []*catalog.Record
	err := src.Scan(ctx, func(rec *catalog.Record) error {
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if recs == nil {
		recs = []*catalog.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return 0, fmt.Errorf("encode records: %w", err)
	}
	return len(recs), nil
}

// ExportRecords writes a timestamped CSV or JSON file under the export
// directory and returns its path and row count. Format is "csv" or
// "json".
func (e *Exporter) ExportRecords(ctx context.Context, src RecordSource, format string) (string, int, error) {
	format = strings.ToLower(format)
	if format != "csv" && format != "json" {
		return "", 0, fmt.Errorf("unsupported export format %q", format)
	}

	name := fmt.Sprintf("pokemon_%s.%s", time.Now().UTC().Format("20060102T150405Z"), format)
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	var count int
	if format == "csv" {
		count, err = e.WriteRecordsCSV(ctx, src, f)
	} else {
		count, err = e.WriteRecordsJSON(ctx, src, f)
	}
	if err != nil {
		return "", 0, err
	}

	e.logger.Info("records exported",
		slog.String("path", path),
		slog.Int("count", count))
	return path, count, nil
}

// AppendAlerts appends each alert as one JSON line to alerts.jsonl under
// the export directory, creating the file on first use. Returns the file
// path and how many lines were appended.
func (e *Exporter) AppendAlerts(alertList []alerts.Alert) (string, int, error) {
	path := filepath.Join(e.dir, "alerts.jsonl")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("open alert log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i, a := range alertList {
		if err := enc.Encode(a); err != nil {
			return path, i, fmt.Errorf("append alert %s: %w", a.ID, err)
		}
	}

	e.logger.Info("alerts appended",
		slog.String("path", path),
		slog.Int("count", len(alertList)))
	return path, len(alertList), nil
}
