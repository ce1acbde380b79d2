// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard computes monitoring views over the record store, the
// stream processor and the alert system.
//
// The aggregator holds no state and takes no locks of its own: it reads
// point-in-time snapshots from each source, so a summary is eventually
// consistent across them rather than transactional. That is fine for a
// monitoring surface.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/alerts"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/observability"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/stream"
)

var tracer = otel.Tracer("pipeline/dashboard")

// topRankSize is how many entries the stat ranking carries.
const topRankSize = 5

// RecordSource is the slice of the record store the aggregator needs.
// *catalog.Store satisfies it.
type RecordSource interface {
	Scan(ctx context.Context, fn func(rec *catalog.Record) error) error
	Count(ctx context.Context) (int, error)
}

// StreamSource exposes processor snapshots. *stream.Processor satisfies it.
type StreamSource interface {
	Status() stream.Status
	Events(limit int) []stream.Event
}

// AlertSource exposes alert snapshots. *alerts.System satisfies it.
type AlertSource interface {
	Stats() alerts.Stats
	History(limit int) []alerts.Alert
}

// Evaluator re-runs the anomaly rules for the accuracy score.
// *rules.Engine satisfies it.
type Evaluator interface {
	Evaluate(rec *catalog.Record) []rules.Finding
}

// QualityReport scores the current record set.
//
// Validity per record is the logical AND of: positive id, non-empty
// name, all six stat dimensions present and non-negative, and at least
// one type tag. Completeness is the share of records with both sprite
// references populated, accuracy the share with no rule findings on a
// fresh evaluation, consistency the share whose type tags are all in the
// known vocabulary. All shares are on a 0-100 scale and the quality
// score is their arithmetic mean. An empty store scores zero across the
// board.
type QualityReport struct {
	TotalRecords   int     `json:"total_records"`
	ValidRecords   int     `json:"valid_records"`
	InvalidRecords int     `json:"invalid_records"`
	Completeness   float64 `json:"completeness"`
	Accuracy       float64 `json:"accuracy"`
	Consistency    float64 `json:"consistency"`
	QualityScore   float64 `json:"quality_score"`
}

// RankEntry is one row of the stat ranking.
type RankEntry struct {
	Name  string `json:"name"`
	Total int    `json:"total_stats"`
}

// PokemonStats groups the record set for display.
type PokemonStats struct {
	Total        int            `json:"total"`
	ByType       map[string]int `json:"by_type"`
	ByGeneration map[string]int `json:"by_generation"`
	TopByStats   []RankEntry    `json:"top_by_stats"`
}

// ProcessingStats echoes the processor counters plus the alert total.
type ProcessingStats struct {
	TotalProcessed    int64 `json:"total_processed"`
	AnomaliesDetected int64 `json:"anomalies_detected"`
	AlertsSent        int64 `json:"alerts_sent"`
	ErrorCount        int64 `json:"error_count"`
	AlertsGenerated   int   `json:"alerts_generated"`
}

// Summary is the full dashboard payload.
type Summary struct {
	GeneratedAt     time.Time       `json:"generated_at"`
	DataQuality     QualityReport   `json:"data_quality"`
	PokemonStats    PokemonStats    `json:"pokemon_stats"`
	ProcessingStats ProcessingStats `json:"processing_stats"`
}

// Activity is one row of the recent activity feed.
type Activity struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail"`
}

// =============================================================================
// Aggregator
// =============================================================================

// Aggregator computes dashboard views.
type Aggregator struct {
	records RecordSource
	stream  StreamSource
	alerts  AlertSource
	eval    Evaluator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAggregator wires an aggregator over its three sources and the rule
// engine used for live accuracy scoring.
func NewAggregator(records RecordSource, str StreamSource, al AlertSource, eval Evaluator, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		records: records,
		stream:  str,
		alerts:  al,
		eval:    eval,
		logger:  logger,
		metrics: observability.Default(),
	}
}

// scanTotals carries everything a single store scan produces.
type scanTotals struct {
	total        int
	valid        int
	complete     int
	accurate     int
	consistent   int
	byType       map[string]int
	byGeneration map[string]int
	ranked       []RankEntry
}

func (a *Aggregator) collect(ctx context.Context) (scanTotals, error) {
	totals := scanTotals{
		byType:       make(map[string]int),
		byGeneration: make(map[string]int),
	}

	err := a.records.Scan(ctx, func(rec *catalog.Record) error {
		totals.total++

		if recordValid(rec) {
			totals.valid++
		}
		if rec.SpriteFront != "" && rec.SpriteBack != "" {
			totals.complete++
		}
		if len(a.eval.Evaluate(rec)) == 0 {
			totals.accurate++
		}
		if typesConsistent(rec) {
			totals.consistent++
		}

		for _, t := range rec.Types {
			totals.byType[t]++
		}
		totals.byGeneration[catalog.Generation(rec.ID)]++
		totals.ranked = append(totals.ranked, RankEntry{Name: rec.Name, Total: rec.TotalStats()})
		return nil
	})
	if err != nil {
		return scanTotals{}, err
	}
	return totals, nil
}

// recordValid applies the validity rule: positive id, non-empty name,
// all six stats present and non-negative, at least one type.
func recordValid(rec *catalog.Record) bool {
	if rec.ID <= 0 || rec.Name == "" {
		return false
	}
	for _, name := range catalog.StatNames {
		v, ok := rec.Stats[name]
		if !ok || v < 0 {
			return false
		}
	}
	return len(rec.Types) > 0
}

func typesConsistent(rec *catalog.Record) bool {
	for _, t := range rec.Types {
		if !catalog.IsKnownType(t) {
			return false
		}
	}
	return true
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func (t scanTotals) quality() QualityReport {
	report := QualityReport{
		TotalRecords:   t.total,
		ValidRecords:   t.valid,
		InvalidRecords: t.total - t.valid,
		Completeness:   pct(t.complete, t.total),
		Accuracy:       pct(t.accurate, t.total),
		Consistency:    pct(t.consistent, t.total),
	}
	report.QualityScore = (report.Completeness + report.Accuracy + report.Consistency) / 3
	return report
}

// Quality scans the store once and scores it.
func (a *Aggregator) Quality(ctx context.Context) (QualityReport, error) {
	ctx, span := tracer.Start(ctx, "dashboard.quality")
	defer span.End()

	totals, err := a.collect(ctx)
	if err != nil {
		return QualityReport{}, err
	}

	report := totals.quality()
	span.SetAttributes(
		attribute.Int("records.total", report.TotalRecords),
		attribute.Float64("quality.score", report.QualityScore),
	)
	a.metrics.QualityScore.Set(report.QualityScore)
	a.metrics.StoreRecords.Set(float64(report.TotalRecords))
	return report, nil
}

// Summarize builds the full dashboard payload from one store scan plus
// snapshots of the processor and alert system.
func (a *Aggregator) Summarize(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "dashboard.summarize")
	defer span.End()

	totals, err := a.collect(ctx)
	if err != nil {
		return Summary{}, err
	}

	quality := totals.quality()
	a.metrics.QualityScore.Set(quality.QualityScore)
	a.metrics.StoreRecords.Set(float64(quality.TotalRecords))

	sort.SliceStable(totals.ranked, func(i, j int) bool {
		return totals.ranked[i].Total > totals.ranked[j].Total
	})
	top := totals.ranked
	if len(top) > topRankSize {
		top = top[:topRankSize]
	}

	status := a.stream.Status()
	alertStats := a.alerts.Stats()

	return Summary{
		GeneratedAt: time.Now().UTC(),
		DataQuality: quality,
		PokemonStats: PokemonStats{
			Total:        totals.total,
			ByType:       totals.byType,
			ByGeneration: totals.byGeneration,
			TopByStats:   top,
		},
		ProcessingStats: ProcessingStats{
			TotalProcessed:    status.Processed,
			AnomaliesDetected: status.Anomalies,
			AlertsSent:        status.AlertsSent,
			ErrorCount:        status.Errors,
			AlertsGenerated:   alertStats.Total,
		},
	}, nil
}

// RecentActivity merges the newest stream events and alerts into one
// feed, newest first, capped at limit. It touches no storage.
func (a *Aggregator) RecentActivity(limit int) []Activity {
	if limit <= 0 {
		limit = 20
	}

	var feed []Activity
	for _, ev := range a.stream.Events(limit) {
		act := Activity{
			Type:      "event",
			Timestamp: ev.Timestamp,
			Title:     "processed " + ev.Name,
		}
		if len(ev.Findings) > 0 {
			act.Detail = ev.Findings[0].Description
		}
		feed = append(feed, act)
	}
	for _, al := range a.alerts.History(limit) {
		feed = append(feed, Activity{
			Type:      "alert",
			Timestamp: al.Timestamp,
			Title:     al.Title,
			Detail:    al.Message,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}
