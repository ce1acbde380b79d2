// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stream implements the record stream processor.
//
// The processor is the hot path of the pipeline: every record flows
// through Ingest, which validates identity, runs the anomaly rules, logs
// an event into a bounded in-memory log, and forwards findings to the
// alert sink. Counters are monotonic for the lifetime of the process;
// stopping and restarting the stream never resets them.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/UFG-Pos/pokemon-data/services/pipeline/catalog"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/observability"
	"github.com/UFG-Pos/pokemon-data/services/pipeline/rules"
)

var tracer = otel.Tracer("pipeline/stream")

// DefaultEventLogSize bounds the in-memory event log.
const DefaultEventLogSize = 1000

// ErrNotRunning is returned when a record is offered to a stopped stream.
var ErrNotRunning = errors.New("stream processor is not running")

// ValidationError reports a record that failed identity validation.
// These increment the processor's error counter.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return "invalid record: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AlertSink receives findings the processor raises. The alerts package
// provides the production implementation.
type AlertSink interface {
	RecordFinding(rec *catalog.Record, f rules.Finding)
}

// Event is one processed record as remembered by the event log.
// Treat returned events as read only.
type Event struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	PokemonID      int             `json:"pokemon_id"`
	Name           string          `json:"name"`
	AnomaliesFound int             `json:"anomalies_found"`
	Findings       []rules.Finding `json:"findings,omitempty"`
}

// Anomalous reports whether the event carried any findings.
func (e Event) Anomalous() bool {
	return e.AnomaliesFound > 0
}

// Status is a point-in-time snapshot of the processor.
type Status struct {
	Running       bool       `json:"running"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	LastProcessed *time.Time `json:"last_processed,omitempty"`
	Processed     int64      `json:"total_processed"`
	Anomalies     int64      `json:"anomalies_detected"`
	AlertsSent    int64      `json:"alerts_sent"`
	Errors        int64      `json:"error_count"`
	EventCount    int        `json:"event_count"`
	EventsDropped int64      `json:"events_dropped"`
}

// Config tunes a processor.
type Config struct {
	// EventLogSize bounds the event log. Defaults to DefaultEventLogSize.
	EventLogSize int

	// Logger for ingest activity. Nil uses slog.Default.
	Logger *slog.Logger
}

// =============================================================================
// Processor
// =============================================================================

// Processor runs records through the rule engine and keeps the stream
// state: lifecycle flag, monotonic counters and the bounded event log.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Rule evaluation runs outside
// the processor lock, so slow rules never serialize status reads. A
// record admitted while running is fully processed even if Stop lands
// concurrently.
type Processor struct {
	engine  *rules.Engine
	sink    AlertSink
	logger  *slog.Logger
	metrics *observability.Metrics

	mu            sync.RWMutex
	running       bool
	startedAt     *time.Time
	lastProcessed *time.Time
	processed     int64
	anomalies     int64
	alertsSent    int64
	errorCount    int64
	events        []Event
	eventCap      int
	dropped       int64
}

// NewProcessor wires a processor. The sink may be nil, in which case
// findings are logged but no alerts are raised.
func NewProcessor(engine *rules.Engine, sink AlertSink, cfg Config) *Processor {
	if cfg.EventLogSize <= 0 {
		cfg.EventLogSize = DefaultEventLogSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Processor{
		engine:   engine,
		sink:     sink,
		logger:   cfg.Logger,
		metrics:  observability.Default(),
		eventCap: cfg.EventLogSize,
	}
}

// Start moves the stream to running. Returns false if it already was.
// Counters and the event log carry over from any previous run.
func (p *Processor) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	now := time.Now().UTC()
	p.startedAt = &now
	p.logger.Info("stream processor started")
	return true
}

// Stop moves the stream to stopped. Returns false if it already was.
// In-flight ingests complete; counters are preserved for the next run.
func (p *Processor) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	p.running = false
	p.startedAt = nil
	p.logger.Info("stream processor stopped",
		slog.Int64("total_processed", p.processed),
		slog.Int64("anomalies_detected", p.anomalies))
	return true
}

// Running reports the lifecycle flag.
func (p *Processor) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Ingest runs one record through the pipeline and returns its findings.
//
// A stopped stream rejects the record with ErrNotRunning without touching
// any counter. A record failing identity validation returns a
// *ValidationError and increments the error counter. Otherwise the record
// is counted, an event is appended (evicting the oldest when the log is
// full) and findings are forwarded to the alert sink.
func (p *Processor) Ingest(ctx context.Context, rec *catalog.Record) ([]rules.Finding, error) {
	_, span := tracer.Start(ctx, "stream.ingest")
	defer span.End()

	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		p.metrics.IngestedTotal.WithLabelValues(observability.ResultRejected).Inc()
		return nil, ErrNotRunning
	}

	if rec == nil {
		p.noteError()
		return nil, &ValidationError{Reason: "record is nil"}
	}
	if err := rec.Validate(); err != nil {
		p.noteError()
		return nil, &ValidationError{Reason: err.Error(), Err: err}
	}

	span.SetAttributes(
		attribute.Int("pokemon.id", rec.ID),
		attribute.String("pokemon.name", rec.Name),
	)

	findings := p.engine.Evaluate(rec)

	event := Event{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		PokemonID:      rec.ID,
		Name:           rec.Name,
		AnomaliesFound: len(findings),
		Findings:       findings,
	}

	p.mu.Lock()
	p.events = append(p.events, event)
	if len(p.events) > p.eventCap {
		p.events = p.events[1:]
		p.dropped++
	}
	p.processed++
	p.anomalies += int64(len(findings))
	ts := event.Timestamp
	p.lastProcessed = &ts
	logSize := len(p.events)
	p.mu.Unlock()

	result := observability.ResultOK
	if len(findings) > 0 {
		result = observability.ResultAnomalous
	}
	p.metrics.IngestedTotal.WithLabelValues(result).Inc()
	p.metrics.EventLogSize.Set(float64(logSize))
	for _, f := range findings {
		p.metrics.FindingsTotal.WithLabelValues(f.RuleID, string(f.Severity)).Inc()
	}

	if len(findings) > 0 {
		p.logger.Warn("anomalies detected",
			slog.String("pokemon", rec.Name),
			slog.Int("findings", len(findings)))
		span.SetAttributes(attribute.Int("findings.count", len(findings)))
		if p.sink != nil {
			for _, f := range findings {
				p.sink.RecordFinding(rec, f)
			}
		}
	} else {
		p.logger.Debug("record processed", slog.String("pokemon", rec.Name))
	}

	return findings, nil
}

// NoteAlertSent bumps the alerts-sent counter. The alert system calls
// this once per alert it actually records, so suppressed alerts and
// history clears never distort the count.
func (p *Processor) NoteAlertSent() {
	p.mu.Lock()
	p.alertsSent++
	p.mu.Unlock()
}

func (p *Processor) noteError() {
	p.mu.Lock()
	p.errorCount++
	p.mu.Unlock()
	p.metrics.IngestedTotal.WithLabelValues(observability.ResultError).Inc()
}

// Status returns a snapshot of the stream state.
func (p *Processor) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		Running:       p.running,
		Processed:     p.processed,
		Anomalies:     p.anomalies,
		AlertsSent:    p.alertsSent,
		Errors:        p.errorCount,
		EventCount:    len(p.events),
		EventsDropped: p.dropped,
	}
	if p.startedAt != nil {
		ts := *p.startedAt
		st.StartedAt = &ts
	}
	if p.lastProcessed != nil {
		ts := *p.lastProcessed
		st.LastProcessed = &ts
	}
	return st
}

// Events returns up to limit events, newest first. A non-positive limit
// returns the whole log.
func (p *Processor) Events(limit int) []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, p.events[i])
	}
	return out
}

// =============================================================================
// Anomaly simulation
// =============================================================================

// Simulate injects a synthetic record crafted to trip the given rule and
// runs it through the normal ingest path. The returned record shows what
// was injected; the findings are whatever the engine actually raised.
//
// An empty name defaults to "missingno"; an empty ruleID picks the
// negative stats scenario.
func (p *Processor) Simulate(ctx context.Context, name, ruleID string) (*catalog.Record, []rules.Finding, error) {
	if name == "" {
		name = "missingno"
	}
	if ruleID == "" {
		ruleID = rules.RuleNegativeStats
	}

	ctx, span := tracer.Start(ctx, "stream.simulate",
		trace.WithAttributes(
			attribute.String("rule.id", ruleID),
			attribute.String("pokemon.name", name),
		),
	)
	defer span.End()

	rec := &catalog.Record{
		ID:             99999,
		Name:           name,
		Height:         7,
		Weight:         70,
		BaseExperience: 100,
		Types:          []string{"electric"},
		Stats: map[string]int{
			"hp":              60,
			"attack":          60,
			"defense":         60,
			"special_attack":  60,
			"special_defense": 60,
			"speed":           60,
		},
		SpriteFront: "https://img.example/simulated/front.png",
		SpriteBack:  "https://img.example/simulated/back.png",
	}
	rec.Normalize()

	switch ruleID {
	case rules.RuleNegativeStats:
		rec.Stats["hp"] = -10
	case rules.RuleInvalidType:
		rec.Types = []string{"unknown"}
	case rules.RuleMissingSprite:
		rec.SpriteFront = ""
		rec.SpriteBack = ""
	case rules.RuleExtremeStats:
		rec.Stats["attack"] = 999
	case rules.RuleMissingData:
		delete(rec.Stats, "speed")
		rec.Types = nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", rules.ErrUnknownRule, ruleID)
	}

	findings, err := p.Ingest(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, findings, nil
}
