// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability holds the Prometheus instrumentation shared by
// the pipeline components. Metrics register once on the default registry
// via promauto; grab the singleton with Default.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pokemon"

// Ingest result label values.
const (
	ResultOK        = "ok"
	ResultAnomalous = "anomalous"
	ResultError     = "error"
	ResultRejected  = "rejected"
)

// Metrics bundles every pipeline series.
type Metrics struct {
	// IngestedTotal counts records offered to the stream by outcome.
	IngestedTotal *prometheus.CounterVec

	// FindingsTotal counts rule findings by rule and severity.
	FindingsTotal *prometheus.CounterVec

	// AlertsTotal counts alerts recorded by level and source.
	AlertsTotal *prometheus.CounterVec

	// EventLogSize is the current length of the bounded event log.
	EventLogSize prometheus.Gauge

	// AlertHistorySize is the current length of the alert history.
	AlertHistorySize prometheus.Gauge

	// QualityScore is the latest overall data quality score (0-100).
	QualityScore prometheus.Gauge

	// StoreRecords is the number of records in the catalog store.
	StoreRecords prometheus.Gauge

	// HTTPRequests counts API requests by method, route and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration tracks API latency by method and route.
	HTTPDuration *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide metrics, registering them on first use.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = newMetrics()
	})
	return defaultMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		IngestedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Records offered to the stream processor, by outcome.",
		}, []string{"result"}),
		FindingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_findings_total",
			Help:      "Rule findings raised during ingestion.",
		}, []string{"rule_id", "severity"}),
		AlertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts recorded, by level and source.",
		}, []string{"level", "source"}),
		EventLogSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_log_size",
			Help:      "Current number of events held in the bounded log.",
		}),
		AlertHistorySize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_history_size",
			Help:      "Current number of alerts held in history.",
		}),
		QualityScore: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "data_quality_score",
			Help:      "Most recent overall data quality score, 0-100.",
		}),
		StoreRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Records currently persisted in the catalog store.",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
