// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all metrics for the delivery analyzer. Each instance owns
// its own registry so parallel report runs do not collide.
type Metrics struct {
	registry *prometheus.Registry

	// Report metrics
	ReportsGenerated prometheus.Counter
	ReportFailures   prometheus.Counter
	RowsIngested     prometheus.Counter

	// Insight metrics
	InsightsFired *prometheus.CounterVec

	// Performance metrics
	IngestDuration   prometheus.Histogram
	AnalysisDuration prometheus.Histogram
}

// NewMetrics creates a metrics instance with a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.ReportsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adstats",
		Name:      "reports_generated_total",
		Help:      "Total number of stat packs generated",
	})
	m.ReportFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adstats",
		Name:      "report_failures_total",
		Help:      "Total number of failed report runs",
	})
	m.RowsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "adstats",
		Name:      "rows_ingested_total",
		Help:      "Total delivery rows ingested across all runs",
	})

	m.InsightsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adstats",
		Name:      "insights_fired_total",
		Help:      "Total insights fired by severity",
	}, []string{"severity"})

	m.IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "adstats",
		Name:      "ingest_duration_seconds",
		Help:      "Time to load and validate a delivery export",
		Buckets:   prometheus.DefBuckets,
	})
	m.AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "adstats",
		Name:      "analysis_duration_seconds",
		Help:      "Time to run all analyses and assemble a stat pack",
		Buckets:   prometheus.DefBuckets,
	})

	m.registry.MustRegister(
		m.ReportsGenerated,
		m.ReportFailures,
		m.RowsIngested,
		m.InsightsFired,
		m.IngestDuration,
		m.AnalysisDuration,
	)
	return m
}

// Gatherer returns the prometheus gatherer for metrics export.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Registerer returns the prometheus registerer for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}
