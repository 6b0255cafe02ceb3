// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/stats"
)

// Row-level metrics accepted by DetectAnomalies.
const (
	AnomalyMetricCTR         = "ctr"
	AnomalyMetricImpressions = "impressions"
	AnomalyMetricClicks      = "clicks"
	AnomalyMetricSpend       = "spend"
)

// DetectAnomalies aggregates the metric per week (unweighted mean of row
// values), then flags weeks whose z-score against the across-week
// population exceeds the configured threshold. Fewer than two weeks or a
// zero-variance series yields an empty report with the threshold and week
// count preserved.
func (e *Engine) DetectAnomalies(metric string) (AnomalyReport, error) {
	value, err := rowMetricFn(metric)
	if err != nil {
		return AnomalyReport{}, err
	}

	type weekAgg struct {
		week  time.Time
		sum   float64
		count int
	}
	byWeek := make(map[time.Time]*weekAgg)
	for _, rec := range e.table.Rows() {
		w, ok := byWeek[rec.WeekStart]
		if !ok {
			w = &weekAgg{week: rec.WeekStart}
			byWeek[rec.WeekStart] = w
		}
		w.sum += value(rec)
		w.count++
	}

	weeks := make([]*weekAgg, 0, len(byWeek))
	for _, w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].week.Before(weeks[j].week) })

	report := AnomalyReport{
		ThresholdUsed:      e.cfg.AnomalyThreshold,
		TotalWeeksAnalyzed: len(weeks),
	}
	if len(weeks) < 2 {
		return report, nil
	}

	values := make([]float64, len(weeks))
	for i, w := range weeks {
		values[i] = w.sum / float64(w.count)
	}

	mean := stats.Mean(values)
	std := stats.StdDev(values)
	if std == 0 {
		return report, nil
	}

	for i, w := range weeks {
		z := (values[i] - mean) / std
		if math.Abs(z) <= e.cfg.AnomalyThreshold {
			continue
		}
		direction := DirectionBelow
		if z > 0 {
			direction = DirectionAbove
		}
		report.Anomalies = append(report.Anomalies, Anomaly{
			WeekStart:  w.week,
			MetricName: metric,
			Value:      values[i],
			Mean:       mean,
			Std:        std,
			ZScore:     z,
			Direction:  direction,
		})
	}

	return report, nil
}

func rowMetricFn(metric string) (func(delivery.Record) float64, error) {
	switch metric {
	case AnomalyMetricCTR:
		return func(r delivery.Record) float64 { return r.CTR() }, nil
	case AnomalyMetricImpressions:
		return func(r delivery.Record) float64 { return float64(r.Impressions) }, nil
	case AnomalyMetricClicks:
		return func(r delivery.Record) float64 { return float64(r.Clicks) }, nil
	case AnomalyMetricSpend:
		return func(r delivery.Record) float64 { return r.Spend }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
}
