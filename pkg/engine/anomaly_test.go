// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adstats/pkg/delivery"
)

func TestDetectAnomaliesFlagsOutlierWeek(t *testing.T) {
	require := require.New(t)

	// Four steady weeks and one massive outlier.
	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 1000, 10, 5),
		rec("2025-03-10", 1000, 10, 5),
		rec("2025-03-17", 1000, 10, 5),
		rec("2025-03-24", 1000, 10, 5),
		rec("2025-03-31", 10000, 10, 5),
	})
	e := mustEngine(t, table, Config{AnomalyThreshold: 1.5})

	report, err := e.DetectAnomalies(AnomalyMetricImpressions)
	require.NoError(err)
	require.Equal(5, report.TotalWeeksAnalyzed)
	require.Equal(1.5, report.ThresholdUsed)
	require.Len(report.Anomalies, 1)

	a := report.Anomalies[0]
	require.Equal(day("2025-03-31"), a.WeekStart)
	require.Equal(AnomalyMetricImpressions, a.MetricName)
	require.Equal(DirectionAbove, a.Direction)
	require.Greater(a.ZScore, 1.5)
	require.InDelta(10000.0, a.Value, 1e-9)
}

func TestDetectAnomaliesDirectionBelow(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 5000, 10, 5),
		rec("2025-03-10", 5000, 10, 5),
		rec("2025-03-17", 5000, 10, 5),
		rec("2025-03-24", 5000, 10, 5),
		rec("2025-03-31", 100, 1, 1),
	})
	e := mustEngine(t, table, Config{})

	report, err := e.DetectAnomalies(AnomalyMetricImpressions)
	require.NoError(err)
	require.Len(report.Anomalies, 1)
	require.Equal(DirectionBelow, report.Anomalies[0].Direction)
}

func TestDetectAnomaliesUnweightedWeeklyMean(t *testing.T) {
	require := require.New(t)

	// The first week mixes a tiny and a huge row (CTR 0.01 and 0.03): its
	// series value is the plain mean 0.02, not the impression-weighted rate.
	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 100, 1, 1),
		rec("2025-03-05", 10000, 300, 1),
		rec("2025-03-10", 100, 2, 1),
		rec("2025-03-17", 100, 2, 1),
		rec("2025-03-24", 100, 2, 1),
		rec("2025-03-31", 100, 5, 1),
	})
	e := mustEngine(t, table, Config{})

	report, err := e.DetectAnomalies(AnomalyMetricCTR)
	require.NoError(err)
	require.Equal(5, report.TotalWeeksAnalyzed)
	require.Len(report.Anomalies, 1)

	a := report.Anomalies[0]
	require.Equal(day("2025-03-31"), a.WeekStart)
	require.InDelta(0.05, a.Value, 1e-9)
	require.InDelta(0.026, a.Mean, 1e-9)
	require.InDelta(2.0, a.ZScore, 1e-9)
}

func TestDetectAnomaliesTooFewWeeks(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 1000, 10, 5),
		rec("2025-03-05", 2000, 10, 5),
	})
	e := mustEngine(t, table, Config{})

	report, err := e.DetectAnomalies(AnomalyMetricSpend)
	require.NoError(err)
	require.Empty(report.Anomalies)
	require.Equal(1, report.TotalWeeksAnalyzed)
	require.Equal(1.5, report.ThresholdUsed)
}

func TestDetectAnomaliesZeroVariance(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 1000, 10, 5),
		rec("2025-03-10", 1000, 10, 5),
		rec("2025-03-17", 1000, 10, 5),
	})
	e := mustEngine(t, table, Config{})

	report, err := e.DetectAnomalies(AnomalyMetricImpressions)
	require.NoError(err)
	require.Empty(report.Anomalies)
	require.Equal(3, report.TotalWeeksAnalyzed)
}

func TestDetectAnomaliesUnknownMetric(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{rec("2025-03-03", 1, 0, 0)})
	e := mustEngine(t, table, Config{})

	_, err := e.DetectAnomalies("viewability")
	require.ErrorIs(err, ErrUnknownMetric)
}
