// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adstats/pkg/delivery"
)

func TestEfficiencyMetricsDomainCorrelation(t *testing.T) {
	require := require.New(t)

	// Six rows for one domain where completion rate rises with CTR.
	var rows []delivery.Record
	for i := 1; i <= 6; i++ {
		r := rec(fmt.Sprintf("2025-03-0%d", i), 1000, int64(i), 1)
		r.VideoCompletePct = ptr(0.1 * float64(i))
		rows = append(rows, r)
	}
	e := mustEngine(t, delivery.FromRecords(rows), Config{})

	eff := e.EfficiencyMetrics()
	require.Len(eff.DomainMetrics, 1)

	corr := eff.DomainMetrics[0].CTRVCRCorrelation
	require.NotNil(corr)
	require.InDelta(1.0, *corr, 1e-9)

	// Six paired samples is under the overall minimum of ten.
	require.Nil(eff.OverallCTRVCRCorrelation)
}

func TestEfficiencyMetricsCorrelationTooFewSamples(t *testing.T) {
	require := require.New(t)

	var rows []delivery.Record
	for i := 1; i <= 4; i++ {
		r := rec(fmt.Sprintf("2025-03-0%d", i), 1000, int64(i), 1)
		r.VideoCompletePct = ptr(0.1 * float64(i))
		rows = append(rows, r)
	}
	e := mustEngine(t, delivery.FromRecords(rows), Config{})

	eff := e.EfficiencyMetrics()
	require.Len(eff.DomainMetrics, 1)
	require.Nil(eff.DomainMetrics[0].CTRVCRCorrelation)
}

func TestEfficiencyMetricsWeekendLift(t *testing.T) {
	require := require.New(t)

	// Saturday/Sunday rows at CTR 0.03, weekday rows at 0.02.
	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 1000, 20, 1), // Monday
		rec("2025-03-04", 1000, 20, 1), // Tuesday
		rec("2025-03-08", 1000, 30, 1), // Saturday
		rec("2025-03-09", 1000, 30, 1), // Sunday
	})
	e := mustEngine(t, table, Config{})

	eff := e.EfficiencyMetrics()
	require.Len(eff.DomainMetrics, 1)

	d := eff.DomainMetrics[0]
	require.InDelta(0.02, d.WeekdayAvgCTR, 1e-9)
	require.InDelta(0.03, d.WeekendAvgCTR, 1e-9)
	require.NotNil(d.WeekendLift)
	require.InDelta(0.5, *d.WeekendLift, 1e-9)

	require.NotNil(eff.OverallWeekendLift)
	require.InDelta(0.5, *eff.OverallWeekendLift, 1e-9)
}

func TestEfficiencyMetricsWeekendLiftNilWithoutWeekends(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		rec("2025-03-03", 1000, 20, 1),
		rec("2025-03-04", 1000, 20, 1),
	})
	e := mustEngine(t, table, Config{})

	eff := e.EfficiencyMetrics()
	require.Len(eff.DomainMetrics, 1)
	require.Nil(eff.DomainMetrics[0].WeekendLift)
	require.Nil(eff.OverallWeekendLift)
}

func TestPerformanceGaps(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		recAt("2025-03-03", "a.com", "CTV", 8000, 80, 10),     // CTR 0.01
		recAt("2025-03-04", "a.com", "Desktop", 1000, 40, 10), // CTR 0.04
		recAt("2025-03-05", "a.com", "Mobile", 1000, 20, 10),  // CTR 0.02
	})
	e := mustEngine(t, table, Config{})

	eff := e.EfficiencyMetrics()
	require.Len(eff.PerformanceGaps, 2)

	ctrGap := eff.PerformanceGaps[0]
	require.Equal(MetricCTR, ctrGap.MetricName)
	require.Equal("Desktop", ctrGap.MaxPlatform)
	require.Equal("CTV", ctrGap.MinPlatform)
	require.InDelta(0.75, ctrGap.GapPct, 1e-9)

	impsGap := eff.PerformanceGaps[1]
	require.Equal(MetricImpressions, impsGap.MetricName)
	require.Equal("CTV", impsGap.MaxPlatform)
	require.InDelta(0.875, impsGap.GapPct, 1e-9)
}

func TestPerformanceGapsTieBreakByName(t *testing.T) {
	require := require.New(t)

	// Identical metrics on every platform: max and min both resolve to the
	// lexicographically first platform.
	table := delivery.FromRecords([]delivery.Record{
		recAt("2025-03-03", "a.com", "Mobile", 1000, 10, 5),
		recAt("2025-03-04", "a.com", "CTV", 1000, 10, 5),
		recAt("2025-03-05", "a.com", "Desktop", 1000, 10, 5),
	})
	e := mustEngine(t, table, Config{})

	eff := e.EfficiencyMetrics()
	require.NotEmpty(eff.PerformanceGaps)
	for _, gap := range eff.PerformanceGaps {
		require.Equal("CTV", gap.MaxPlatform)
		require.Equal("CTV", gap.MinPlatform)
		require.Equal(0.0, gap.GapPct)
	}
}
