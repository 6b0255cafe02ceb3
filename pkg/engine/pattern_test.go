// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/stats"
)

func TestDeliveryPatternBackLoaded(t *testing.T) {
	require := require.New(t)

	// 8 observed days; the last quarter (days 7-8) carries half the volume.
	var rows []delivery.Record
	for i := 1; i <= 6; i++ {
		rows = append(rows, rec(fmt.Sprintf("2025-03-0%d", i), 1000, 0, 0))
	}
	rows = append(rows, rec("2025-03-07", 3000, 0, 0))
	rows = append(rows, rec("2025-03-08", 3000, 0, 0))

	e := mustEngine(t, delivery.FromRecords(rows), Config{BackloadThreshold: 0.40})

	pattern := e.DeliveryPattern()
	require.True(pattern.IsBackLoaded)
	require.InDelta(0.5, pattern.LastQuarterDeliveryPct, 1e-9)
	require.Equal(0.40, pattern.ThresholdUsed)
}

func TestDeliveryPatternEvenDelivery(t *testing.T) {
	require := require.New(t)

	var rows []delivery.Record
	for i := 1; i <= 8; i++ {
		rows = append(rows, rec(fmt.Sprintf("2025-03-0%d", i), 1000, 0, 0))
	}
	e := mustEngine(t, delivery.FromRecords(rows), Config{})

	pattern := e.DeliveryPattern()
	// Last quarter of 8 days is 2 days: 25% of volume, under the 40% bar.
	require.False(pattern.IsBackLoaded)
	require.InDelta(0.25, pattern.LastQuarterDeliveryPct, 1e-9)
	require.Equal(stats.TrendStable, pattern.DailyTrend)
}

func TestDeliveryPatternIncreasingTrend(t *testing.T) {
	require := require.New(t)

	var rows []delivery.Record
	for i := 1; i <= 8; i++ {
		rows = append(rows, rec(fmt.Sprintf("2025-03-0%d", i), int64(i)*1000, 0, 0))
	}
	e := mustEngine(t, delivery.FromRecords(rows), Config{})

	pattern := e.DeliveryPattern()
	require.Equal(stats.TrendIncreasing, pattern.DailyTrend)
}

func TestDeliveryPatternEmpty(t *testing.T) {
	require := require.New(t)

	e := mustEngine(t, delivery.FromRecords(nil), Config{})

	pattern := e.DeliveryPattern()
	require.False(pattern.IsBackLoaded)
	require.Equal(0.0, pattern.LastQuarterDeliveryPct)
	require.Equal(stats.TrendStable, pattern.DailyTrend)
	require.Equal(0.40, pattern.ThresholdUsed)
}
