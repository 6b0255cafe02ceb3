// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/adstats/pkg/rollup"
	"github.com/adxyz/adstats/pkg/stats"
)

// DeliveryPattern analyzes delivery timing: the share of impressions landing
// in the last quarter of observed days, and the daily impressions trend.
func (e *Engine) DeliveryPattern() DeliveryPattern {
	daily := rollup.GroupBy(e.table, rollup.ByDay)

	var totalImpressions int64
	for _, d := range daily {
		totalImpressions += d.Impressions
	}

	if len(daily) == 0 || totalImpressions == 0 {
		return DeliveryPattern{
			IsBackLoaded:           false,
			LastQuarterDeliveryPct: 0,
			ThresholdUsed:          e.cfg.BackloadThreshold,
			DailyTrend:             stats.TrendStable,
		}
	}

	lastQuarterStart := int(float64(len(daily)) * 0.75)
	var lastQuarterImpressions int64
	for _, d := range daily[lastQuarterStart:] {
		lastQuarterImpressions += d.Impressions
	}
	lastQuarterPct := float64(lastQuarterImpressions) / float64(totalImpressions)

	values := make([]float64, len(daily))
	for i, d := range daily {
		values[i] = float64(d.Impressions)
	}

	return DeliveryPattern{
		IsBackLoaded:           lastQuarterPct > e.cfg.BackloadThreshold,
		LastQuarterDeliveryPct: lastQuarterPct,
		ThresholdUsed:          e.cfg.BackloadThreshold,
		DailyTrend:             stats.DetectTrend(values),
	}
}
