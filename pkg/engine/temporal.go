// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"math"

	"github.com/adxyz/adstats/pkg/rollup"
)

// TemporalStats aggregates the table by week and computes week-over-week
// changes for impressions, clicks, spend, and CTR. The earliest week has no
// change; a zero previous value leaves the change undefined and the week is
// skipped for that metric.
func (e *Engine) TemporalStats() TemporalStats {
	weekly := rollup.GroupBy(e.table, rollup.ByWeek)

	totals := make([]WeeklyStats, 0, len(weekly))
	for _, w := range weekly {
		totals = append(totals, WeeklyStats{
			WeekStart:      w.Date,
			Impressions:    w.Impressions,
			Clicks:         w.Clicks,
			Spend:          w.Spend,
			AvgCTR:         w.CTR(),
			AvgCPM:         w.CPM(),
			AvgVCR:         w.VCR(),
			AvgViewability: w.Viewability(),
		})
	}

	metrics := []string{MetricImpressions, MetricClicks, MetricSpend, MetricCTR}

	var changes []WeekOverWeekChange
	for i := 1; i < len(totals); i++ {
		for _, metric := range metrics {
			prev := weeklyMetricValue(totals[i-1], metric)
			cur := weeklyMetricValue(totals[i], metric)
			if prev == 0 {
				continue
			}
			pct := (cur - prev) / prev
			changes = append(changes, WeekOverWeekChange{
				WeekStart:     totals[i].WeekStart,
				MetricName:    metric,
				CurrentValue:  cur,
				PreviousValue: prev,
				PctChange:     pct,
				IsSpike:       math.Abs(pct) >= e.cfg.SpikeThreshold,
			})
		}
	}

	var spikes []WeekOverWeekChange
	for _, c := range changes {
		if c.IsSpike {
			spikes = append(spikes, c)
		}
	}

	return TemporalStats{
		WeeklyTotals: totals,
		WoWChanges:   changes,
		Spikes:       spikes,
	}
}

func weeklyMetricValue(w WeeklyStats, metric string) float64 {
	switch metric {
	case MetricImpressions:
		return float64(w.Impressions)
	case MetricClicks:
		return float64(w.Clicks)
	case MetricSpend:
		return w.Spend
	case MetricCTR:
		return w.AvgCTR
	}
	return 0
}
