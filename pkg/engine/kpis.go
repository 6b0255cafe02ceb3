// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/adstats/pkg/rollup"
)

// CampaignKPIs totals the whole table and recomputes CTR, CPM, viewability,
// and weighted VCR from the raw counters.
func (e *Engine) CampaignKPIs() CampaignKPIs {
	total := rollup.GroupBy(e.table, rollup.ByNone)[0]

	return CampaignKPIs{
		TotalImpressions:         total.Impressions,
		TotalClicks:              total.Clicks,
		TotalSpend:               total.Spend,
		TotalViewableImpressions: total.ViewableImpressions,
		TotalVideoCompletes:      total.VideoCompletes,
		CTR:                      total.CTR(),
		CPM:                      total.CPM(),
		ViewabilityPct:           total.Viewability(),
		VCRPct:                   total.VCR(),
	}
}

// DayOfWeekPerformance aggregates per day of week, Monday through Sunday.
func (e *Engine) DayOfWeekPerformance() []DayOfWeekStats {
	days := rollup.GroupBy(e.table, rollup.ByDayOfWeek)

	out := make([]DayOfWeekStats, 0, len(days))
	for _, d := range days {
		out = append(out, DayOfWeekStats{
			DayOfWeek:   d.Group,
			Impressions: d.Impressions,
			Clicks:      d.Clicks,
			Spend:       d.Spend,
			AvgCTR:      d.CTR(),
			AvgVCR:      d.VCR(),
		})
	}
	return out
}
