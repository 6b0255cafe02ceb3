// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"sort"
	"time"

	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/rollup"
	"github.com/adxyz/adstats/pkg/stats"
)

// NormalizedTable returns a new table of rows annotated with per-row
// normalized metrics: the weekly impressions WoW delta joined onto each row
// by its week, the row CTR z-score against the whole population, the VCR
// percentile rank, and spend share of total. The input table is unchanged.
func (e *Engine) NormalizedTable() []NormalizedRow {
	rows := e.table.Rows()

	ctrs := make([]float64, len(rows))
	totalSpend := 0.0
	for i, rec := range rows {
		ctrs[i] = rec.CTR()
		totalSpend += rec.Spend
	}
	ctrMean := stats.Mean(ctrs)
	ctrStd := stats.StdDev(ctrs)

	wowByWeek := weeklyImpressionsWoW(e.table)
	vcrPercentiles := vcrPercentileRanks(rows, e.table.HasColumn(delivery.ColVideoCompletePct))

	out := make([]NormalizedRow, len(rows))
	for i, rec := range rows {
		row := NormalizedRow{Record: rec}

		if delta, ok := wowByWeek[rec.WeekStart]; ok {
			d := delta
			row.ImpressionsWoWDelta = &d
		}
		if ctrStd > 0 {
			row.CTRVsAvg = (ctrs[i] - ctrMean) / ctrStd
		}
		row.VCRPercentile = vcrPercentiles[i]
		if totalSpend > 0 {
			row.SpendPctOfTotal = rec.Spend / totalSpend
		}

		out[i] = row
	}
	return out
}

// weeklyImpressionsWoW maps each week to its impressions WoW change. The
// first week and weeks following a zero week are absent.
func weeklyImpressionsWoW(t *delivery.Table) map[time.Time]float64 {
	weekly := rollup.GroupBy(t, rollup.ByWeek)

	out := make(map[time.Time]float64, len(weekly))
	for i := 1; i < len(weekly); i++ {
		prev := float64(weekly[i-1].Impressions)
		if prev == 0 {
			continue
		}
		out[weekly[i].Date] = (float64(weekly[i].Impressions) - prev) / prev
	}
	return out
}

// vcrPercentileRanks assigns each row with a non-null completion rate its
// ordinal rank divided by the non-null count (0-1). Rows with a null value,
// or every row when the column is absent, get nil.
func vcrPercentileRanks(rows []delivery.Record, hasColumn bool) []*float64 {
	out := make([]*float64, len(rows))
	if !hasColumn {
		return out
	}

	var idx []int
	for i, rec := range rows {
		if rec.VideoCompletePct != nil {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return out
	}

	// Ordinal ranking: ties keep input order.
	sort.SliceStable(idx, func(a, b int) bool {
		return *rows[idx[a]].VideoCompletePct < *rows[idx[b]].VideoCompletePct
	})

	n := float64(len(idx))
	for rank, i := range idx {
		p := float64(rank+1) / n
		out[i] = &p
	}
	return out
}
