// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/rollup"
	"github.com/adxyz/adstats/pkg/stats"
)

// Minimum paired samples for CTR/VCR correlation.
const (
	domainCorrelationMinSamples  = 5
	overallCorrelationMinSamples = 10
)

// EfficiencyMetrics computes per-domain and per-platform rollups, the
// CTR/VCR correlation and weekend lift per domain, and best/worst platform
// gaps.
func (e *Engine) EfficiencyMetrics() EfficiencyMetrics {
	domainRollups := rollup.GroupBy(e.table, rollup.ByDomain)

	rowsByDomain := make(map[string][]delivery.Record)
	for _, rec := range e.table.Rows() {
		rowsByDomain[rec.Domain] = append(rowsByDomain[rec.Domain], rec)
	}

	domainMetrics := make([]DomainEfficiency, 0, len(domainRollups))
	for _, d := range domainRollups {
		rows := rowsByDomain[d.Group]

		correlation := rowCorrelation(rows, domainCorrelationMinSamples)
		weekendCTR, weekdayCTR := weekendWeekdayCTR(rows)

		var lift *float64
		if weekdayCTR != nil && *weekdayCTR > 0 && weekendCTR != nil {
			v := (*weekendCTR - *weekdayCTR) / *weekdayCTR
			lift = &v
		}

		domainMetrics = append(domainMetrics, DomainEfficiency{
			Domain:            d.Group,
			AvgCTR:            d.CTR(),
			AvgVCR:            d.VCR(),
			TotalImpressions:  d.Impressions,
			TotalSpend:        d.Spend,
			CTRVCRCorrelation: correlation,
			WeekendLift:       lift,
			WeekdayAvgCTR:     deref(weekdayCTR),
			WeekendAvgCTR:     deref(weekendCTR),
		})
	}

	platformRollups := rollup.GroupBy(e.table, rollup.ByPlatform)
	totalImpressions := e.table.TotalImpressions()

	platformMetrics := make([]PlatformPerformance, 0, len(platformRollups))
	for _, p := range platformRollups {
		platformMetrics = append(platformMetrics, PlatformPerformance{
			Platform:         p.Group,
			AvgCTR:           p.CTR(),
			AvgVCR:           p.VCR(),
			TotalImpressions: p.Impressions,
			TotalSpend:       p.Spend,
			ImpressionShare:  share(p.Impressions, totalImpressions),
		})
	}

	gaps := platformGaps(platformRollups)

	overallCorrelation := rowCorrelation(e.table.Rows(), overallCorrelationMinSamples)
	overallLift := overallWeekendLift(e.table.Rows())

	return EfficiencyMetrics{
		DomainMetrics:            domainMetrics,
		PlatformMetrics:          platformMetrics,
		PerformanceGaps:          gaps,
		OverallCTRVCRCorrelation: overallCorrelation,
		OverallWeekendLift:       overallLift,
	}
}

// platformGaps computes the best/worst spread per metric across platforms.
// Rollups arrive sorted by platform name ascending, so ties resolve to the
// lexicographically first platform.
func platformGaps(platforms []rollup.Rollup) []PerformanceGap {
	if len(platforms) == 0 {
		return nil
	}

	gapMetrics := []struct {
		name  string
		value func(rollup.Rollup) float64
	}{
		{MetricCTR, func(r rollup.Rollup) float64 { return r.CTR() }},
		{MetricImpressions, func(r rollup.Rollup) float64 { return float64(r.Impressions) }},
	}

	var gaps []PerformanceGap
	for _, gm := range gapMetrics {
		maxIdx, minIdx := 0, 0
		for i := 1; i < len(platforms); i++ {
			v := gm.value(platforms[i])
			if v > gm.value(platforms[maxIdx]) {
				maxIdx = i
			}
			if v < gm.value(platforms[minIdx]) {
				minIdx = i
			}
		}

		maxVal := gm.value(platforms[maxIdx])
		minVal := gm.value(platforms[minIdx])
		if maxVal <= 0 {
			continue
		}

		gaps = append(gaps, PerformanceGap{
			MetricName:  gm.name,
			MaxPlatform: platforms[maxIdx].Group,
			MaxValue:    maxVal,
			MinPlatform: platforms[minIdx].Group,
			MinValue:    minVal,
			GapPct:      (maxVal - minVal) / maxVal,
		})
	}
	return gaps
}

// rowCorrelation pairs recomputed row CTR with the row completion rate.
func rowCorrelation(rows []delivery.Record, minSamples int) *float64 {
	xs := make([]*float64, len(rows))
	ys := make([]*float64, len(rows))
	for i, rec := range rows {
		xs[i] = rec.CTRPtr()
		ys[i] = rec.VideoCompletePct
	}
	return stats.PearsonCorrelation(xs, ys, minSamples)
}

// weekendWeekdayCTR returns the unweighted mean row CTR for weekend and
// weekday rows; nil when a side has no rows.
func weekendWeekdayCTR(rows []delivery.Record) (weekend, weekday *float64) {
	var weekendVals, weekdayVals []float64
	for _, rec := range rows {
		if rec.IsWeekend {
			weekendVals = append(weekendVals, rec.CTR())
		} else {
			weekdayVals = append(weekdayVals, rec.CTR())
		}
	}
	if len(weekendVals) > 0 {
		v := stats.Mean(weekendVals)
		weekend = &v
	}
	if len(weekdayVals) > 0 {
		v := stats.Mean(weekdayVals)
		weekday = &v
	}
	return weekend, weekday
}

func overallWeekendLift(rows []delivery.Record) *float64 {
	var weekendVals, weekdayVals []float64
	for _, rec := range rows {
		if rec.IsWeekend {
			weekendVals = append(weekendVals, rec.CTR())
		} else {
			weekdayVals = append(weekdayVals, rec.CTR())
		}
	}
	return stats.WeekendLift(weekendVals, weekdayVals)
}

func share(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
