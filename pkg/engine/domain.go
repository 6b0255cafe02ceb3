// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"sort"

	"github.com/adxyz/adstats/pkg/rollup"
	"github.com/adxyz/adstats/pkg/stats"
)

// Default parameters for DomainStats.
const (
	DefaultTopN           = 10
	DefaultShareThreshold = 0.05
	DefaultCTRPercentile  = 0.25
)

// DomainStats computes per-domain aggregates with impression share and an
// underperformance flag: a domain underperforms when it holds at least
// shareThreshold of impressions while its CTR sits below the given
// percentile of the per-domain CTR distribution. Results are sorted by
// impressions descending (ties by name); the second return value is the
// cumulative impression share of the returned top-N domains.
func (e *Engine) DomainStats(topN int, shareThreshold, ctrPercentile float64) ([]DomainStats, float64) {
	domains := rollup.GroupBy(e.table, rollup.ByDomain)
	if len(domains) == 0 {
		return nil, 0
	}

	totalImpressions := e.table.TotalImpressions()

	ctrs := make([]float64, len(domains))
	for i, d := range domains {
		ctrs[i] = d.CTR()
	}
	ctrThreshold := stats.Quantile(ctrs, ctrPercentile)

	all := make([]DomainStats, 0, len(domains))
	for _, d := range domains {
		s := share(d.Impressions, totalImpressions)
		all = append(all, DomainStats{
			Domain:            d.Group,
			Impressions:       d.Impressions,
			Clicks:            d.Clicks,
			Spend:             d.Spend,
			AvgCTR:            d.CTR(),
			AvgCPM:            d.CPM(),
			AvgVCR:            d.VCR(),
			AvgViewability:    d.Viewability(),
			ImpressionShare:   s,
			IsUnderperforming: s >= shareThreshold && d.CTR() < ctrThreshold,
		})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Impressions != all[j].Impressions {
			return all[i].Impressions > all[j].Impressions
		}
		return all[i].Domain < all[j].Domain
	})

	if topN < 0 {
		topN = 0
	}
	if topN > len(all) {
		topN = len(all)
	}
	top := all[:topN]

	var topShare float64
	for _, d := range top {
		topShare += d.ImpressionShare
	}

	return top, topShare
}

// PlatformStats computes the platform/device breakdown with impression
// share, sorted by impressions descending.
func (e *Engine) PlatformStats() []PlatformPerformance {
	platforms := rollup.GroupBy(e.table, rollup.ByPlatform)
	totalImpressions := e.table.TotalImpressions()

	out := make([]PlatformPerformance, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, PlatformPerformance{
			Platform:         p.Group,
			AvgCTR:           p.CTR(),
			AvgVCR:           p.VCR(),
			TotalImpressions: p.Impressions,
			TotalSpend:       p.Spend,
			ImpressionShare:  share(p.Impressions, totalImpressions),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalImpressions != out[j].TotalImpressions {
			return out[i].TotalImpressions > out[j].TotalImpressions
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}
