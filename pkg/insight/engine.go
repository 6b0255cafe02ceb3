// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package insight

import (
	"fmt"
	"sort"

	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/rollup"
)

// Engine evaluates the fixed rule set against one delivery table. The rule
// set is closed, so rules are an explicit ordered list rather than dynamic
// dispatch; the returned findings follow evaluation order, not severity.
type Engine struct {
	table      *delivery.Table
	thresholds Thresholds
}

// New creates an insight engine with the given thresholds. Zero-valued
// threshold fields fall back to defaults.
func New(table *delivery.Table, thresholds Thresholds) *Engine {
	def := DefaultThresholds()
	if thresholds.PacingSpikePct == 0 {
		thresholds.PacingSpikePct = def.PacingSpikePct
	}
	if thresholds.CTRAnomalyPct == 0 {
		thresholds.CTRAnomalyPct = def.CTRAnomalyPct
	}
	if thresholds.CTRRecoveryPct == 0 {
		thresholds.CTRRecoveryPct = def.CTRRecoveryPct
	}
	if thresholds.VCRDropPoints == 0 {
		thresholds.VCRDropPoints = def.VCRDropPoints
	}
	if thresholds.PlatformConcentrationPct == 0 {
		thresholds.PlatformConcentrationPct = def.PlatformConcentrationPct
	}
	if thresholds.TopDomainConcentrationPct == 0 {
		thresholds.TopDomainConcentrationPct = def.TopDomainConcentrationPct
	}
	if thresholds.Top5DomainConcentrationPct == 0 {
		thresholds.Top5DomainConcentrationPct = def.Top5DomainConcentrationPct
	}
	return &Engine{table: table, thresholds: thresholds}
}

// GenerateAll runs every rule in order and returns all findings. Rules are
// independent; several may fire for the same table.
func (e *Engine) GenerateAll() []Insight {
	rules := []func() []Insight{
		e.checkPacingSpike,
		e.checkCTRAnomaly,
		e.checkCTRRecovery,
		e.checkVCRDrop,
		e.checkPlatformConcentration,
		e.checkDomainConcentration,
	}

	var insights []Insight
	for _, rule := range rules {
		insights = append(insights, rule()...)
	}
	return insights
}

// checkPacingSpike flags weeks with impressions at or above
// (1 + threshold) times the average week.
func (e *Engine) checkPacingSpike() []Insight {
	weekly := rollup.GroupBy(e.table, rollup.ByWeek)
	if len(weekly) == 0 {
		return nil
	}

	var total int64
	for _, w := range weekly {
		total += w.Impressions
	}
	avg := float64(total) / float64(len(weekly))
	if avg == 0 {
		return nil
	}

	threshold := avg * (1 + e.thresholds.PacingSpikePct)

	var insights []Insight
	for _, w := range weekly {
		imps := float64(w.Impressions)
		if imps < threshold {
			continue
		}
		pctVsAvg := (imps - avg) / avg
		insights = append(insights, Insight{
			RuleID:   RulePacingSpike,
			Severity: SeverityAmber,
			Description: fmt.Sprintf(
				"Week %s had a %.1f%% spike in impressions vs campaign average",
				w.Group, pctVsAvg*100),
			Recommendation: "Review pacing strategy. High-volume weeks may indicate " +
				"back-loaded delivery or opportunistic bidding. Consider smoothing " +
				"delivery for more consistent performance.",
			Metrics: map[string]any{
				"week":            w.Group,
				"impressions":     w.Impressions,
				"avg_impressions": avg,
				"pct_vs_avg":      pctVsAvg,
			},
		})
	}
	return insights
}

// checkCTRAnomaly flags weeks whose recomputed CTR falls at or below the
// configured fraction of the campaign CTR.
func (e *Engine) checkCTRAnomaly() []Insight {
	weekly := rollup.GroupBy(e.table, rollup.ByWeek)
	avgCTR := campaignCTR(e.table)
	if avgCTR == 0 {
		return nil
	}

	threshold := avgCTR * e.thresholds.CTRAnomalyPct

	var insights []Insight
	for _, w := range weekly {
		if w.Impressions == 0 {
			continue
		}
		weeklyCTR := w.CTR()
		if weeklyCTR > threshold {
			continue
		}
		pctOfAvg := weeklyCTR / avgCTR
		insights = append(insights, Insight{
			RuleID:   RuleCTRAnomaly,
			Severity: SeverityRed,
			Description: fmt.Sprintf(
				"Week %s CTR (%.3f%%) was %.1f%% below campaign average",
				w.Group, weeklyCTR*100, (1-pctOfAvg)*100),
			Recommendation: "Investigate creative fatigue, audience saturation, or " +
				"inventory quality issues. Consider A/B testing new creatives or " +
				"adjusting targeting parameters.",
			Metrics: map[string]any{
				"week":       w.Group,
				"weekly_ctr": weeklyCTR,
				"avg_ctr":    avgCTR,
				"pct_of_avg": pctOfAvg,
			},
		})
	}
	return insights
}

// checkCTRRecovery flags later-half weeks whose CTR reaches the recovery
// multiple of the campaign average.
func (e *Engine) checkCTRRecovery() []Insight {
	weekly := rollup.GroupBy(e.table, rollup.ByWeek)
	if len(weekly) < 2 {
		return nil
	}

	avgCTR := campaignCTR(e.table)
	if avgCTR == 0 {
		return nil
	}

	threshold := avgCTR * e.thresholds.CTRRecoveryPct
	midpoint := len(weekly) / 2

	var insights []Insight
	for _, w := range weekly[midpoint:] {
		if w.Impressions == 0 {
			continue
		}
		weeklyCTR := w.CTR()
		if weeklyCTR < threshold {
			continue
		}
		pctOfAvg := weeklyCTR / avgCTR
		insights = append(insights, Insight{
			RuleID:   RuleCTRRecovery,
			Severity: SeverityGreen,
			Description: fmt.Sprintf(
				"Week %s showed CTR recovery at %.1f%% of campaign average",
				w.Group, pctOfAvg*100),
			Recommendation: "Positive trend detected. Analyze what changed (creative " +
				"refresh, targeting adjustments, inventory mix) and apply learnings " +
				"to future campaigns.",
			Metrics: map[string]any{
				"week":       w.Group,
				"weekly_ctr": weeklyCTR,
				"avg_ctr":    avgCTR,
				"pct_of_avg": pctOfAvg,
			},
		})
	}
	return insights
}

// checkVCRDrop flags week-over-week declines in weighted VCR at or above
// the configured number of points.
func (e *Engine) checkVCRDrop() []Insight {
	if !e.table.HasColumn(delivery.ColVideoCompletePct) {
		return nil
	}

	weekly := rollup.GroupBy(e.table, rollup.ByWeek)

	var insights []Insight
	for i := 1; i < len(weekly); i++ {
		prev := weekly[i-1].VCR()
		cur := weekly[i].VCR()
		if prev == nil || cur == nil {
			continue
		}
		drop := *prev - *cur
		if drop < e.thresholds.VCRDropPoints {
			continue
		}
		insights = append(insights, Insight{
			RuleID:   RuleVCRDrop,
			Severity: SeverityAmber,
			Description: fmt.Sprintf(
				"Week %s had a %.1f percentage point VCR drop from previous week",
				weekly[i].Group, drop*100),
			Recommendation: "Video completion rate declined significantly. Review " +
				"video creative length, placement quality, and consider skip-ad " +
				"patterns in inventory.",
			Metrics: map[string]any{
				"week":         weekly[i].Group,
				"current_vcr":  *cur,
				"previous_vcr": *prev,
				"drop_points":  drop,
			},
		})
	}
	return insights
}

// checkPlatformConcentration flags any platform carrying at least the
// configured share of total impressions.
func (e *Engine) checkPlatformConcentration() []Insight {
	total := e.table.TotalImpressions()
	if total == 0 {
		return nil
	}

	platforms := rollup.GroupBy(e.table, rollup.ByPlatform)

	var insights []Insight
	for _, p := range platforms {
		share := float64(p.Impressions) / float64(total)
		if share < e.thresholds.PlatformConcentrationPct {
			continue
		}
		insights = append(insights, Insight{
			RuleID:   RulePlatformConcentration,
			Severity: SeverityAmber,
			Description: fmt.Sprintf(
				"Platform '%s' accounts for %.1f%% of total impressions",
				p.Group, share*100),
			Recommendation: "High platform concentration detected. Consider " +
				"diversifying across devices to reduce risk and reach broader " +
				"audiences. Test performance on underrepresented platforms.",
			Metrics: map[string]any{
				"platform":    p.Group,
				"impressions": p.Impressions,
				"share":       share,
			},
		})
	}
	return insights
}

// checkDomainConcentration flags a dominant top domain and a dominant
// top-5 set (the latter only when at least 5 domains exist).
func (e *Engine) checkDomainConcentration() []Insight {
	total := e.table.TotalImpressions()
	if total == 0 {
		return nil
	}

	domains := rollup.GroupBy(e.table, rollup.ByDomain)
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Impressions != domains[j].Impressions {
			return domains[i].Impressions > domains[j].Impressions
		}
		return domains[i].Group < domains[j].Group
	})

	var insights []Insight

	if len(domains) > 0 {
		top := domains[0]
		topShare := float64(top.Impressions) / float64(total)
		if topShare >= e.thresholds.TopDomainConcentrationPct {
			insights = append(insights, Insight{
				RuleID:   RuleTopDomainConcentration,
				Severity: SeverityRed,
				Description: fmt.Sprintf(
					"Top domain '%s' accounts for %.1f%% of total impressions",
					top.Group, topShare*100),
				Recommendation: "Single domain dominance creates inventory risk. " +
					"Diversify supply sources to improve reach and reduce dependency " +
					"on one publisher.",
				Metrics: map[string]any{
					"domain":      top.Group,
					"impressions": top.Impressions,
					"share":       topShare,
				},
			})
		}
	}

	if len(domains) >= 5 {
		var top5 int64
		names := make([]string, 0, 5)
		for _, d := range domains[:5] {
			top5 += d.Impressions
			names = append(names, d.Group)
		}
		top5Share := float64(top5) / float64(total)
		if top5Share >= e.thresholds.Top5DomainConcentrationPct {
			insights = append(insights, Insight{
				RuleID:   RuleTop5Concentration,
				Severity: SeverityAmber,
				Description: fmt.Sprintf(
					"Top 5 domains account for %.1f%% of total impressions",
					top5Share*100),
				Recommendation: "Inventory is concentrated in few domains. Consider " +
					"expanding domain allowlist or testing programmatic deals with " +
					"more publishers.",
				Metrics: map[string]any{
					"top5_domains":     names,
					"top5_impressions": top5,
					"share":            top5Share,
				},
			})
		}
	}

	return insights
}

// campaignCTR is the recomputed whole-campaign click-through rate.
func campaignCTR(t *delivery.Table) float64 {
	var clicks, impressions int64
	for _, rec := range t.Rows() {
		clicks += rec.Clicks
		impressions += rec.Impressions
	}
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions)
}
