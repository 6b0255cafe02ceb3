// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/adxyz/adstats/pkg/stats"
)

// StatPack is the consolidated, JSON-serializable snapshot of every
// analysis. Percent fields are 0-100 and rounded; everything upstream of
// this document stays in 0-1 ratios.
type StatPack struct {
	Meta         Meta                `json:"meta"`
	Aggregates   Aggregates          `json:"aggregates"`
	GoalTracking GoalTracking        `json:"goal_tracking"`
	Temporal     TemporalBlock       `json:"temporal"`
	Efficiency   EfficiencyBlock     `json:"efficiency"`
	Anomalies    []AnomalyEntry      `json:"anomalies"`
	Correlations map[string]*float64 `json:"correlations"`
	Normalized   NormalizedSummary   `json:"normalized"`
}

// Meta identifies the report run.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	ReportID    string    `json:"report_id"`
	CampaignID  int64     `json:"campaign_id"`
	DateRange   DateRange `json:"date_range"`
	TotalRows   int       `json:"total_rows"`
}

// DateRange is the observed report-day span.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Aggregates are campaign-level totals, recomputed from raw counters.
type Aggregates struct {
	TotalImpressions int64    `json:"total_impressions"`
	TotalClicks      int64    `json:"total_clicks"`
	TotalSpend       float64  `json:"total_spend"`
	AvgCTR           float64  `json:"avg_ctr"` // percent
	AvgCPM           float64  `json:"avg_cpm"`
	AvgVCR           *float64 `json:"avg_vcr"`         // percent
	AvgViewability   *float64 `json:"avg_viewability"` // percent
}

// GoalTracking groups goal progress and delivery pattern.
type GoalTracking struct {
	Progress        GoalProgressDoc    `json:"progress"`
	DeliveryPattern DeliveryPatternDoc `json:"delivery_pattern"`
}

// GoalProgressDoc is the goal block; all fields but Total are null when no
// goal is configured.
type GoalProgressDoc struct {
	Total         int64    `json:"total"`
	Goal          *int64   `json:"goal"`
	CompletionPct *float64 `json:"completion_pct"`
	IsOnTrack     *bool    `json:"is_on_track"`
	ProjectedPct  *float64 `json:"projected_pct"`
}

// DeliveryPatternDoc is the delivery-pattern block.
type DeliveryPatternDoc struct {
	IsBackLoaded   bool    `json:"is_back_loaded"`
	LastQuarterPct float64 `json:"last_quarter_pct"` // percent
	Trend          string  `json:"trend"`
}

// TemporalBlock groups the weekly series, WoW changes, and spikes.
type TemporalBlock struct {
	Weekly     []WeeklyDoc `json:"weekly"`
	WoWChanges []WoWDoc    `json:"wow_changes"`
	Spikes     []SpikeDoc  `json:"spikes"`
}

// WeeklyDoc is one week of the weekly performance series.
type WeeklyDoc struct {
	Week        string  `json:"week"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	CTR         float64 `json:"ctr"` // percent
	CPM         float64 `json:"cpm"`
}

// WoWDoc is one week-over-week change entry.
type WoWDoc struct {
	Week      string  `json:"week"`
	Metric    string  `json:"metric"`
	PctChange float64 `json:"pct_change"` // percent
}

// SpikeDoc is a WoW change that crossed the spike threshold.
type SpikeDoc struct {
	Week        string  `json:"week"`
	Metric      string  `json:"metric"`
	PctChange   float64 `json:"pct_change"` // percent
	Description string  `json:"description"`
}

// EfficiencyBlock groups domain/platform rankings, gaps, and weekend lift.
type EfficiencyBlock struct {
	TopDomains    []DomainRankDoc `json:"top_domains"`
	BottomDomains []DomainRankDoc `json:"bottom_domains"`
	Platforms     []PlatformDoc   `json:"platforms"`
	Gaps          []GapDoc        `json:"gaps"`
	WeekendLift   WeekendDoc      `json:"weekend_lift"`
}

// DomainRankDoc is one domain in the CTR ranking.
type DomainRankDoc struct {
	Domain      string   `json:"domain"`
	AvgCTR      float64  `json:"avg_ctr"`           // percent
	AvgVCR      *float64 `json:"avg_vcr"`           // percent
	Impressions int64    `json:"impressions"`
	WeekendLift *float64 `json:"weekend_lift"` // percent
}

// PlatformDoc is one platform in the comparison.
type PlatformDoc struct {
	Platform    string   `json:"platform"`
	AvgCTR      float64  `json:"avg_ctr"` // percent
	AvgVCR      *float64 `json:"avg_vcr"` // percent
	Impressions int64    `json:"impressions"`
	Spend       float64  `json:"spend"`
}

// GapDoc is one best/worst platform spread.
type GapDoc struct {
	Metric      string  `json:"metric"`
	MaxPlatform string  `json:"max_platform"`
	MaxValue    float64 `json:"max_value"`
	MinPlatform string  `json:"min_platform"`
	MinValue    float64 `json:"min_value"`
	GapPct      float64 `json:"gap_pct"` // percent
}

// WeekendDoc carries the overall weekend lift and CTR/VCR correlation.
type WeekendDoc struct {
	Lift              *float64 `json:"lift"` // percent
	CTRVCRCorrelation *float64 `json:"ctr_vcr_correlation"`
}

// AnomalyEntry is one flagged week in the stat pack.
type AnomalyEntry struct {
	Week      string  `json:"week"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"` // percent for CTR
	ZScore    float64 `json:"z_score"`
	Direction string  `json:"direction"`
}

// NormalizedSummary condenses the normalized-metrics table.
type NormalizedSummary struct {
	CTRVsAvgMean        float64  `json:"ctr_vs_avg_mean"`
	VCRPercentileMedian *float64 `json:"vcr_percentile_median"`
}

// StatPack runs every analysis and assembles the consolidated snapshot.
func (e *Engine) StatPack() (*StatPack, error) {
	temporal := e.TemporalStats()
	efficiency := e.EfficiencyMetrics()
	kpis := e.CampaignKPIs()
	pattern := e.DeliveryPattern()

	anomalies, err := e.DetectAnomalies(AnomalyMetricCTR)
	if err != nil {
		return nil, err
	}

	goalDoc := GoalProgressDoc{Total: e.table.TotalImpressions()}
	if e.cfg.CampaignGoal > 0 {
		progress, err := e.GoalProgress()
		if err != nil {
			return nil, err
		}
		goal := progress.CampaignGoal
		completion := round2(progress.CompletionPct)
		projected := round2(progress.ProjectedCompletionPct)
		onTrack := progress.IsOnTrack
		goalDoc = GoalProgressDoc{
			Total:         progress.TotalImpressions,
			Goal:          &goal,
			CompletionPct: &completion,
			IsOnTrack:     &onTrack,
			ProjectedPct:  &projected,
		}
	}

	start, end := e.table.DateRange()

	pack := &StatPack{
		Meta: Meta{
			GeneratedAt: time.Now().UTC(),
			ReportID:    uuid.NewString(),
			CampaignID:  e.table.CampaignID(),
			DateRange: DateRange{
				Start: start.Format("2006-01-02"),
				End:   end.Format("2006-01-02"),
			},
			TotalRows: e.table.Len(),
		},
		Aggregates: Aggregates{
			TotalImpressions: kpis.TotalImpressions,
			TotalClicks:      kpis.TotalClicks,
			TotalSpend:       round2(kpis.TotalSpend),
			AvgCTR:           pct4(kpis.CTR),
			AvgCPM:           round2(kpis.CPM),
			AvgVCR:           pct2Ptr(kpis.VCRPct),
			AvgViewability:   pct2Ptr(kpis.ViewabilityPct),
		},
		GoalTracking: GoalTracking{
			Progress: goalDoc,
			DeliveryPattern: DeliveryPatternDoc{
				IsBackLoaded:   pattern.IsBackLoaded,
				LastQuarterPct: pct2(pattern.LastQuarterDeliveryPct),
				Trend:          string(pattern.DailyTrend),
			},
		},
		Temporal:     buildTemporalBlock(temporal),
		Efficiency:   buildEfficiencyBlock(efficiency),
		Anomalies:    buildAnomalyEntries(anomalies),
		Correlations: e.buildCorrelations(efficiency),
		Normalized:   e.buildNormalizedSummary(),
	}

	return pack, nil
}

// ToJSON serializes the stat pack with indentation.
func (p *StatPack) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// ExecutiveSummary is the condensed key-metric view used in report headers.
type ExecutiveSummary struct {
	CampaignID        int64     `json:"campaign_id"`
	TotalImpressions  int64     `json:"total_impressions"`
	TotalSpend        float64   `json:"total_spend"`
	GoalCompletionPct *float64  `json:"goal_completion_pct"`
	AvgCTRPct         float64   `json:"avg_ctr_pct"`
	AvgVCRPct         *float64  `json:"avg_vcr_pct"`
	IsBackLoaded      bool      `json:"is_back_loaded"`
	AnomalyCount      int       `json:"anomaly_count"`
	TopSpike          *SpikeDoc `json:"top_spike,omitempty"`
}

// ExecutiveSummary condenses the pack to its headline numbers.
func (p *StatPack) ExecutiveSummary() ExecutiveSummary {
	summary := ExecutiveSummary{
		CampaignID:        p.Meta.CampaignID,
		TotalImpressions:  p.Aggregates.TotalImpressions,
		TotalSpend:        p.Aggregates.TotalSpend,
		GoalCompletionPct: p.GoalTracking.Progress.CompletionPct,
		AvgCTRPct:         round2(p.Aggregates.AvgCTR),
		AvgVCRPct:         p.Aggregates.AvgVCR,
		IsBackLoaded:      p.GoalTracking.DeliveryPattern.IsBackLoaded,
		AnomalyCount:      len(p.Anomalies),
	}
	if len(p.Temporal.Spikes) > 0 {
		top := p.Temporal.Spikes[0]
		summary.TopSpike = &top
	}
	return summary
}

func buildTemporalBlock(t TemporalStats) TemporalBlock {
	block := TemporalBlock{}

	for _, w := range t.WeeklyTotals {
		block.Weekly = append(block.Weekly, WeeklyDoc{
			Week:        w.WeekStart.Format("2006-01-02"),
			Impressions: w.Impressions,
			Clicks:      w.Clicks,
			Spend:       round2(w.Spend),
			CTR:         pct4(w.AvgCTR),
			CPM:         round2(w.AvgCPM),
		})
	}

	for _, c := range t.WoWChanges {
		block.WoWChanges = append(block.WoWChanges, WoWDoc{
			Week:      c.WeekStart.Format("2006-01-02"),
			Metric:    c.MetricName,
			PctChange: pct2(c.PctChange),
		})
	}

	for _, s := range t.Spikes {
		kind := "spike"
		if s.PctChange < 0 {
			kind = "drop"
		}
		block.Spikes = append(block.Spikes, SpikeDoc{
			Week:        s.WeekStart.Format("2006-01-02"),
			Metric:      s.MetricName,
			PctChange:   pct2(s.PctChange),
			Description: fmt.Sprintf("%.1f%% %s", math.Abs(s.PctChange)*100, kind),
		})
	}

	return block
}

func buildEfficiencyBlock(eff EfficiencyMetrics) EfficiencyBlock {
	ranked := append([]DomainEfficiency(nil), eff.DomainMetrics...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AvgCTR != ranked[j].AvgCTR {
			return ranked[i].AvgCTR > ranked[j].AvgCTR
		}
		return ranked[i].Domain < ranked[j].Domain
	})

	rankDocs := make([]DomainRankDoc, 0, len(ranked))
	for _, d := range ranked {
		rankDocs = append(rankDocs, DomainRankDoc{
			Domain:      d.Domain,
			AvgCTR:      pct4(d.AvgCTR),
			AvgVCR:      pct2Ptr(d.AvgVCR),
			Impressions: d.TotalImpressions,
			WeekendLift: pct2Ptr(d.WeekendLift),
		})
	}

	block := EfficiencyBlock{
		TopDomains:    rankDocs,
		BottomDomains: []DomainRankDoc{},
		WeekendLift: WeekendDoc{
			Lift:              pct2Ptr(eff.OverallWeekendLift),
			CTRVCRCorrelation: round4Ptr(eff.OverallCTRVCRCorrelation),
		},
	}
	if len(rankDocs) > 10 {
		block.TopDomains = rankDocs[:10]
		block.BottomDomains = rankDocs[len(rankDocs)-10:]
	}

	for _, p := range eff.PlatformMetrics {
		block.Platforms = append(block.Platforms, PlatformDoc{
			Platform:    p.Platform,
			AvgCTR:      pct4(p.AvgCTR),
			AvgVCR:      pct2Ptr(p.AvgVCR),
			Impressions: p.TotalImpressions,
			Spend:       round2(p.TotalSpend),
		})
	}

	for _, g := range eff.PerformanceGaps {
		block.Gaps = append(block.Gaps, GapDoc{
			Metric:      g.MetricName,
			MaxPlatform: g.MaxPlatform,
			MaxValue:    g.MaxValue,
			MinPlatform: g.MinPlatform,
			MinValue:    g.MinValue,
			GapPct:      pct2(g.GapPct),
		})
	}

	return block
}

func buildAnomalyEntries(report AnomalyReport) []AnomalyEntry {
	entries := make([]AnomalyEntry, 0, len(report.Anomalies))
	for _, a := range report.Anomalies {
		entries = append(entries, AnomalyEntry{
			Week:      a.WeekStart.Format("2006-01-02"),
			Metric:    a.MetricName,
			Value:     pct4(a.Value),
			ZScore:    round2(a.ZScore),
			Direction: string(a.Direction),
		})
	}
	return entries
}

func (e *Engine) buildCorrelations(eff EfficiencyMetrics) map[string]*float64 {
	rows := e.table.Rows()
	xs := make([]*float64, len(rows))
	ys := make([]*float64, len(rows))
	for i, rec := range rows {
		xs[i] = rec.CTRPtr()
		ys[i] = rec.ViewabilityPct
	}
	ctrViewability := stats.PearsonCorrelation(xs, ys, overallCorrelationMinSamples)

	return map[string]*float64{
		"ctr_vcr":         round4Ptr(eff.OverallCTRVCRCorrelation),
		"ctr_viewability": round4Ptr(ctrViewability),
	}
}

func (e *Engine) buildNormalizedSummary() NormalizedSummary {
	normalized := e.NormalizedTable()

	ctrVsAvg := make([]float64, 0, len(normalized))
	var percentiles []float64
	for _, row := range normalized {
		ctrVsAvg = append(ctrVsAvg, row.CTRVsAvg)
		if row.VCRPercentile != nil {
			percentiles = append(percentiles, *row.VCRPercentile)
		}
	}

	summary := NormalizedSummary{
		CTRVsAvgMean: round4(stats.Mean(ctrVsAvg)),
	}
	if len(percentiles) > 0 {
		median := round2(stats.Median(percentiles))
		summary.VCRPercentileMedian = &median
	}
	return summary
}
