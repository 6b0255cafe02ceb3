// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adxyz/adstats/pkg/engine"
	"github.com/adxyz/adstats/pkg/insight"
)

// Output is the consolidated result of one report run. Ratio fields are
// presentation-scaled: percent values 0-100, rounded half-to-even, with
// zero-valued rates rendered as null.
type Output struct {
	RunID       string    `json:"run_id"`
	CampaignID  int64     `json:"campaign_id"`
	GeneratedAt time.Time `json:"generated_at"`

	KPIs              engine.CampaignKPIs     `json:"kpis"`
	WeeklyPerformance []WeeklyRow             `json:"weekly_performance"`
	PlatformBreakdown []PlatformRow           `json:"platform_breakdown"`
	DayOfWeek         []engine.DayOfWeekStats `json:"day_of_week_performance"`
	TopDomains        []engine.DomainStats    `json:"top_domains"`
	TopDomainSharePct float64                 `json:"top_10_domain_share_pct"`
	Insights          []insight.Insight       `json:"insights"`
	StatPack          *engine.StatPack        `json:"stat_pack,omitempty"`
}

// WeeklyRow is the presentation view of one week.
type WeeklyRow struct {
	Week        string   `json:"week"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Spend       float64  `json:"spend"`
	CTR         *float64 `json:"ctr"`
	CPM         *float64 `json:"cpm"`
	VCR         *float64 `json:"vcr"`
	Viewability *float64 `json:"viewability"`
}

// PlatformRow is the presentation view of one platform/device type.
type PlatformRow struct {
	Platform        string   `json:"platform"`
	Impressions     int64    `json:"impressions"`
	ImpressionShare float64  `json:"impression_share"`
	Spend           float64  `json:"spend"`
	CTR             *float64 `json:"ctr"`
	VCR             *float64 `json:"vcr"`
	CPM             *float64 `json:"cpm"`
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}

// pctPtr scales a 0-1 rate to percent and rounds, rendering zero as null
// the way the upstream report format does.
func pctPtr(v float64, places int32) *float64 {
	if v == 0 {
		return nil
	}
	p := round(v*100, places)
	return &p
}

// pctDeref is pctPtr over an already-nullable rate.
func pctDeref(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	return pctPtr(*v, places)
}

func roundPtr(v float64, places int32) *float64 {
	if v == 0 {
		return nil
	}
	p := round(v, places)
	return &p
}

func buildWeeklyRows(temporal engine.TemporalStats) []WeeklyRow {
	rows := make([]WeeklyRow, 0, len(temporal.WeeklyTotals))
	for _, w := range temporal.WeeklyTotals {
		rows = append(rows, WeeklyRow{
			Week:        w.WeekStart.Format("2006-01-02"),
			Impressions: w.Impressions,
			Clicks:      w.Clicks,
			Spend:       round(w.Spend, 2),
			CTR:         pctPtr(w.AvgCTR, 4),
			CPM:         roundPtr(w.AvgCPM, 2),
			VCR:         pctDeref(w.AvgVCR, 2),
			Viewability: pctDeref(w.AvgViewability, 2),
		})
	}
	return rows
}

func buildPlatformRows(platforms []engine.PlatformPerformance) []PlatformRow {
	rows := make([]PlatformRow, 0, len(platforms))
	for _, p := range platforms {
		row := PlatformRow{
			Platform:        p.Platform,
			Impressions:     p.TotalImpressions,
			ImpressionShare: round(p.ImpressionShare*100, 2),
			Spend:           round(p.TotalSpend, 2),
			CTR:             pctPtr(p.AvgCTR, 4),
			VCR:             pctDeref(p.AvgVCR, 2),
		}
		if p.TotalImpressions > 0 {
			cpm := round(p.TotalSpend/float64(p.TotalImpressions)*1000, 2)
			row.CPM = &cpm
		}
		rows = append(rows, row)
	}
	return rows
}
