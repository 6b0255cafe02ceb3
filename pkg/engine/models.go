// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"time"

	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/stats"
)

// Metric names used in WoW changes and anomaly detection.
const (
	MetricImpressions = "total_impressions"
	MetricClicks      = "total_clicks"
	MetricSpend       = "total_spend"
	MetricCTR         = "avg_ctr"
)

// Direction of an anomaly relative to the mean.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// WeeklyStats holds aggregated stats for a single ISO week.
type WeeklyStats struct {
	WeekStart      time.Time `json:"week_start"`
	Impressions    int64     `json:"impressions"`
	Clicks         int64     `json:"clicks"`
	Spend          float64   `json:"spend"`
	AvgCTR         float64   `json:"avg_ctr"`
	AvgCPM         float64   `json:"avg_cpm"`
	AvgVCR         *float64  `json:"avg_vcr,omitempty"`
	AvgViewability *float64  `json:"avg_viewability,omitempty"`
}

// WeekOverWeekChange is the WoW delta for a single metric in one week.
type WeekOverWeekChange struct {
	WeekStart     time.Time `json:"week_start"`
	MetricName    string    `json:"metric_name"`
	CurrentValue  float64   `json:"current_value"`
	PreviousValue float64   `json:"previous_value"`
	PctChange     float64   `json:"pct_change"` // (current - previous) / previous
	IsSpike       bool      `json:"is_spike"`
}

// TemporalStats is the complete temporal analysis output.
type TemporalStats struct {
	WeeklyTotals []WeeklyStats        `json:"weekly_totals"`
	WoWChanges   []WeekOverWeekChange `json:"wow_changes"`
	Spikes       []WeekOverWeekChange `json:"spikes"`
}

// DomainEfficiency holds efficiency metrics for a single domain.
type DomainEfficiency struct {
	Domain            string   `json:"domain"`
	AvgCTR            float64  `json:"avg_ctr"`
	AvgVCR            *float64 `json:"avg_vcr,omitempty"`
	TotalImpressions  int64    `json:"total_impressions"`
	TotalSpend        float64  `json:"total_spend"`
	CTRVCRCorrelation *float64 `json:"ctr_vcr_correlation,omitempty"`
	WeekendLift       *float64 `json:"weekend_lift,omitempty"`
	WeekdayAvgCTR     float64  `json:"weekday_avg_ctr"`
	WeekendAvgCTR     float64  `json:"weekend_avg_ctr"`
}

// PlatformPerformance holds performance metrics for one platform/device.
type PlatformPerformance struct {
	Platform         string   `json:"platform"`
	AvgCTR           float64  `json:"avg_ctr"`
	AvgVCR           *float64 `json:"avg_vcr,omitempty"`
	TotalImpressions int64    `json:"total_impressions"`
	TotalSpend       float64  `json:"total_spend"`
	ImpressionShare  float64  `json:"impression_share"`
}

// PerformanceGap is the spread between best and worst platform for one
// metric. Ties for max or min resolve to the platform that sorts first by
// name.
type PerformanceGap struct {
	MetricName  string  `json:"metric_name"`
	MaxPlatform string  `json:"max_platform"`
	MaxValue    float64 `json:"max_value"`
	MinPlatform string  `json:"min_platform"`
	MinValue    float64 `json:"min_value"`
	GapPct      float64 `json:"gap_pct"` // (max - min) / max
}

// EfficiencyMetrics is the complete efficiency analysis output.
type EfficiencyMetrics struct {
	DomainMetrics            []DomainEfficiency    `json:"domain_metrics"`
	PlatformMetrics          []PlatformPerformance `json:"platform_metrics"`
	PerformanceGaps          []PerformanceGap      `json:"performance_gaps"`
	OverallCTRVCRCorrelation *float64              `json:"overall_ctr_vcr_correlation,omitempty"`
	OverallWeekendLift       *float64              `json:"overall_weekend_lift,omitempty"`
}

// Anomaly is a single flagged week.
type Anomaly struct {
	WeekStart  time.Time `json:"week_start"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"value"`
	Mean       float64   `json:"mean"`
	Std        float64   `json:"std"`
	ZScore     float64   `json:"z_score"`
	Direction  Direction `json:"direction"`
}

// AnomalyReport is the complete anomaly detection output. A series with
// fewer than two weeks or zero variance yields an empty anomaly list while
// preserving the threshold and week count.
type AnomalyReport struct {
	Anomalies          []Anomaly `json:"anomalies"`
	ThresholdUsed      float64   `json:"threshold_used"`
	TotalWeeksAnalyzed int       `json:"total_weeks_analyzed"`
}

// GoalProgress is the campaign goal completion status.
type GoalProgress struct {
	TotalImpressions       int64   `json:"total_impressions"`
	CampaignGoal           int64   `json:"campaign_goal"`
	CompletionPct          float64 `json:"completion_pct"`
	IsOnTrack              bool    `json:"is_on_track"`
	ProjectedCompletionPct float64 `json:"projected_completion_pct"` // capped at 200
}

// DeliveryPattern describes delivery timing. The last-quarter split is a
// row-count quartile of observed days, not of elapsed time: with irregular
// day coverage this is a data-completeness assumption, not a proven
// campaign behavior.
type DeliveryPattern struct {
	IsBackLoaded           bool        `json:"is_back_loaded"`
	LastQuarterDeliveryPct float64     `json:"last_quarter_delivery_pct"`
	ThresholdUsed          float64     `json:"threshold_used"`
	DailyTrend             stats.Trend `json:"daily_trend"`
}

// DomainStats is a per-domain aggregate with share and underperformance
// flag.
type DomainStats struct {
	Domain            string   `json:"domain"`
	Impressions       int64    `json:"impressions"`
	Clicks            int64    `json:"clicks"`
	Spend             float64  `json:"spend"`
	AvgCTR            float64  `json:"avg_ctr"`
	AvgCPM            float64  `json:"avg_cpm"`
	AvgVCR            *float64 `json:"avg_vcr,omitempty"`
	AvgViewability    *float64 `json:"avg_viewability,omitempty"`
	ImpressionShare   float64  `json:"impression_share"`
	IsUnderperforming bool     `json:"is_underperforming"`
}

// CampaignKPIs are campaign-level totals recomputed from raw counters,
// never taken from source aggregates.
type CampaignKPIs struct {
	TotalImpressions         int64    `json:"total_impressions"`
	TotalClicks              int64    `json:"total_clicks"`
	TotalSpend               float64  `json:"total_spend"`
	TotalViewableImpressions int64    `json:"total_viewable_impressions"`
	TotalVideoCompletes      int64    `json:"total_video_completes"`
	CTR                      float64  `json:"ctr"`
	CPM                      float64  `json:"cpm"`
	ViewabilityPct           *float64 `json:"viewability_pct,omitempty"`
	VCRPct                   *float64 `json:"vcr_pct,omitempty"`
}

// DayOfWeekStats is the performance breakdown for one day of the week.
type DayOfWeekStats struct {
	DayOfWeek   string   `json:"day_of_week"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Spend       float64  `json:"spend"`
	AvgCTR      float64  `json:"avg_ctr"`
	AvgVCR      *float64 `json:"avg_vcr,omitempty"`
}

// NormalizedRow augments one input record with per-row normalized metrics.
// The input table itself is never mutated.
type NormalizedRow struct {
	Record delivery.Record `json:"record"`

	// ImpressionsWoWDelta is the WoW impressions change of the row's week,
	// nil for the first week.
	ImpressionsWoWDelta *float64 `json:"impressions_wow_delta,omitempty"`

	// CTRVsAvg is the row CTR z-score against the population; 0 when the
	// population has no variance.
	CTRVsAvg float64 `json:"ctr_vs_avg"`

	// VCRPercentile is the rank of the row's completion rate among non-null
	// rows, 0-1; nil when the column is absent or the row value is null.
	VCRPercentile *float64 `json:"vcr_percentile,omitempty"`

	// SpendPctOfTotal is row spend / total spend, 0 when total is 0.
	SpendPctOfTotal float64 `json:"spend_pct_of_total"`
}
