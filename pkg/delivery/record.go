// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package delivery defines the validated delivery-record table consumed by
// the analytics and insight engines. One record is one day/domain/platform
// delivery slice. Records are treated as read-only everywhere downstream;
// every derived table is newly allocated.
package delivery

import "time"

// Record is a single delivery slice as produced by the ingestion pipeline.
// Ratio fields (CTR, VCR, viewability) are 0-1 decimals. VideoCompletePct
// and ViewabilityPct are frequently absent in source reports and therefore
// nullable.
type Record struct {
	CampaignID  int64     `json:"campaign_id"`
	CampaignEnd time.Time `json:"campaign_end"`

	ReportDay time.Time `json:"report_day"`
	DayOfWeek string    `json:"day_of_week"`
	WeekStart time.Time `json:"week_start"`
	IsWeekend bool      `json:"is_weekend"`

	Domain   string `json:"domain"`
	Platform string `json:"platform"`

	Impressions         int64   `json:"impressions"`
	Clicks              int64   `json:"clicks"`
	Spend               float64 `json:"spend"`
	ViewableImpressions int64   `json:"viewable_impressions"`
	VideoCompletes      int64   `json:"video_completes"`

	VideoCompletePct *float64 `json:"video_complete_pct,omitempty"`
	ViewabilityPct   *float64 `json:"viewability_pct,omitempty"`
}

// CTR is the row click-through rate recomputed from raw counters. Source
// reports carry a pre-aggregated ctr column with inconsistent rounding, so
// it is never trusted.
func (r Record) CTR() float64 {
	if r.Impressions == 0 {
		return 0
	}
	return float64(r.Clicks) / float64(r.Impressions)
}

// CPM is the row cost per thousand impressions recomputed from raw counters.
func (r Record) CPM() float64 {
	if r.Impressions == 0 {
		return 0
	}
	return r.Spend / float64(r.Impressions) * 1000
}

// Viewability is the row viewable rate recomputed from raw counters.
func (r Record) Viewability() float64 {
	if r.Impressions == 0 {
		return 0
	}
	return float64(r.ViewableImpressions) / float64(r.Impressions)
}

// CTRPtr returns the recomputed CTR as a nullable value, nil when the row
// served no impressions. Used for correlation pairing.
func (r Record) CTRPtr() *float64 {
	if r.Impressions == 0 {
		return nil
	}
	v := r.CTR()
	return &v
}
