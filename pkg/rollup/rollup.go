// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rollup implements grouped, weighted aggregation over delivery
// tables. Derived ratios are always recomputed from the summed raw
// counters (CTR = sum clicks / sum impressions), never averaged from
// per-row ratios: the two differ whenever impression volume varies across
// rows, and source aggregates use inconsistent rounding.
package rollup

import (
	"sort"
	"time"

	"github.com/adxyz/adstats/pkg/delivery"
)

// Key selects the grouping dimension.
type Key string

const (
	ByWeek      Key = "week_start"
	ByDomain    Key = "domain"
	ByPlatform  Key = "platform"
	ByDayOfWeek Key = "day_of_week"
	ByDay       Key = "report_day"
	ByNone      Key = "none"
)

// dayOrder maps day names to calendar position, Monday first.
var dayOrder = map[string]int{
	"Monday":    0,
	"Tuesday":   1,
	"Wednesday": 2,
	"Thursday":  3,
	"Friday":    4,
	"Saturday":  5,
	"Sunday":    6,
}

// Rollup holds summed counters for one group plus weighted derived ratios.
type Rollup struct {
	Group string    // group label: domain, platform, or day name
	Date  time.Time // set when grouped by week_start or report_day

	Impressions         int64
	Clicks              int64
	Spend               float64
	ViewableImpressions int64
	VideoCompletes      int64

	// weightedVCR accumulates vcr_i * impressions_i with null vcr_i
	// contributing zero.
	weightedVCR float64

	hasVCR         bool
	hasViewability bool
}

// CTR is the weighted group click-through rate: sum clicks / sum impressions.
func (r Rollup) CTR() float64 {
	if r.Impressions == 0 {
		return 0
	}
	return float64(r.Clicks) / float64(r.Impressions)
}

// CPM is the weighted group cost per thousand: sum spend / sum impressions * 1000.
func (r Rollup) CPM() float64 {
	if r.Impressions == 0 {
		return 0
	}
	return r.Spend / float64(r.Impressions) * 1000
}

// VCR is the impression-weighted video completion rate. Nil when the source
// table lacked the video_complete_pct column or the group has no impressions.
func (r Rollup) VCR() *float64 {
	if !r.hasVCR || r.Impressions == 0 {
		return nil
	}
	v := r.weightedVCR / float64(r.Impressions)
	return &v
}

// Viewability is viewable impressions / impressions. Nil when the source
// table lacked the viewability columns or the group has no impressions.
func (r Rollup) Viewability() *float64 {
	if !r.hasViewability || r.Impressions == 0 {
		return nil
	}
	v := float64(r.ViewableImpressions) / float64(r.Impressions)
	return &v
}

// GroupBy aggregates a table along the given dimension. Groups are returned
// in deterministic order: ascending by date for temporal keys, calendar
// order Monday-Sunday for day-of-week, ascending by name otherwise. The
// stable ordering is what makes downstream max/min tie-breaks lexicographic
// rather than map-iteration-dependent.
func GroupBy(t *delivery.Table, key Key) []Rollup {
	hasVCR := t.HasColumn(delivery.ColVideoCompletePct)
	hasView := t.HasColumn(delivery.ColViewableImpressions)

	if key == ByNone {
		total := Rollup{hasVCR: hasVCR, hasViewability: hasView}
		for _, rec := range t.Rows() {
			total.add(rec)
		}
		return []Rollup{total}
	}

	groups := make(map[string]*Rollup)
	for _, rec := range t.Rows() {
		label, date := groupLabel(rec, key)
		g, ok := groups[label]
		if !ok {
			g = &Rollup{Group: label, Date: date, hasVCR: hasVCR, hasViewability: hasView}
			groups[label] = g
		}
		g.add(rec)
	}

	out := make([]Rollup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sortRollups(out, key)
	return out
}

func (r *Rollup) add(rec delivery.Record) {
	r.Impressions += rec.Impressions
	r.Clicks += rec.Clicks
	r.Spend += rec.Spend
	r.ViewableImpressions += rec.ViewableImpressions
	r.VideoCompletes += rec.VideoCompletes
	if rec.VideoCompletePct != nil {
		r.weightedVCR += *rec.VideoCompletePct * float64(rec.Impressions)
	}
}

func groupLabel(rec delivery.Record, key Key) (string, time.Time) {
	switch key {
	case ByWeek:
		return rec.WeekStart.Format("2006-01-02"), rec.WeekStart
	case ByDay:
		return rec.ReportDay.Format("2006-01-02"), rec.ReportDay
	case ByDomain:
		return rec.Domain, time.Time{}
	case ByPlatform:
		return rec.Platform, time.Time{}
	case ByDayOfWeek:
		return rec.DayOfWeek, time.Time{}
	}
	return "", time.Time{}
}

func sortRollups(rollups []Rollup, key Key) {
	switch key {
	case ByWeek, ByDay:
		sort.Slice(rollups, func(i, j int) bool {
			return rollups[i].Date.Before(rollups[j].Date)
		})
	case ByDayOfWeek:
		sort.Slice(rollups, func(i, j int) bool {
			oi, iok := dayOrder[rollups[i].Group]
			oj, jok := dayOrder[rollups[j].Group]
			if iok != jok {
				return iok // unknown names sort last
			}
			if oi != oj {
				return oi < oj
			}
			return rollups[i].Group < rollups[j].Group
		})
	default:
		sort.Slice(rollups, func(i, j int) bool {
			return rollups[i].Group < rollups[j].Group
		})
	}
}
