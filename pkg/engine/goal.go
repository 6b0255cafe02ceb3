// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"time"

	"github.com/adxyz/adstats/pkg/delivery"
)

// GoalProgress computes completion against the configured impressions goal
// plus an elapsed-time projection. Returns ErrNoGoal when no goal is
// configured; this is the one analysis that treats missing configuration as
// a caller error rather than degrading.
func (e *Engine) GoalProgress() (GoalProgress, error) {
	if e.cfg.CampaignGoal == 0 {
		return GoalProgress{}, ErrNoGoal
	}
	if e.table.Len() == 0 {
		return GoalProgress{}, delivery.ErrEmptyTable
	}

	totalImpressions := e.table.TotalImpressions()
	completionPct := float64(totalImpressions) / float64(e.cfg.CampaignGoal) * 100

	dataStart, dataEnd := e.table.DateRange()
	campaignEnd := maxCampaignEnd(e.table)

	daysElapsed := daysBetween(dataStart, dataEnd) + 1
	totalDays := daysBetween(dataStart, campaignEnd) + 1

	timePctElapsed := 1.0
	if totalDays > 0 {
		timePctElapsed = float64(daysElapsed) / float64(totalDays)
	}

	projected := completionPct
	if timePctElapsed > 0 {
		projected = completionPct / timePctElapsed
	}
	if projected > 200 {
		projected = 200
	}

	return GoalProgress{
		TotalImpressions:       totalImpressions,
		CampaignGoal:           e.cfg.CampaignGoal,
		CompletionPct:          completionPct,
		IsOnTrack:              completionPct >= timePctElapsed*100,
		ProjectedCompletionPct: projected,
	}, nil
}

func maxCampaignEnd(t *delivery.Table) time.Time {
	var max time.Time
	for _, rec := range t.Rows() {
		if rec.CampaignEnd.After(max) {
			max = rec.CampaignEnd
		}
	}
	return max
}

// daysBetween counts whole calendar days from a to b, ignoring clock time.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
