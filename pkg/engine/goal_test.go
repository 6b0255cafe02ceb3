// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adstats/pkg/delivery"
)

// recEnding is rec with an explicit campaign end date.
func recEnding(reportDay, campaignEnd string, imps int64) delivery.Record {
	r := rec(reportDay, imps, 0, 0)
	r.CampaignEnd = day(campaignEnd)
	return r
}

func TestGoalProgress(t *testing.T) {
	require := require.New(t)

	// 21 of 25 campaign days observed, 21200 of 25000 impressions delivered.
	table := delivery.FromRecords([]delivery.Record{
		recEnding("2025-03-01", "2025-03-25", 10000),
		recEnding("2025-03-10", "2025-03-25", 6000),
		recEnding("2025-03-21", "2025-03-25", 5200),
	})
	e := mustEngine(t, table, Config{CampaignGoal: 25000})

	progress, err := e.GoalProgress()
	require.NoError(err)
	require.Equal(int64(21200), progress.TotalImpressions)
	require.Equal(int64(25000), progress.CampaignGoal)
	require.InDelta(84.8, progress.CompletionPct, 1e-9)

	// Time elapsed is 84%, delivery is at 84.8%: slightly ahead of pace.
	require.True(progress.IsOnTrack)
	require.InDelta(84.8/0.84, progress.ProjectedCompletionPct, 1e-9)
}

func TestGoalProgressBehindPace(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		recEnding("2025-03-01", "2025-03-25", 1000),
		recEnding("2025-03-21", "2025-03-25", 1000),
	})
	e := mustEngine(t, table, Config{CampaignGoal: 25000})

	progress, err := e.GoalProgress()
	require.NoError(err)
	require.InDelta(8.0, progress.CompletionPct, 1e-9)
	require.False(progress.IsOnTrack)
}

func TestGoalProgressProjectionCap(t *testing.T) {
	require := require.New(t)

	// One observed day out of a long campaign: a naive projection would
	// explode, so it is capped at 200.
	table := delivery.FromRecords([]delivery.Record{
		recEnding("2025-03-01", "2025-05-31", 20000),
	})
	e := mustEngine(t, table, Config{CampaignGoal: 25000})

	progress, err := e.GoalProgress()
	require.NoError(err)
	require.Equal(200.0, progress.ProjectedCompletionPct)
}

func TestGoalProgressNoGoal(t *testing.T) {
	require := require.New(t)

	e := mustEngine(t, delivery.FromRecords([]delivery.Record{rec("2025-03-01", 1, 0, 0)}), Config{})
	_, err := e.GoalProgress()
	require.ErrorIs(err, ErrNoGoal)
}

func TestGoalProgressEmptyTable(t *testing.T) {
	require := require.New(t)

	e := mustEngine(t, delivery.FromRecords(nil), Config{CampaignGoal: 1000})
	_, err := e.GoalProgress()
	require.ErrorIs(err, delivery.ErrEmptyTable)
}
