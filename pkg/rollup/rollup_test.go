// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adstats/pkg/delivery"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(v float64) *float64 { return &v }

func TestGroupByWeekWeightedCTR(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		{WeekStart: day("2025-03-03"), Impressions: 1000, Clicks: 10, Spend: 5},
		{WeekStart: day("2025-03-03"), Impressions: 3000, Clicks: 90, Spend: 15},
		{WeekStart: day("2025-03-10"), Impressions: 2000, Clicks: 20, Spend: 8},
	})

	weeks := GroupBy(table, ByWeek)
	require.Len(weeks, 2)

	// Ascending by week start.
	require.Equal("2025-03-03", weeks[0].Group)
	require.Equal("2025-03-10", weeks[1].Group)

	// Weighted: 100 clicks / 4000 impressions, not the mean of row CTRs.
	require.Equal(int64(4000), weeks[0].Impressions)
	require.InDelta(0.025, weeks[0].CTR(), 1e-9)
	require.InDelta(5.0, weeks[0].CPM(), 1e-9)
}

func TestGroupByWeightedVCR(t *testing.T) {
	require := require.New(t)

	// Null VCR rows contribute zero to the weighted numerator but their
	// impressions still count in the denominator.
	table := delivery.FromRecords([]delivery.Record{
		{Domain: "a.com", Impressions: 1000, VideoCompletePct: ptr(0.8)},
		{Domain: "a.com", Impressions: 1000, VideoCompletePct: nil},
	})

	domains := GroupBy(table, ByDomain)
	require.Len(domains, 1)

	vcr := domains[0].VCR()
	require.NotNil(vcr)
	require.InDelta(0.4, *vcr, 1e-9)
}

func TestVCRNilWithoutColumn(t *testing.T) {
	require := require.New(t)

	table := delivery.NewTable([]delivery.Record{
		{Domain: "a.com", Impressions: 100, VideoCompletePct: ptr(0.5)},
	}, []string{
		delivery.ColImpressions, delivery.ColClicks, delivery.ColSpend,
		delivery.ColCTR, delivery.ColWeekStart, delivery.ColReportDay,
		delivery.ColDomain,
	})

	domains := GroupBy(table, ByDomain)
	require.Len(domains, 1)
	require.Nil(domains[0].VCR())
	require.Nil(domains[0].Viewability())
}

func TestGroupByDayOfWeekOrder(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		{DayOfWeek: "Sunday", Impressions: 1},
		{DayOfWeek: "Monday", Impressions: 2},
		{DayOfWeek: "Friday", Impressions: 3},
		{DayOfWeek: "Monday", Impressions: 4},
	})

	days := GroupBy(table, ByDayOfWeek)
	require.Len(days, 3)
	require.Equal("Monday", days[0].Group)
	require.Equal("Friday", days[1].Group)
	require.Equal("Sunday", days[2].Group)
	require.Equal(int64(6), days[0].Impressions)
}

func TestGroupByNameOrder(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		{Platform: "Mobile", Impressions: 1},
		{Platform: "CTV", Impressions: 2},
		{Platform: "Desktop", Impressions: 3},
	})

	platforms := GroupBy(table, ByPlatform)
	require.Len(platforms, 3)
	require.Equal("CTV", platforms[0].Group)
	require.Equal("Desktop", platforms[1].Group)
	require.Equal("Mobile", platforms[2].Group)
}

func TestGroupByNone(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		{Domain: "a.com", Impressions: 100, Clicks: 5, Spend: 1, ViewableImpressions: 90},
		{Domain: "b.com", Impressions: 300, Clicks: 3, Spend: 2, ViewableImpressions: 150},
	})

	totals := GroupBy(table, ByNone)
	require.Len(totals, 1)
	require.Equal(int64(400), totals[0].Impressions)
	require.Equal(int64(8), totals[0].Clicks)
	require.InDelta(0.02, totals[0].CTR(), 1e-9)

	view := totals[0].Viewability()
	require.NotNil(view)
	require.InDelta(0.6, *view, 1e-9)
}

func TestZeroImpressionGroup(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{
		{Domain: "a.com", Impressions: 0, Clicks: 0},
	})

	domains := GroupBy(table, ByDomain)
	require.Len(domains, 1)
	require.Equal(0.0, domains[0].CTR())
	require.Equal(0.0, domains[0].CPM())
	require.Nil(domains[0].VCR())
	require.Nil(domains[0].Viewability())
}
