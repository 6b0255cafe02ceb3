// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

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

// rec builds a delivery record with week start and day name derived from
// the report day.
func rec(reportDay string, imps, clicks int64, spend float64) delivery.Record {
	d := day(reportDay)
	offset := (int(d.Weekday()) + 6) % 7
	name := d.Weekday().String()
	return delivery.Record{
		CampaignID:  4512,
		ReportDay:   d,
		WeekStart:   d.AddDate(0, 0, -offset),
		DayOfWeek:   name,
		IsWeekend:   name == "Saturday" || name == "Sunday",
		Domain:      "example.com",
		Platform:    "CTV",
		Impressions: imps,
		Clicks:      clicks,
		Spend:       spend,
	}
}

func mustEngine(t *testing.T, table *delivery.Table, cfg Config) *Engine {
	t.Helper()
	e, err := New(table, cfg)
	require.NoError(t, err)
	return e
}

func TestNewValidatesColumns(t *testing.T) {
	require := require.New(t)

	table := delivery.NewTable([]delivery.Record{{Impressions: 1}},
		[]string{delivery.ColImpressions})
	_, err := New(table, Config{})
	require.Error(err)

	var missing *delivery.MissingColumnsError
	require.ErrorAs(err, &missing)
}

func TestNewAppliesDefaults(t *testing.T) {
	require := require.New(t)

	e := mustEngine(t, delivery.FromRecords([]delivery.Record{{Impressions: 1}}), Config{})
	cfg := e.Config()
	require.Equal(1.5, cfg.AnomalyThreshold)
	require.Equal(0.50, cfg.SpikeThreshold)
	require.Equal(0.40, cfg.BackloadThreshold)
}

func TestNewRejectsBadConfig(t *testing.T) {
	require := require.New(t)

	table := delivery.FromRecords([]delivery.Record{{Impressions: 1}})

	_, err := New(table, Config{CampaignGoal: -1})
	require.Error(err)

	_, err = New(table, Config{AnomalyThreshold: -2})
	require.Error(err)
}
