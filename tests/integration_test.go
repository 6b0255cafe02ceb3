// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tests

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/adstats/pkg/archive"
	"github.com/adxyz/adstats/pkg/config"
	"github.com/adxyz/adstats/pkg/engine"
	"github.com/adxyz/adstats/pkg/ingest"
	"github.com/adxyz/adstats/pkg/insight"
	"github.com/adxyz/adstats/pkg/report"
	"github.com/adxyz/adstats/pkg/stats"
)

const exportHeader = "Line Items Campaign ID,Line Items Campaign End Date," +
	"Domain Report Day,Domain Report Day of Week,Domain Report Domain," +
	"Domain Report Platform Device Type,Domain Report Impressions," +
	"Domain Report Clicks,Domain Report CTR,Domain Report CPM," +
	"Domain Report Spend,Domain Report Viewable Impressions," +
	"Domain Report Viewability Percent,Domain Report Video Completes," +
	"Domain Report Video Complete Percent"

// buildExport renders a campaign delivering at a flat 5% CTR, $10 CPM, 75%
// viewability, and 60% VCR, with impressions ramping up week over week:
// weekly totals 2200, 4500, 6500, 8000.
func buildExport() string {
	days := []struct {
		date string
		name string
		imps int64
	}{
		{"2025-03-06", "Thursday", 1000},
		{"2025-03-07", "Friday", 1200},
		{"2025-03-13", "Thursday", 2000},
		{"2025-03-14", "Friday", 2500},
		{"2025-03-20", "Thursday", 3000},
		{"2025-03-21", "Friday", 3500},
		{"2025-03-27", "Thursday", 8000},
	}

	var b strings.Builder
	b.WriteString(exportHeader + "\n")
	for _, d := range days {
		clicks := d.imps / 20
		spend := float64(d.imps) * 0.01
		viewable := d.imps * 3 / 4
		completes := d.imps * 3 / 5
		fmt.Fprintf(&b, "4512,2025-03-31,%s,%s,news.example.com,CTV,%d,%d,5.00%%,$10.00,$%.2f,%d,75%%,%d,60%%\n",
			d.date, d.name, d.imps, clicks, spend, viewable, completes)
	}
	// A second campaign in the same export, filtered out of the report.
	b.WriteString("9999,2025-03-31,2025-03-06,Thursday,other.example.com,Mobile,100,1,1.00%,$10.00,$1.00,75,75%,60,60%\n")
	return b.String()
}

func TestFullReportRun(t *testing.T) {
	require := require.New(t)

	cfg := config.Default()
	cfg.CampaignGoal = 25000

	arch, err := archive.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(err)
	defer arch.Close()

	svc := report.NewService(ingest.DefaultRegistry(), cfg, nil, nil, arch)

	out, err := svc.GenerateFromReader(strings.NewReader(buildExport()), 4512)
	require.NoError(err)
	require.NotEmpty(out.RunID)
	require.Equal(int64(4512), out.CampaignID)

	// Campaign KPIs recomputed from raw counters, second campaign excluded.
	require.Equal(int64(21200), out.KPIs.TotalImpressions)
	require.Equal(int64(1060), out.KPIs.TotalClicks)
	require.InDelta(212.0, out.KPIs.TotalSpend, 1e-9)
	require.InDelta(0.05, out.KPIs.CTR, 1e-12)
	require.InDelta(10.0, out.KPIs.CPM, 1e-9)
	require.NotNil(out.KPIs.ViewabilityPct)
	require.InDelta(0.75, *out.KPIs.ViewabilityPct, 1e-9)
	require.NotNil(out.KPIs.VCRPct)
	require.InDelta(0.60, *out.KPIs.VCRPct, 1e-9)

	// Weekly rollup.
	require.Len(out.WeeklyPerformance, 4)
	wantWeekly := []struct {
		week string
		imps int64
	}{
		{"2025-03-03", 2200},
		{"2025-03-10", 4500},
		{"2025-03-17", 6500},
		{"2025-03-24", 8000},
	}
	for i, want := range wantWeekly {
		require.Equal(want.week, out.WeeklyPerformance[i].Week)
		require.Equal(want.imps, out.WeeklyPerformance[i].Impressions)
	}
	require.NotNil(out.WeeklyPerformance[0].CTR)
	require.InDelta(5.0, *out.WeeklyPerformance[0].CTR, 1e-9)

	// The 2200 -> 4500 jump is the only spike; it shows up for
	// impressions, clicks, and spend but not the flat CTR.
	spikes := out.StatPack.Temporal.Spikes
	require.Len(spikes, 3)
	for _, sp := range spikes {
		require.Equal("2025-03-10", sp.Week)
		require.InDelta(104.55, sp.PctChange, 0.01)
	}

	// Goal: 21200 of 25000 over 22 of 26 campaign days.
	progress := out.StatPack.GoalTracking.Progress
	require.Equal(int64(21200), progress.Total)
	require.NotNil(progress.CompletionPct)
	require.InDelta(84.8, *progress.CompletionPct, 1e-9)
	require.NotNil(progress.IsOnTrack)
	require.True(*progress.IsOnTrack)

	// One platform and one domain carry everything, so the concentration
	// rules fire alongside the final-week pacing spike.
	var rules []string
	for _, in := range out.Insights {
		rules = append(rules, in.RuleID)
	}
	require.Equal([]string{
		insight.RulePacingSpike,
		insight.RulePlatformConcentration,
		insight.RuleTopDomainConcentration,
	}, rules)

	require.Len(out.PlatformBreakdown, 1)
	require.Equal("CTV", out.PlatformBreakdown[0].Platform)
	require.InDelta(100.0, out.PlatformBreakdown[0].ImpressionShare, 1e-9)

	require.Len(out.TopDomains, 1)
	require.Equal("news.example.com", out.TopDomains[0].Domain)
	require.InDelta(100.0, out.TopDomainSharePct, 1e-9)

	// The finished run lands in the archive with the full document.
	summaries, err := arch.List()
	require.NoError(err)
	require.Len(summaries, 1)
	require.Equal(out.RunID, summaries[0].RunID)
	require.Equal(len(out.Insights), summaries[0].Insights)

	run, found, err := arch.Get(out.RunID)
	require.NoError(err)
	require.True(found)

	var doc report.Output
	require.NoError(json.Unmarshal(run.Document, &doc))
	require.Equal(int64(4512), doc.CampaignID)
	require.Equal(int64(21200), doc.KPIs.TotalImpressions)
}

func TestUnknownCampaign(t *testing.T) {
	require := require.New(t)

	svc := report.NewService(ingest.DefaultRegistry(), config.Default(), nil, nil, nil)

	_, err := svc.GenerateFromReader(strings.NewReader(buildExport()), 7777)
	require.Error(err)

	var notFound *report.CampaignNotFoundError
	require.ErrorAs(err, &notFound)
	require.Equal(int64(7777), notFound.CampaignID)
	require.Equal([]int64{4512, 9999}, notFound.Available)
}

func TestAvailableCampaigns(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(os.WriteFile(path, []byte(buildExport()), 0o644))

	svc := report.NewService(ingest.DefaultRegistry(), config.Default(), nil, nil, nil)
	ids, err := svc.AvailableCampaigns(path)
	require.NoError(err)
	require.Equal([]int64{4512, 9999}, ids)
}

func TestPerRunGoalOverride(t *testing.T) {
	require := require.New(t)

	svc := report.NewService(ingest.DefaultRegistry(), config.Default(), nil, nil, nil)

	// No configured goal: the goal block carries only the total.
	out, err := svc.GenerateFromReader(strings.NewReader(buildExport()), 4512)
	require.NoError(err)
	require.Nil(out.StatPack.GoalTracking.Progress.Goal)

	out, err = svc.WithGoal(50000).GenerateFromReader(strings.NewReader(buildExport()), 4512)
	require.NoError(err)
	require.NotNil(out.StatPack.GoalTracking.Progress.Goal)
	require.Equal(int64(50000), *out.StatPack.GoalTracking.Progress.Goal)
	require.NotNil(out.StatPack.GoalTracking.Progress.CompletionPct)
	require.InDelta(42.4, *out.StatPack.GoalTracking.Progress.CompletionPct, 1e-9)

	// The override never touches the base service.
	out, err = svc.GenerateFromReader(strings.NewReader(buildExport()), 4512)
	require.NoError(err)
	require.Nil(out.StatPack.GoalTracking.Progress.Goal)
}

func TestBadExportFailsClosed(t *testing.T) {
	require := require.New(t)

	svc := report.NewService(ingest.DefaultRegistry(), config.Default(), nil, nil, nil)

	csv := exportHeader + "\n" +
		"4512,2025-03-31,notaday,Thursday,news.example.com,CTV,1000,50,5.00%,$10.00,$10.00,750,75%,600,60%\n"
	_, err := svc.GenerateFromReader(strings.NewReader(csv), 4512)
	require.Error(err)

	var verr *ingest.ValidationError
	require.ErrorAs(err, &verr)
	require.Len(verr.Errors, 1)
}

func TestEngineOverIngestedTable(t *testing.T) {
	require := require.New(t)

	p := ingest.NewPipeline(ingest.DefaultRegistry(), nil)
	table, err := p.Ingest(strings.NewReader(buildExport()), ingest.SchemaDomainReport)
	require.NoError(err)

	eng, err := engine.New(table, engine.Config{CampaignGoal: 25000})
	require.NoError(err)

	// Unfiltered table: both campaigns contribute to the totals.
	kpis := eng.CampaignKPIs()
	require.Equal(int64(21300), kpis.TotalImpressions)

	pattern := eng.DeliveryPattern()
	require.Equal(stats.TrendIncreasing, pattern.DailyTrend)
	require.True(pattern.IsBackLoaded)

	anomalies, err := eng.DetectAnomalies(engine.AnomalyMetricImpressions)
	require.NoError(err)
	require.Equal(4, anomalies.TotalWeeksAnalyzed)

	start, end := table.DateRange()
	require.Equal(time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), start)
	require.Equal(time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC), end)
}
