// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package report orchestrates ingestion, analytics, and insight generation
// into one consolidated campaign report.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/adxyz/adstats/pkg/archive"
	"github.com/adxyz/adstats/pkg/config"
	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/engine"
	"github.com/adxyz/adstats/pkg/ingest"
	"github.com/adxyz/adstats/pkg/insight"
	"github.com/adxyz/adstats/pkg/log"
	"github.com/adxyz/adstats/pkg/metric"
)

// CampaignNotFoundError reports a campaign ID absent from the export,
// listing the IDs that are present.
type CampaignNotFoundError struct {
	CampaignID int64
	Available  []int64
}

func (e *CampaignNotFoundError) Error() string {
	return fmt.Sprintf("campaign %d not found, available: %v", e.CampaignID, e.Available)
}

// Service generates campaign reports from delivery exports.
type Service struct {
	pipeline *ingest.Pipeline
	cfg      config.Config
	log      log.Logger
	metrics  *metric.Metrics
	archive  *archive.Archive
}

// NewService creates a report service. Logger, metrics, and archive are
// optional; nil disables the corresponding concern.
func NewService(registry ingest.Registry, cfg config.Config, logger log.Logger, metrics *metric.Metrics, arch *archive.Archive) *Service {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Service{
		pipeline: ingest.NewPipeline(registry, logger),
		cfg:      cfg,
		log:      logger,
		metrics:  metrics,
		archive:  arch,
	}
}

// WithGoal returns a copy of the service with a per-run impression goal,
// overriding the configured one.
func (s *Service) WithGoal(goal int64) *Service {
	clone := *s
	clone.cfg.CampaignGoal = goal
	return &clone
}

// GenerateFromFile ingests a delivery export and generates the report for
// one campaign.
func (s *Service) GenerateFromFile(path string, campaignID int64) (*Output, error) {
	table, err := s.ingest(func() (*delivery.Table, error) {
		return s.pipeline.IngestFile(path, ingest.SchemaDomainReport)
	})
	if err != nil {
		return nil, err
	}
	return s.Generate(table, campaignID)
}

// GenerateFromReader is GenerateFromFile over an already-open CSV stream,
// used by the HTTP API for uploads.
func (s *Service) GenerateFromReader(r io.Reader, campaignID int64) (*Output, error) {
	table, err := s.ingest(func() (*delivery.Table, error) {
		return s.pipeline.Ingest(r, ingest.SchemaDomainReport)
	})
	if err != nil {
		return nil, err
	}
	return s.Generate(table, campaignID)
}

func (s *Service) ingest(load func() (*delivery.Table, error)) (*delivery.Table, error) {
	start := time.Now()
	table, err := load()
	if err != nil {
		s.fail()
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IngestDuration.Observe(time.Since(start).Seconds())
		s.metrics.RowsIngested.Add(float64(table.Len()))
	}
	return table, nil
}

// Generate runs all analytics and insight rules for one campaign over an
// already-ingested table.
func (s *Service) Generate(table *delivery.Table, campaignID int64) (*Output, error) {
	start := time.Now()

	filtered, err := filterCampaign(table, campaignID)
	if err != nil {
		s.fail()
		return nil, err
	}

	eng, err := engine.New(filtered, s.cfg.EngineConfig())
	if err != nil {
		s.fail()
		return nil, err
	}

	pack, err := eng.StatPack()
	if err != nil {
		s.fail()
		return nil, fmt.Errorf("assemble stat pack: %w", err)
	}

	temporal := eng.TemporalStats()
	topDomains, topShare := eng.DomainStats(
		engine.DefaultTopN, engine.DefaultShareThreshold, engine.DefaultCTRPercentile)

	insights := insight.New(filtered, s.cfg.Insights).GenerateAll()

	out := &Output{
		RunID:             uuid.NewString(),
		CampaignID:        campaignID,
		GeneratedAt:       time.Now().UTC(),
		KPIs:              eng.CampaignKPIs(),
		WeeklyPerformance: buildWeeklyRows(temporal),
		PlatformBreakdown: buildPlatformRows(eng.PlatformStats()),
		DayOfWeek:         eng.DayOfWeekPerformance(),
		TopDomains:        topDomains,
		TopDomainSharePct: round(topShare*100, 2),
		Insights:          insights,
		StatPack:          pack,
	}

	if s.metrics != nil {
		s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		s.metrics.ReportsGenerated.Inc()
		for _, in := range insights {
			s.metrics.InsightsFired.WithLabelValues(string(in.Severity)).Inc()
		}
	}
	s.log.Info("generated campaign report",
		log.String("run_id", out.RunID),
		log.Int("campaign_id", int(campaignID)),
		log.Int("rows", filtered.Len()),
		log.Int("insights", len(insights)))

	if s.archive != nil {
		if err := s.archiveRun(out); err != nil {
			// Archiving is best-effort; the report itself succeeded.
			s.log.Warn("failed to archive report run",
				log.String("run_id", out.RunID), log.Error(err))
		}
	}
	return out, nil
}

// AvailableCampaigns lists the distinct campaign IDs in an export.
func (s *Service) AvailableCampaigns(path string) ([]int64, error) {
	table, err := s.pipeline.IngestFile(path, ingest.SchemaDomainReport)
	if err != nil {
		return nil, err
	}
	return campaignIDs(table), nil
}

func (s *Service) archiveRun(out *Output) error {
	doc, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return s.archive.Put(archive.Run{
		RunID:       out.RunID,
		CampaignID:  out.CampaignID,
		GeneratedAt: out.GeneratedAt,
		Insights:    len(out.Insights),
		Document:    doc,
	})
}

func (s *Service) fail() {
	if s.metrics != nil {
		s.metrics.ReportFailures.Inc()
	}
}

// filterCampaign narrows a table to one campaign, preserving the source
// column set.
func filterCampaign(table *delivery.Table, campaignID int64) (*delivery.Table, error) {
	var rows []delivery.Record
	for _, rec := range table.Rows() {
		if rec.CampaignID == campaignID {
			rows = append(rows, rec)
		}
	}
	if len(rows) == 0 {
		return nil, &CampaignNotFoundError{
			CampaignID: campaignID,
			Available:  campaignIDs(table),
		}
	}
	return delivery.NewTable(rows, table.ColumnNames()), nil
}

func campaignIDs(table *delivery.Table) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, rec := range table.Rows() {
		if !seen[rec.CampaignID] {
			seen[rec.CampaignID] = true
			ids = append(ids, rec.CampaignID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
