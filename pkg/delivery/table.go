// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package delivery

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Column names as they appear in the ingestion contract.
const (
	ColImpressions         = "impressions"
	ColClicks              = "clicks"
	ColSpend               = "spend"
	ColCTR                 = "ctr"
	ColCPM                 = "cpm"
	ColViewabilityPct      = "viewability_pct"
	ColViewableImpressions = "viewable_impressions"
	ColVideoCompletePct    = "video_complete_pct"
	ColVideoCompletes      = "video_completes"
	ColDomain              = "domain"
	ColPlatform            = "platform"
	ColReportDay           = "report_day"
	ColDayOfWeek           = "day_of_week"
	ColWeekStart           = "week_start"
	ColIsWeekend           = "is_weekend"
	ColCampaignID          = "campaign_id"
	ColCampaignEnd         = "campaign_end"
)

// RequiredColumns must be present for any analysis to run.
var RequiredColumns = []string{
	ColImpressions,
	ColClicks,
	ColSpend,
	ColCTR,
	ColWeekStart,
	ColReportDay,
}

// ErrEmptyTable is returned when an operation needs at least one row.
var ErrEmptyTable = errors.New("delivery table is empty")

// MissingColumnsError reports required columns absent from the source data.
type MissingColumnsError struct {
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: [%s], available: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// Table is an immutable view over validated delivery records plus the set
// of columns the source actually carried. Optional metric columns
// (video_complete_pct, viewability_pct) may be absent from a report; the
// engines consult HasColumn before using them.
type Table struct {
	rows    []Record
	columns map[string]bool
}

// NewTable builds a table over rows with an explicit source column set.
// The ingestion pipeline supplies the columns it mapped.
func NewTable(rows []Record, columns []string) *Table {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return &Table{rows: rows, columns: set}
}

// FromRecords builds a table assuming the full standard column set. Useful
// in tests and when records are constructed in-process.
func FromRecords(rows []Record) *Table {
	return NewTable(rows, []string{
		ColImpressions, ColClicks, ColSpend, ColCTR, ColCPM,
		ColViewabilityPct, ColViewableImpressions,
		ColVideoCompletePct, ColVideoCompletes,
		ColDomain, ColPlatform,
		ColReportDay, ColDayOfWeek, ColWeekStart, ColIsWeekend,
		ColCampaignID, ColCampaignEnd,
	})
}

// Validate checks the required column set and fails fast with a
// MissingColumnsError naming what is absent. Row-level types are the
// ingestion collaborator's responsibility and are not re-checked here.
func (t *Table) Validate() error {
	var missing []string
	for _, c := range RequiredColumns {
		if !t.columns[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing, Available: t.ColumnNames()}
	}
	return nil
}

// Rows returns the backing records. Callers must not mutate them.
func (t *Table) Rows() []Record {
	return t.rows
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the source carried the named column.
func (t *Table) HasColumn(name string) bool {
	return t.columns[name]
}

// ColumnNames returns the source columns in sorted order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.columns))
	for c := range t.columns {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

// CampaignID returns the campaign id of the first row, or 0 for an empty
// table. Tables are filtered to a single campaign upstream.
func (t *Table) CampaignID() int64 {
	if len(t.rows) == 0 {
		return 0
	}
	return t.rows[0].CampaignID
}

// DateRange returns the min and max report day across all rows.
func (t *Table) DateRange() (time.Time, time.Time) {
	if len(t.rows) == 0 {
		return time.Time{}, time.Time{}
	}
	min, max := t.rows[0].ReportDay, t.rows[0].ReportDay
	for _, r := range t.rows[1:] {
		if r.ReportDay.Before(min) {
			min = r.ReportDay
		}
		if r.ReportDay.After(max) {
			max = r.ReportDay
		}
	}
	return min, max
}

// TotalImpressions sums raw impressions across all rows.
func (t *Table) TotalImpressions() int64 {
	var total int64
	for _, r := range t.rows {
		total += r.Impressions
	}
	return total
}

// TotalSpend sums raw spend across all rows.
func (t *Table) TotalSpend() float64 {
	var total float64
	for _, r := range t.rows {
		total += r.Spend
	}
	return total
}
