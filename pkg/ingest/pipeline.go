// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/adxyz/adstats/pkg/delivery"
	"github.com/adxyz/adstats/pkg/log"
)

// RowError is one cell-level failure during row parsing.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

// ValidationError aggregates all row failures from one ingest run so a bad
// export is diagnosed in one pass instead of one error at a time.
type ValidationError struct {
	Errors   []RowError
	RowCount int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d of %d rows, first: %v",
		len(e.Errors), e.RowCount, e.Errors[0])
}

// Pipeline loads, cleans, enriches, and validates delivery exports.
type Pipeline struct {
	registry Registry
	log      log.Logger
}

// NewPipeline creates a pipeline over the given registry. A nil logger
// disables logging.
func NewPipeline(registry Registry, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Pipeline{registry: registry, log: logger}
}

// IngestFile runs the full pipeline on a CSV export on disk.
func (p *Pipeline) IngestFile(path, schemaName string) (*delivery.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	defer f.Close()
	return p.Ingest(f, schemaName)
}

// Ingest runs load -> rename -> clean -> enrich -> validate over a CSV
// stream and returns the resulting table.
func (p *Pipeline) Ingest(r io.Reader, schemaName string) (*delivery.Table, error) {
	schema, err := p.registry.Lookup(schemaName)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}
	cols, err := mapColumns(header, schema.ColumnMap)
	if err != nil {
		return nil, err
	}

	classes := schema.classes()
	nullable := make(map[string]bool, len(schema.NullableColumns))
	for _, c := range schema.NullableColumns {
		nullable[c] = true
	}

	var (
		rows      []delivery.Record
		rowErrors []RowError
		rowNum    int
	)
	for {
		raw, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row: %w", err)
		}
		rowNum++

		rec, errs := parseRow(raw, rowNum, cols, classes, nullable)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		rows = append(rows, rec)
	}

	if len(rowErrors) > 0 {
		return nil, &ValidationError{Errors: rowErrors, RowCount: rowNum}
	}

	columns := make([]string, 0, len(schema.ColumnMap)+2)
	for internal := range schema.ColumnMap {
		columns = append(columns, internal)
	}
	columns = append(columns, delivery.ColWeekStart, delivery.ColIsWeekend)

	table := delivery.NewTable(rows, columns)
	if err := table.Validate(); err != nil {
		return nil, err
	}

	p.log.Info("ingested delivery export",
		log.String("schema", schemaName),
		log.Int("rows", table.Len()),
		log.Int("columns", len(columns)))
	return table, nil
}

// mapColumns resolves each internal name to its index in the header. All
// mapped raw headers are required.
func mapColumns(header []string, columnMap map[string]string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	cols := make(map[string]int, len(columnMap))
	var missing []string
	for internal, raw := range columnMap {
		i, ok := idx[raw]
		if !ok {
			missing = append(missing, raw)
			continue
		}
		cols[internal] = i
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		available := make([]string, len(header))
		copy(available, header)
		sort.Strings(available)
		return nil, &delivery.MissingColumnsError{Missing: missing, Available: available}
	}
	return cols, nil
}

// parseRow cleans one raw CSV row into a record. The cleaner for each cell
// is dispatched from the schema's type classes, and every cell failure is
// collected rather than stopping at the first. Columns are processed in
// name order so errors come out deterministically.
func parseRow(raw []string, rowNum int, cols map[string]int, classes map[string]columnClass, nullable map[string]bool) (delivery.Record, []RowError) {
	names := make([]string, 0, len(cols))
	for col := range cols {
		names = append(names, col)
	}
	sort.Strings(names)

	values := make(map[string]any, len(cols))
	var errs []RowError
	for _, col := range names {
		i := cols[col]
		if i >= len(raw) {
			continue
		}
		s := strings.TrimSpace(raw[i])
		if s == "" {
			// An empty nullable cell stays absent; any other empty cell is
			// a row error.
			if !nullable[col] {
				errs = append(errs, RowError{Row: rowNum, Column: col, Err: fmt.Errorf("empty cell")})
			}
			continue
		}
		v, err := cleanCell(classes[col], s)
		if err != nil {
			errs = append(errs, RowError{Row: rowNum, Column: col, Err: err})
			continue
		}
		values[col] = v
	}
	if len(errs) > 0 {
		return delivery.Record{}, errs
	}

	// The pre-aggregated ctr and cpm cells were cleaned above for
	// validation only; their values are never trusted and all rates are
	// recomputed from the raw counters downstream.
	rec := delivery.Record{
		CampaignID:          intValue(values, delivery.ColCampaignID),
		CampaignEnd:         dateValue(values, delivery.ColCampaignEnd),
		ReportDay:           dateValue(values, delivery.ColReportDay),
		DayOfWeek:           stringValue(values, delivery.ColDayOfWeek),
		Domain:              stringValue(values, delivery.ColDomain),
		Platform:            stringValue(values, delivery.ColPlatform),
		Impressions:         intValue(values, delivery.ColImpressions),
		Clicks:              intValue(values, delivery.ColClicks),
		Spend:               floatValue(values, delivery.ColSpend),
		ViewableImpressions: intValue(values, delivery.ColViewableImpressions),
		VideoCompletes:      intValue(values, delivery.ColVideoCompletes),
		VideoCompletePct:    floatPointer(values, delivery.ColVideoCompletePct),
		ViewabilityPct:      floatPointer(values, delivery.ColViewabilityPct),
	}
	rec.WeekStart = weekStart(rec.ReportDay)
	rec.IsWeekend = isWeekend(rec.DayOfWeek)
	return rec, nil
}

// Accessors over cleaned values. Numeric kinds convert across so a custom
// schema may class a counter as float or a money column as plain numeric.

func intValue(values map[string]any, col string) int64 {
	switch v := values[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func floatValue(values map[string]any, col string) float64 {
	switch v := values[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func floatPointer(values map[string]any, col string) *float64 {
	if _, ok := values[col]; !ok {
		return nil
	}
	f := floatValue(values, col)
	return &f
}

func stringValue(values map[string]any, col string) string {
	if s, ok := values[col].(string); ok {
		return s
	}
	return ""
}

func dateValue(values map[string]any, col string) time.Time {
	if t, ok := values[col].(time.Time); ok {
		return t
	}
	return time.Time{}
}
