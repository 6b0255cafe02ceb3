// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ingest loads raw platform delivery exports into validated
// delivery tables. The pipeline is schema-driven: a YAML registry maps the
// export's verbose column headers to internal names and classifies each
// column for cleaning (currency strings, percent strings, dates).
package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema describes one report layout in the registry.
type Schema struct {
	// ColumnMap maps internal column names to the raw header in the export.
	ColumnMap map[string]string `yaml:"column_map"`

	// CurrencyColumns carry formatted money strings ("$1,234.56").
	CurrencyColumns []string `yaml:"currency_columns"`

	// PercentageColumns carry percent values scaled 0-100, with or without
	// a trailing % sign. Cleaning divides by 100.
	PercentageColumns []string `yaml:"percentage_columns"`

	// DateColumns carry dates in export or ISO format.
	DateColumns []string `yaml:"date_columns"`

	// IntegerColumns carry counts, possibly comma-grouped or written as
	// float strings ("3.0").
	IntegerColumns []string `yaml:"integer_columns"`

	// FloatColumns carry plain numeric values, possibly comma-grouped.
	FloatColumns []string `yaml:"float_columns"`

	// NullableColumns may contain empty cells; other columns treat an
	// empty cell as a row error.
	NullableColumns []string `yaml:"nullable_columns"`
}

// columnClass selects the cleaner applied to a column's cells.
type columnClass int

const (
	classString columnClass = iota
	classCurrency
	classPercentage
	classDate
	classInteger
	classFloat
)

// classes maps each internal column to its cleaning class from the
// schema's type lists. Columns in no list pass through as strings.
func (s Schema) classes() map[string]columnClass {
	m := make(map[string]columnClass)
	assign := func(cols []string, class columnClass) {
		for _, c := range cols {
			m[c] = class
		}
	}
	assign(s.CurrencyColumns, classCurrency)
	assign(s.PercentageColumns, classPercentage)
	assign(s.DateColumns, classDate)
	assign(s.IntegerColumns, classInteger)
	assign(s.FloatColumns, classFloat)
	return m
}

// Registry maps schema names to report layouts.
type Registry map[string]Schema

// LoadRegistry reads a schema registry from YAML.
func LoadRegistry(path string) (Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema registry %s: %w", path, err)
	}
	var reg Registry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("parse schema registry %s: %w", path, err)
	}
	return reg, nil
}

// Lookup returns the named schema or an error listing what the registry has.
func (r Registry) Lookup(name string) (Schema, error) {
	s, ok := r[name]
	if !ok {
		names := make([]string, 0, len(r))
		for n := range r {
			names = append(names, n)
		}
		return Schema{}, fmt.Errorf("unknown schema %q, registry has %v", name, names)
	}
	return s, nil
}

// SchemaDomainReport is the registry key for the per-domain daily export.
const SchemaDomainReport = "domain_report"

// DefaultRegistry returns the built-in registry covering the standard
// domain report export, for callers that do not ship a YAML file.
func DefaultRegistry() Registry {
	return Registry{
		SchemaDomainReport: {
			ColumnMap: map[string]string{
				"campaign_id":          "Line Items Campaign ID",
				"campaign_end":         "Line Items Campaign End Date",
				"report_day":           "Domain Report Day",
				"day_of_week":          "Domain Report Day of Week",
				"domain":               "Domain Report Domain",
				"platform":             "Domain Report Platform Device Type",
				"impressions":          "Domain Report Impressions",
				"clicks":               "Domain Report Clicks",
				"ctr":                  "Domain Report CTR",
				"cpm":                  "Domain Report CPM",
				"spend":                "Domain Report Spend",
				"viewable_impressions": "Domain Report Viewable Impressions",
				"viewability_pct":      "Domain Report Viewability Percent",
				"video_completes":      "Domain Report Video Completes",
				"video_complete_pct":   "Domain Report Video Complete Percent",
			},
			CurrencyColumns:   []string{"spend", "cpm"},
			PercentageColumns: []string{"ctr", "viewability_pct", "video_complete_pct"},
			DateColumns:       []string{"report_day", "campaign_end"},
			IntegerColumns: []string{
				"campaign_id", "impressions", "clicks",
				"viewable_impressions", "video_completes",
			},
			NullableColumns: []string{"viewability_pct", "video_complete_pct"},
		},
	}
}
