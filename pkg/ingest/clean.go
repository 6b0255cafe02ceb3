// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when parsing date cells. Exports mix the
// platform's US short form with ISO dates depending on who downloaded them.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/06 15:04",
	"01/02/06",
	"01/02/2006",
	"1/2/2006",
}

// cleanCurrency strips currency symbols and digit grouping and parses the
// remainder exactly. Grouping commas are stripped wholesale, which also
// handles Indian-style 45,00,000 grouping.
func cleanCurrency(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, sym := range []string{",", "$", "₹"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid currency value %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// cleanPercent parses a percent cell scaled 0-100 ("5.2%" or "5.2") into a
// 0-1 decimal.
func cleanPercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percent value %q: %w", s, err)
	}
	return f / 100, nil
}

// cleanInteger parses a count cell, tolerating grouping commas and float
// renderings like "3.0".
func cleanInteger(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value %q: %w", s, err)
	}
	return int64(f), nil
}

// cleanFloat parses a numeric cell, tolerating grouping commas.
func cleanFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	return f, nil
}

// cleanCell dispatches a cell to the cleaner for its schema type class.
func cleanCell(class columnClass, s string) (any, error) {
	switch class {
	case classCurrency:
		return cleanCurrency(s)
	case classPercentage:
		return cleanPercent(s)
	case classDate:
		return cleanDate(s)
	case classInteger:
		return cleanInteger(s)
	case classFloat:
		return cleanFloat(s)
	}
	return s, nil
}

// cleanDate parses a date cell against the known export layouts.
func cleanDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date value %q", s)
}
