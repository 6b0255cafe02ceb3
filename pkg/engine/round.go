// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import "github.com/shopspring/decimal"

// All output rounding is round-half-to-even (bankers rounding), applied
// once at the stat-pack boundary. Ratios are 0-1 internally and become
// 0-100 percentages only here.

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(2).Float64()
	return f
}

func round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(4).Float64()
	return f
}

// pct2 converts a 0-1 ratio to a percentage rounded to 2 decimals.
func pct2(v float64) float64 {
	return round2(v * 100)
}

// pct4 converts a 0-1 ratio to a percentage rounded to 4 decimals.
func pct4(v float64) float64 {
	return round4(v * 100)
}

func pct2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := pct2(*v)
	return &p
}

func round4Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := round4(*v)
	return &p
}
