// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stats provides the numeric primitives behind the analytical
// engine: correlation, trend classification, z-scores, and weekend lift.
// Nothing here knows about the delivery schema; all functions operate on
// plain float slices and degrade to nil / "stable" rather than erroring
// when the sample is too thin.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Trend classifies the direction of an ordered series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Default significance gates for DetectTrend.
const (
	trendPThreshold = 0.05
	trendRThreshold = 0.3
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := mstats.Mean(values)
	return m
}

// StdDev returns the population standard deviation, or 0 for an empty slice.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sd, _ := mstats.StandardDeviationPopulation(values)
	return sd
}

// PearsonCorrelation computes the Pearson correlation coefficient over
// paired samples. Pairs where either side is nil are dropped. Returns nil
// when fewer than minSamples valid pairs remain or either series has zero
// variance.
func PearsonCorrelation(x, y []*float64, minSamples int) *float64 {
	if len(x) != len(y) {
		return nil
	}

	var xs, ys []float64
	for i := range x {
		if x[i] == nil || y[i] == nil {
			continue
		}
		xs = append(xs, *x[i])
		ys = append(ys, *y[i])
	}

	if len(xs) < minSamples {
		return nil
	}
	if StdDev(xs) == 0 || StdDev(ys) == 0 {
		return nil
	}

	r, err := mstats.Pearson(xs, ys)
	if err != nil || math.IsNaN(r) {
		return nil
	}
	return &r
}

// DetectTrend classifies an ordered series via least-squares regression
// against its index. The slope counts as a real trend only when the
// two-sided p-value is below 0.05 and |r| exceeds 0.3; fewer than 3 points
// is always stable.
func DetectTrend(values []float64) Trend {
	if len(values) < 3 {
		return TrendStable
	}

	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
		sumYY += v * v
	}

	denomX := n*sumXX - sumX*sumX
	denomY := n*sumYY - sumY*sumY
	if denomX == 0 || denomY == 0 {
		return TrendStable
	}

	slope := (n*sumXY - sumX*sumY) / denomX
	r := (n*sumXY - sumX*sumY) / math.Sqrt(denomX*denomY)

	p := regressionPValue(r, len(values))
	if p < trendPThreshold && math.Abs(r) > trendRThreshold {
		if slope > 0 {
			return TrendIncreasing
		}
		return TrendDecreasing
	}
	return TrendStable
}

// regressionPValue is the two-sided p-value for the correlation coefficient
// of a simple linear regression, from the t statistic with n-2 degrees of
// freedom.
func regressionPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.Survival(math.Abs(t))
}

// ZScores returns the z-score of every value against the population mean
// and standard deviation of the slice. Zero variance yields all zeros.
func ZScores(values []float64) []float64 {
	scores := make([]float64, len(values))
	mean := Mean(values)
	std := StdDev(values)
	if std == 0 {
		return scores
	}
	for i, v := range values {
		scores[i] = (v - mean) / std
	}
	return scores
}

// WeekendLift computes (weekend mean - weekday mean) / weekday mean.
// Returns nil when either series is empty or the weekday mean is 0.
func WeekendLift(weekend, weekday []float64) *float64 {
	if len(weekend) == 0 || len(weekday) == 0 {
		return nil
	}
	weekdayAvg := Mean(weekday)
	if weekdayAvg == 0 {
		return nil
	}
	lift := (Mean(weekend) - weekdayAvg) / weekdayAvg
	return &lift
}

// Quantile returns the q-th quantile (0-1) of values using linear
// interpolation between closest ranks. Note this is the numpy-style
// default, not nearest-rank; thresholds derived from it can land between
// observed values. Returns 0 for an empty slice.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the 50th percentile of values, or 0 for an empty slice.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}
