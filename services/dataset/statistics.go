// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DescriptiveStats summarizes the distribution of one numeric column.
type DescriptiveStats struct {
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	Q1     float64
	Q3     float64
	IQR    float64
	Count  int
}

// Describe computes descriptive statistics for a column, coercing values
// numerically and ignoring cells that do not parse.
func Describe(frame dataframe.DataFrame, column string) (*DescriptiveStats, error) {
	vals, err := NumericValues(frame, column)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("dataset: column %q has no numeric values", column)
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	return &DescriptiveStats{
		Mean:   stat.Mean(vals, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		StdDev: stat.StdDev(vals, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     q1,
		Q3:     q3,
		IQR:    q3 - q1,
		Count:  len(vals),
	}, nil
}

// MonthFilteredSum totals a value column over the rows whose date column
// falls in the given calendar months. This is the "quarter sales"
// computation: months {11, 12, 1} covers a Nov-Dec-Jan quarter regardless
// of year. Unparseable dates and values are skipped.
func MonthFilteredSum(frame dataframe.DataFrame, valueColumn, dateColumn string, months []int) (float64, error) {
	dates := frame.Col(dateColumn)
	if dates.Err != nil {
		return 0, fmt.Errorf("dataset: column %q: %w", dateColumn, dates.Err)
	}
	values := frame.Col(valueColumn)
	if values.Err != nil {
		return 0, fmt.Errorf("dataset: column %q: %w", valueColumn, values.Err)
	}

	wanted := make(map[int]bool, len(months))
	for _, m := range months {
		wanted[m] = true
	}

	dateCells := dates.Records()
	valueCells := values.Records()

	var total float64
	for i, raw := range dateCells {
		t, ok := ParseDate(raw)
		if !ok || !wanted[int(t.Month())] {
			continue
		}
		if i < len(valueCells) {
			if v, ok := CoerceNumeric(valueCells[i]); ok {
				total += v
			}
		}
	}
	return total, nil
}

// GrowthRate returns the percentage change from previous to current.
func GrowthRate(previous, current float64) (float64, error) {
	if previous == 0 {
		return 0, fmt.Errorf("dataset: growth rate undefined for zero base")
	}
	return (current - previous) / previous * 100, nil
}

// MovingAverage computes a trailing moving average over values. Positions
// before the window fills hold the average of the values seen so far.
func MovingAverage(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("dataset: moving average window must be positive")
	}

	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = stat.Mean(values[start:i+1], nil)
	}
	return out, nil
}

// Sum is a convenience wrapper kept next to the other column helpers.
func Sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}
