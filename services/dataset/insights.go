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
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Insights is the best-effort snapshot computed when a dataset loads.
//
// Computation is an optional side effect of loading: any failure here is
// swallowed by the caller and must never affect load success.
type Insights struct {
	SalesColumn   string
	TotalSales    float64
	AverageSales  float64
	MaxSales      float64
	MinSales      float64
	QuantityCol   string
	TotalQuantity float64
	AverageQty    float64
	TotalRecords  int
	Columns       []string

	// Trend fields, filled only when both a sales and a date column were
	// found. The latest quarter is the calendar quarter of the newest
	// parseable date in the data.
	DateColumn       string
	QuarterSales     float64
	PrevQuarterSales float64
	QuarterGrowthPct float64
	RecentAvgSales   float64
}

// CalculateInsights auto-discovers sales and quantity columns by name and
// summarizes them.
//
// Inputs:
//   - d: The freshly loaded dataset.
//
// Outputs:
//   - *Insights: The snapshot. Sales/quantity fields stay zero when no
//     matching column exists.
//   - error: Non-nil if a matched column cannot be read numerically.
func CalculateInsights(d *Dataset) (*Insights, error) {
	names := d.frame.Names()

	ins := &Insights{
		TotalRecords: d.frame.Nrow(),
		Columns:      names,
	}

	for _, name := range names {
		lower := strings.ToLower(name)
		if ins.SalesColumn == "" && (strings.Contains(lower, "sales") || strings.Contains(lower, "revenue")) {
			ins.SalesColumn = name
		}
		if ins.QuantityCol == "" && (strings.Contains(lower, "quantity") || strings.Contains(lower, "qty")) {
			ins.QuantityCol = name
		}
		if ins.DateColumn == "" && strings.Contains(lower, "date") {
			ins.DateColumn = name
		}
	}

	if ins.SalesColumn != "" {
		vals, err := NumericValues(d.frame, ins.SalesColumn)
		if err != nil {
			return nil, err
		}
		if len(vals) > 0 {
			ins.TotalSales = floats.Sum(vals)
			ins.AverageSales = stat.Mean(vals, nil)
			ins.MaxSales = floats.Max(vals)
			ins.MinSales = floats.Min(vals)

			if avg, err := MovingAverage(vals, 3); err == nil {
				ins.RecentAvgSales = avg[len(avg)-1]
			}
		}
	}

	if ins.SalesColumn != "" && ins.DateColumn != "" {
		addQuarterTrend(d, ins)
	}

	if ins.QuantityCol != "" {
		vals, err := NumericValues(d.frame, ins.QuantityCol)
		if err != nil {
			return nil, err
		}
		if len(vals) > 0 {
			ins.TotalQuantity = floats.Sum(vals)
			ins.AverageQty = stat.Mean(vals, nil)
		}
	}

	return ins, nil
}

// addQuarterTrend fills the quarter fields from the newest parseable date:
// sales summed over that date's calendar quarter, the quarter before it,
// and the growth between the two. Growth stays zero when the prior quarter
// had no sales.
func addQuarterTrend(d *Dataset, ins *Insights) {
	dates := d.frame.Col(ins.DateColumn)
	if dates.Err != nil {
		return
	}

	var latest time.Time
	found := false
	for _, raw := range dates.Records() {
		if t, ok := ParseDate(raw); ok && (!found || t.After(latest)) {
			latest = t
			found = true
		}
	}
	if !found {
		return
	}

	months := quarterMonths(int(latest.Month()))
	prev := quarterMonths(months[0] - 3)

	cur, err := MonthFilteredSum(d.frame, ins.SalesColumn, ins.DateColumn, months)
	if err != nil {
		return
	}
	ins.QuarterSales = cur

	prevSum, err := MonthFilteredSum(d.frame, ins.SalesColumn, ins.DateColumn, prev)
	if err != nil {
		return
	}
	ins.PrevQuarterSales = prevSum

	if growth, err := GrowthRate(prevSum, cur); err == nil {
		ins.QuarterGrowthPct = growth
	}
}

// quarterMonths returns the three calendar months of the quarter holding
// month m, wrapping across year boundaries.
func quarterMonths(m int) []int {
	m = ((m-1)%12 + 12) % 12 // zero-based, wrapped
	start := (m / 3) * 3
	return []int{start + 1, start + 2, start + 3}
}

// String renders the snapshot for the auto-discovery log line.
func (i *Insights) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d records, %d columns", i.TotalRecords, len(i.Columns))
	if i.SalesColumn != "" {
		fmt.Fprintf(&b, "; total %s %.2f (avg %.2f)", i.SalesColumn, i.TotalSales, i.AverageSales)
	}
	if i.QuantityCol != "" {
		fmt.Fprintf(&b, "; total %s %.0f", i.QuantityCol, i.TotalQuantity)
	}
	if i.DateColumn != "" && i.QuarterSales > 0 {
		fmt.Fprintf(&b, "; latest quarter %.2f", i.QuarterSales)
		if i.PrevQuarterSales != 0 {
			fmt.Fprintf(&b, " (%+.1f%% vs prior quarter)", i.QuarterGrowthPct)
		}
	}
	return b.String()
}
