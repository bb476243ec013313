// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sandbox

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/salesagent/services/dataset"
	"github.com/AleutianAI/salesagent/services/viz"
)

// evaluator executes a validated program over a private copy of the
// dataset frame. It holds no reference back to the Dataset, so a failed
// run provably leaves the session's data untouched.
type evaluator struct {
	frame     dataframe.DataFrame
	chartPath string

	result   *Value
	artifact string
}

// run executes the program's steps in order. The context is checked
// between steps so a deadline cancels long programs promptly.
func (e *evaluator) run(ctx context.Context, prog *Program) error {
	for i, step := range prog.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sandbox: step %d: %w", i+1, err)
		}
		if e.result != nil {
			return fmt.Errorf("sandbox: step %d: operations after a terminal operation", i+1)
		}
		if err := e.step(step); err != nil {
			return fmt.Errorf("sandbox: step %d (%s): %w", i+1, step.Op, err)
		}
		if e.frame.Err != nil {
			return fmt.Errorf("sandbox: step %d (%s): %w", i+1, step.Op, e.frame.Err)
		}
	}

	if e.result == nil {
		switch {
		case strings.TrimSpace(prog.Answer) != "":
			e.result = &Value{Kind: ValueText, Text: prog.Answer}
		default:
			e.result = &Value{Kind: ValueTable, Table: e.frame.Records()}
		}
	}
	return nil
}

func (e *evaluator) step(s Step) error {
	switch s.Op {
	case OpCoerceNumeric:
		return e.coerceNumeric(s.Columns)
	case OpStripWhitespace:
		return e.stripWhitespace(s.Columns)
	case OpDropNull:
		return e.dropNull(s.Columns)
	case OpFilter:
		return e.filter(s)
	case OpFilterMonths:
		return e.filterMonths(s.Column, s.Months)
	case OpSelect:
		e.frame = e.frame.Select(s.Columns)
		return nil
	case OpSort:
		if s.Descending {
			e.frame = e.frame.Arrange(dataframe.RevSort(s.Column))
		} else {
			e.frame = e.frame.Arrange(dataframe.Sort(s.Column))
		}
		return nil
	case OpHead:
		return e.head(s.N)
	case OpDerive:
		return e.derive(s)
	case OpGroup:
		return e.group(s)
	case OpAggregate:
		return e.aggregate(s.Column, s.Func)
	case OpDescribe:
		return e.describe(s.Column)
	case OpPlot:
		return e.plot(s)
	case OpExport:
		return e.export(s.Path, s.Sheet)
	default:
		// Unreachable after validation; kept so a future op cannot be
		// silently skipped.
		return fmt.Errorf("operation %q is not resolvable", s.Op)
	}
}

// columnFloats coerces a column to row-aligned floats. Cells that do not
// parse become NaN so positions stay aligned with the frame.
func (e *evaluator) columnFloats(name string) ([]float64, error) {
	col := e.frame.Col(name)
	if col.Err != nil {
		return nil, fmt.Errorf("column %q: %w", name, col.Err)
	}

	out := make([]float64, col.Len())
	for i, raw := range col.Records() {
		v, ok := dataset.CoerceNumeric(raw)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, nil
}

func (e *evaluator) coerceNumeric(columns []string) error {
	for _, name := range columns {
		vals, err := e.columnFloats(name)
		if err != nil {
			return err
		}
		e.frame = e.frame.Mutate(dataset.FloatSeries(vals, name))
		if e.frame.Err != nil {
			return e.frame.Err
		}
	}
	return nil
}

func (e *evaluator) stripWhitespace(columns []string) error {
	for _, name := range columns {
		col := e.frame.Col(name)
		if col.Err != nil {
			return fmt.Errorf("column %q: %w", name, col.Err)
		}

		vals := col.Records()
		for i, v := range vals {
			vals[i] = strings.TrimSpace(v)
		}
		e.frame = e.frame.Mutate(series.New(vals, series.String, name))
		if e.frame.Err != nil {
			return e.frame.Err
		}
	}
	return nil
}

// dropNull keeps only rows where every named column holds a usable value.
// Empty cells and the textual null markers gota and spreadsheets produce
// are treated as null.
func (e *evaluator) dropNull(columns []string) error {
	cells := make([][]string, len(columns))
	for i, name := range columns {
		col := e.frame.Col(name)
		if col.Err != nil {
			return fmt.Errorf("column %q: %w", name, col.Err)
		}
		cells[i] = col.Records()
	}

	keep := make([]int, 0, e.frame.Nrow())
	for row := 0; row < e.frame.Nrow(); row++ {
		ok := true
		for _, col := range cells {
			if row >= len(col) || isNullCell(col[row]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, row)
		}
	}

	e.frame = e.frame.Subset(keep)
	return e.frame.Err
}

func isNullCell(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "nan", "na", "null", "nil", "none", "unknown", "<nil>":
		return true
	}
	return false
}

// filterComparators maps DSL operator names onto gota comparators for the
// operators gota implements natively. "in" and "contains" go through
// series.CompFunc instead.
var filterComparators = map[string]series.Comparator{
	"eq":  series.Eq,
	"neq": series.Neq,
	"gt":  series.Greater,
	"gte": series.GreaterEq,
	"lt":  series.Less,
	"lte": series.LessEq,
}

func (e *evaluator) filter(s Step) error {
	var f dataframe.F

	switch s.Operator {
	case "in":
		wanted := make(map[string]bool, len(s.Values))
		for _, v := range s.Values {
			wanted[comparandoString(v)] = true
		}
		f = dataframe.F{
			Colname:    s.Column,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return wanted[strings.TrimSpace(el.String())]
			},
		}

	case "contains":
		needle := comparandoString(s.Value)
		f = dataframe.F{
			Colname:    s.Column,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return strings.Contains(el.String(), needle)
			},
		}

	default:
		f = dataframe.F{
			Colname:    s.Column,
			Comparator: filterComparators[s.Operator],
			Comparando: s.Value,
		}
	}

	e.frame = e.frame.Filter(f)
	return e.frame.Err
}

// comparandoString normalizes a JSON-decoded scalar into its cell form.
// JSON numbers arrive as float64; integral ones must match "100", not
// "100.000000".
func comparandoString(v any) string {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return fmt.Sprintf("%d", int64(f))
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (e *evaluator) filterMonths(column string, months []int) error {
	col := e.frame.Col(column)
	if col.Err != nil {
		return fmt.Errorf("column %q: %w", column, col.Err)
	}

	wanted := make(map[int]bool, len(months))
	for _, m := range months {
		wanted[m] = true
	}

	keep := make([]int, 0, col.Len())
	for i, raw := range col.Records() {
		t, ok := dataset.ParseDate(raw)
		if ok && wanted[int(t.Month())] {
			keep = append(keep, i)
		}
	}

	e.frame = e.frame.Subset(keep)
	return e.frame.Err
}

func (e *evaluator) head(n int) error {
	if n >= e.frame.Nrow() {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	e.frame = e.frame.Subset(idx)
	return e.frame.Err
}

// derive computes a new column from two operands, each either a column
// name or a numeric literal, applied elementwise.
func (e *evaluator) derive(s Step) error {
	left, err := e.operand(s.Left)
	if err != nil {
		return err
	}
	right, err := e.operand(s.Right)
	if err != nil {
		return err
	}

	n := e.frame.Nrow()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		l := left(i)
		r := right(i)
		switch s.Operator {
		case "+":
			out[i] = l + r
		case "-":
			out[i] = l - r
		case "*":
			out[i] = l * r
		case "/":
			if r == 0 {
				out[i] = math.NaN()
			} else {
				out[i] = l / r
			}
		}
	}

	e.frame = e.frame.Mutate(dataset.FloatSeries(out, s.Column))
	return e.frame.Err
}

// operand resolves a derive operand to an indexed accessor: a column name
// yields its row values, a number yields a broadcast constant.
func (e *evaluator) operand(v any) (func(int) float64, error) {
	switch t := v.(type) {
	case string:
		vals, err := e.columnFloats(t)
		if err != nil {
			return nil, err
		}
		return func(i int) float64 {
			if i < len(vals) {
				return vals[i]
			}
			return math.NaN()
		}, nil
	case float64:
		return func(int) float64 { return t }, nil
	default:
		return nil, fmt.Errorf("operand %v is neither a column name nor a number", v)
	}
}

// groupAggregations maps DSL aggregation names onto gota's aggregation
// types for grouped frames. "unique" has no grouped form and is rejected
// at validation.
var groupAggregations = map[string]dataframe.AggregationType{
	"sum":    dataframe.Aggregation_SUM,
	"mean":   dataframe.Aggregation_MEAN,
	"min":    dataframe.Aggregation_MIN,
	"max":    dataframe.Aggregation_MAX,
	"count":  dataframe.Aggregation_COUNT,
	"median": dataframe.Aggregation_MEDIAN,
	"std":    dataframe.Aggregation_STD,
}

// group aggregates the frame by key columns. This is a terminal operation:
// the aggregated frame becomes both the result table and the committed
// frame.
func (e *evaluator) group(s Step) error {
	types := make([]dataframe.AggregationType, 0, len(s.Aggregations))
	cols := make([]string, 0, len(s.Aggregations))
	for _, agg := range s.Aggregations {
		types = append(types, groupAggregations[agg.Func])
		cols = append(cols, agg.Column)
	}

	grouped := e.frame.GroupBy(s.By...)
	if grouped.Err != nil {
		return grouped.Err
	}
	out := grouped.Aggregation(types, cols)
	if out.Err != nil {
		return out.Err
	}

	e.frame = out
	e.result = &Value{Kind: ValueTable, Table: out.Records()}
	return nil
}

// aggregate reduces one column to a scalar (or, for unique, a list).
// Terminal.
func (e *evaluator) aggregate(column, fn string) error {
	if fn == "unique" {
		col := e.frame.Col(column)
		if col.Err != nil {
			return fmt.Errorf("column %q: %w", column, col.Err)
		}
		seen := make(map[string]bool)
		var uniq []string
		for _, raw := range col.Records() {
			if !seen[raw] {
				seen[raw] = true
				uniq = append(uniq, raw)
			}
		}
		e.result = &Value{Kind: ValueList, List: uniq}
		return nil
	}

	if fn == "count" {
		col := e.frame.Col(column)
		if col.Err != nil {
			return fmt.Errorf("column %q: %w", column, col.Err)
		}
		var n int
		for _, raw := range col.Records() {
			if !isNullCell(raw) {
				n++
			}
		}
		e.result = &Value{Kind: ValueNumber, Number: float64(n)}
		return nil
	}

	vals, err := dataset.NumericValues(e.frame, column)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return fmt.Errorf("column %q has no numeric values", column)
	}

	var out float64
	switch fn {
	case "sum":
		out = dataset.Sum(vals)
	case "mean":
		out = stat.Mean(vals, nil)
	case "median":
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		out = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	case "std":
		out = stat.StdDev(vals, nil)
	case "min":
		out = vals[0]
		for _, v := range vals[1:] {
			if v < out {
				out = v
			}
		}
	case "max":
		out = vals[0]
		for _, v := range vals[1:] {
			if v > out {
				out = v
			}
		}
	}

	e.result = &Value{Kind: ValueNumber, Number: out}
	return nil
}

// describe produces a two-column statistics table for a numeric column.
// Terminal.
func (e *evaluator) describe(column string) error {
	stats, err := dataset.Describe(e.frame, column)
	if err != nil {
		return err
	}

	records := [][]string{
		{"statistic", "value"},
		{"count", fmt.Sprintf("%d", stats.Count)},
		{"mean", formatStat(stats.Mean)},
		{"std", formatStat(stats.StdDev)},
		{"min", formatStat(stats.Min)},
		{"25%", formatStat(stats.Q1)},
		{"50%", formatStat(stats.Median)},
		{"75%", formatStat(stats.Q3)},
		{"iqr", formatStat(stats.IQR)},
		{"max", formatStat(stats.Max)},
	}
	e.result = &Value{Kind: ValueTable, Table: records}
	return nil
}

func formatStat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// plot renders a chart from two columns and writes it to the sandbox's
// fixed chart path. Terminal.
func (e *evaluator) plot(s Step) error {
	labelsCol := e.frame.Col(s.X)
	if labelsCol.Err != nil {
		return fmt.Errorf("column %q: %w", s.X, labelsCol.Err)
	}
	values, err := e.columnFloats(s.Y)
	if err != nil {
		return err
	}

	kind := s.Kind
	if kind == "" {
		kind = viz.KindBar
	}
	title := s.Title
	if title == "" {
		title = fmt.Sprintf("%s by %s", s.Y, s.X)
	}

	if err := viz.RenderToFile(kind, title, labelsCol.Records(), values, e.chartPath); err != nil {
		return err
	}

	e.artifact = e.chartPath
	e.result = &Value{Kind: ValueText, Text: fmt.Sprintf("Chart saved to %s", e.chartPath)}
	return nil
}

// export writes the current frame to a spreadsheet file. The path must be
// local-relative so a program cannot write outside the working tree.
// Terminal.
func (e *evaluator) export(path, sheet string) error {
	if !filepath.IsLocal(path) {
		return fmt.Errorf("export path %q must be relative to the working directory", path)
	}

	if err := dataset.WriteFrame(e.frame, path, sheet); err != nil {
		return err
	}

	e.artifact = path
	e.result = &Value{Kind: ValueText, Text: fmt.Sprintf("Data exported to %s", path)}
	return nil
}
