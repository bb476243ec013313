// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset owns the in-memory tabular data handle and everything
// that touches it directly: file readers, schema description, insight and
// statistics helpers, and spreadsheet export.
//
// A Dataset is exclusively owned by one analysis engine instance for the
// lifetime of a session. It is not safe for concurrent use; the session
// model guarantees one turn at a time.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column describes one column of the live dataset: its name and inferred
// type. The ordered schema is part of every generation request.
type Column struct {
	Name string
	Type string
}

// Dataset wraps a gota DataFrame together with the path it was read from.
type Dataset struct {
	frame dataframe.DataFrame
	path  string
}

// New wraps an already-parsed frame. Used by tests and by the reader.
func New(frame dataframe.DataFrame, path string) *Dataset {
	return &Dataset{frame: frame, path: path}
}

// Frame returns the current frame value. gota frames have value semantics:
// transformations return new frames, so handing the value out does not
// alias the Dataset's own state.
func (d *Dataset) Frame() dataframe.DataFrame {
	return d.frame
}

// SetFrame replaces the frame. Called by the analysis engine to commit the
// transformed frame after a successful sandbox run, never on failure.
func (d *Dataset) SetFrame(frame dataframe.DataFrame) {
	d.frame = frame
}

// Path returns the local file the dataset was read from.
func (d *Dataset) Path() string {
	return d.path
}

// Nrow returns the number of data rows.
func (d *Dataset) Nrow() int {
	return d.frame.Nrow()
}

// Ncol returns the number of columns.
func (d *Dataset) Ncol() int {
	return d.frame.Ncol()
}

// Schema returns the ordered column descriptors of the live frame.
func (d *Dataset) Schema() []Column {
	names := d.frame.Names()
	types := d.frame.Types()

	cols := make([]Column, 0, len(names))
	for i, name := range names {
		t := "string"
		if i < len(types) {
			t = string(types[i])
		}
		cols = append(cols, Column{Name: name, Type: t})
	}
	return cols
}

// SampleRows renders up to n data rows as an aligned text table, suitable
// for inclusion in a grounding prompt.
func (d *Dataset) SampleRows(n int) string {
	if n > d.frame.Nrow() {
		n = d.frame.Nrow()
	}
	if n <= 0 {
		return "(no rows)"
	}

	records := d.frame.Records()
	// records[0] is the header row.
	return RenderRecords(records[:n+1])
}

// RenderRecords formats header+data records as an aligned text table.
func RenderRecords(records [][]string) string {
	if len(records) == 0 {
		return ""
	}

	widths := make([]int, len(records[0]))
	for _, row := range records {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for _, row := range records {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// NumericValues extracts the parseable numeric values of a column,
// dropping NaNs. Values like "1,200" or "$300" are coerced.
//
// Outputs:
//   - []float64: The clean values. May be empty.
//   - error: Non-nil if the column does not exist.
func NumericValues(frame dataframe.DataFrame, column string) ([]float64, error) {
	col := frame.Col(column)
	if col.Err != nil {
		return nil, fmt.Errorf("dataset: column %q: %w", column, col.Err)
	}

	out := make([]float64, 0, col.Len())
	for _, raw := range col.Records() {
		v, ok := CoerceNumeric(raw)
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// CoerceNumeric parses a cell into a float, tolerating thousands
// separators, currency prefixes, and surrounding whitespace.
func CoerceNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// dateLayouts are the formats accepted for date cells, most common first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// ParseDate parses a date cell using the accepted layouts.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FloatSeries builds a named float series, the shape gota mutations expect.
func FloatSeries(values []float64, name string) series.Series {
	return series.New(values, series.Float, name)
}
