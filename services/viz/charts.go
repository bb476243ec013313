// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package viz renders dataset charts to PNG files. It is a collaborator of
// the sandbox's plot operation and deliberately knows nothing about the
// DSL: callers hand it labels and values.
package viz

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Kind names for the supported chart types.
const (
	KindBar  = "bar"
	KindLine = "line"
	KindPie  = "pie"
)

const (
	chartWidth  = 1024
	chartHeight = 512
)

// Render writes a chart of the given kind to w.
//
// Inputs:
//   - kind: One of "bar", "line", "pie".
//   - title: Chart title. May be empty.
//   - labels: Category labels, parallel to values.
//   - values: Numeric values. Must be non-empty and match labels in length.
//   - w: Destination for the PNG bytes.
//
// Outputs:
//   - error: Non-nil on unknown kind, empty/mismatched input, or render failure.
func Render(kind, title string, labels []string, values []float64, w io.Writer) error {
	if len(values) == 0 {
		return fmt.Errorf("viz: nothing to plot")
	}
	if len(labels) != len(values) {
		return fmt.Errorf("viz: %d labels for %d values", len(labels), len(values))
	}

	switch kind {
	case KindBar:
		return renderBar(title, labels, values, w)
	case KindLine:
		return renderLine(title, values, w)
	case KindPie:
		return renderPie(title, labels, values, w)
	default:
		return fmt.Errorf("viz: unknown chart kind %q", kind)
	}
}

// RenderToFile renders a chart to a PNG file, creating parent directories.
func RenderToFile(kind, title string, labels []string, values []float64, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("viz: creating chart directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("viz: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Render(kind, title, labels, values, f); err != nil {
		return err
	}

	slog.Info("Chart rendered",
		slog.String("kind", kind),
		slog.String("file", filepath.Base(path)),
		slog.Int("points", len(values)),
	)
	return nil
}

func renderBar(title string, labels []string, values []float64, w io.Writer) error {
	bars := make([]chart.Value, 0, len(values))
	for i, v := range values {
		bars = append(bars, chart.Value{Label: labels[i], Value: v})
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 40,
		Bars:     bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering bar chart: %w", err)
	}
	return nil
}

func renderLine(title string, values []float64, w io.Writer) error {
	xs := make([]float64, len(values))
	for i := range values {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: values,
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering line chart: %w", err)
	}
	return nil
}

func renderPie(title string, labels []string, values []float64, w io.Writer) error {
	slices := make([]chart.Value, 0, len(values))
	for i, v := range values {
		if v <= 0 {
			// Pie slices must be positive; zero or negative values are
			// dropped rather than failing the whole chart.
			continue
		}
		slices = append(slices, chart.Value{Label: labels[i], Value: v})
	}
	if len(slices) == 0 {
		return fmt.Errorf("viz: no positive values for pie chart")
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  chartHeight, // square canvas reads better for pies
		Height: chartHeight,
		Values: slices,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("viz: rendering pie chart: %w", err)
	}
	return nil
}
