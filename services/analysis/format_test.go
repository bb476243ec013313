// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/AleutianAI/salesagent/services/analysis/sandbox"
)

func TestFormatValueNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12345.6, "12,345.60"},
		{11000, "11,000.00"},
		{0.5, "0.50"},
		{-9876543.21, "-9,876,543.21"},
	}

	for _, tt := range tests {
		got := formatValue(sandbox.Value{Kind: sandbox.ValueNumber, Number: tt.in})
		if got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatValueTextPassthrough(t *testing.T) {
	text := "Chart saved to temp_downloads/chart.png"
	got := formatValue(sandbox.Value{Kind: sandbox.ValueText, Text: text})
	if got != text {
		t.Errorf("formatValue() = %q, want byte-identical passthrough", got)
	}
}

func TestFormatValueList(t *testing.T) {
	got := formatValue(sandbox.Value{
		Kind: sandbox.ValueList,
		List: []string{"north", "south", "east"},
	})
	if got != "north, south, east" {
		t.Errorf("formatValue() = %q", got)
	}
}

func TestFormatValueTableTruncation(t *testing.T) {
	records := [][]string{{"region", "sales"}}
	for i := 0; i < 15; i++ {
		records = append(records, []string{fmt.Sprintf("r%d", i), "100"})
	}

	got := formatValue(sandbox.Value{Kind: sandbox.ValueTable, Table: records})

	if !strings.Contains(got, "showing first 10 of 15 rows") {
		t.Errorf("formatValue() missing truncation note:\n%s", got)
	}
	// Header + 10 data rows + note line.
	if lines := strings.Split(got, "\n"); len(lines) != 12 {
		t.Errorf("formatValue() rendered %d lines, want 12", len(lines))
	}
	if strings.Contains(got, "r10") {
		t.Error("formatValue() rendered rows past the truncation limit")
	}
}

func TestFormatValueTableSmall(t *testing.T) {
	got := formatValue(sandbox.Value{Kind: sandbox.ValueTable, Table: [][]string{
		{"region", "sales"},
		{"north", "2800"},
	}})

	if strings.Contains(got, "showing first") {
		t.Errorf("small table should not be truncated:\n%s", got)
	}
	if !strings.Contains(got, "north") {
		t.Errorf("formatValue() = %q, missing data row", got)
	}
}

func TestFormatValueOther(t *testing.T) {
	got := formatValue(sandbox.Value{Kind: sandbox.ValueOther, Other: true})
	if got != "true" {
		t.Errorf("formatValue() = %q, want %q", got, "true")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"steps": []}`, `{"steps": []}`},
		{"json fence", "```json\n{\"steps\": []}\n```", `{"steps": []}`},
		{"bare fence", "```\n{\"steps\": []}\n```", `{"steps": []}`},
		{"surrounding whitespace", "  \n{\"steps\": []}\n  ", `{"steps": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
