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
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"

	"github.com/AleutianAI/salesagent/services/dataset"
)

func promptDataset() *dataset.Dataset {
	frame := dataframe.LoadRecords([][]string{
		{"date", "region", "sales"},
		{"2024-11-10", "north", "1000"},
		{"2024-12-05", "south", "2500"},
	}, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	return dataset.New(frame, "sales.csv")
}

func TestBuildPromptHygieneRules(t *testing.T) {
	prompt := buildPrompt("total sales by region", promptDataset())

	// The model only does what the grammar tells it to; each data-hygiene
	// rule has to be spelled out or generated programs skip the step.
	rules := []string{
		"coerce_numeric on a column before comparing or aggregating",
		"strip_whitespace on text columns before grouping or comparing",
		"drop_null on the group keys before any plot",
	}
	for _, rule := range rules {
		if !strings.Contains(prompt, rule) {
			t.Errorf("prompt missing rule %q", rule)
		}
	}
}

func TestBuildPromptGroundsTheQuestion(t *testing.T) {
	prompt := buildPrompt("total sales by region", promptDataset())

	for _, want := range []string{
		"2 rows, 3 columns",
		"region",
		"2024-11-10",
		"Question: total sales by region",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
