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
	"encoding/json"
	"fmt"
	"strings"
)

// Operation names resolvable inside a program. Anything else fails
// validation before evaluation starts.
const (
	OpCoerceNumeric   = "coerce_numeric"
	OpStripWhitespace = "strip_whitespace"
	OpDropNull        = "drop_null"
	OpFilter          = "filter"
	OpFilterMonths    = "filter_months"
	OpSelect          = "select"
	OpSort            = "sort"
	OpHead            = "head"
	OpDerive          = "derive"
	OpGroup           = "group"
	OpAggregate       = "aggregate"
	OpDescribe        = "describe"
	OpPlot            = "plot"
	OpExport          = "export"
)

// Program is a parsed analysis program: an ordered list of typed
// operations over the bound frame, plus an optional plain-text answer used
// when no computation is needed.
type Program struct {
	Steps  []Step `json:"steps"`
	Answer string `json:"answer,omitempty"`
}

// Step is one operation. Exactly one op name is set; the remaining fields
// are that op's arguments. A single flat struct keeps decoding strict and
// simple — validation decides which fields each op may use.
type Step struct {
	Op string `json:"op"`

	// Column arguments.
	Columns []string `json:"columns,omitempty"`
	Column  string   `json:"column,omitempty"`

	// filter arguments.
	Operator string `json:"operator,omitempty"`
	Value    any    `json:"value,omitempty"`
	Values   []any  `json:"values,omitempty"`

	// filter_months argument.
	Months []int `json:"months,omitempty"`

	// group arguments.
	By           []string      `json:"by,omitempty"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`

	// aggregate / describe argument.
	Func string `json:"func,omitempty"`

	// head argument.
	N int `json:"n,omitempty"`

	// sort argument.
	Descending bool `json:"descending,omitempty"`

	// derive arguments: column names (string) or numeric literals.
	Left  any `json:"left,omitempty"`
	Right any `json:"right,omitempty"`

	// plot arguments.
	Kind  string `json:"kind,omitempty"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
	Title string `json:"title,omitempty"`

	// export arguments.
	Path  string `json:"path,omitempty"`
	Sheet string `json:"sheet,omitempty"`
}

// Aggregation pairs a column with an aggregation function for group ops.
type Aggregation struct {
	Column string `json:"column"`
	Func   string `json:"func"`
}

// aggregateFuncs are the functions accepted by aggregate and group ops.
var aggregateFuncs = map[string]bool{
	"sum": true, "mean": true, "min": true, "max": true,
	"count": true, "median": true, "std": true, "unique": true,
}

// filterOperators are the comparators accepted by the filter op.
var filterOperators = map[string]bool{
	"eq": true, "neq": true, "gt": true, "gte": true,
	"lt": true, "lte": true, "in": true, "contains": true,
}

// ParseProgram extracts and decodes the JSON program from a completion.
//
// Description:
//
//	Models occasionally surround the JSON object with stray text even when
//	told not to, so the parser locates the outermost braces before
//	decoding (same recovery used for router JSON elsewhere in our stack).
//
// Outputs:
//   - *Program: The decoded, validated program.
//   - error: Non-nil when no JSON object is present, decoding fails, or
//     validation rejects an operation.
func ParseProgram(text string) (*Program, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("sandbox: no JSON program found in completion")
	}

	var prog Program
	if err := json.Unmarshal([]byte(text[start:end+1]), &prog); err != nil {
		return nil, fmt.Errorf("sandbox: parsing program JSON: %w", err)
	}

	if err := prog.validate(); err != nil {
		return nil, err
	}
	return &prog, nil
}

// validate rejects unknown operations and malformed arguments before any
// evaluation happens, so a bad program can never leave the frame half
// transformed.
func (p *Program) validate() error {
	if len(p.Steps) == 0 && strings.TrimSpace(p.Answer) == "" {
		return fmt.Errorf("sandbox: empty program")
	}

	for i, s := range p.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("sandbox: step %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Step) validate() error {
	switch s.Op {
	case OpCoerceNumeric, OpStripWhitespace, OpDropNull:
		if len(s.Columns) == 0 {
			return fmt.Errorf("%s requires columns", s.Op)
		}

	case OpFilter:
		if s.Column == "" {
			return fmt.Errorf("filter requires a column")
		}
		if !filterOperators[s.Operator] {
			return fmt.Errorf("filter operator %q is not resolvable", s.Operator)
		}
		if s.Operator == "in" {
			if len(s.Values) == 0 {
				return fmt.Errorf("filter in requires values")
			}
		} else if s.Value == nil {
			return fmt.Errorf("filter %s requires a value", s.Operator)
		}

	case OpFilterMonths:
		if s.Column == "" || len(s.Months) == 0 {
			return fmt.Errorf("filter_months requires a column and months")
		}
		for _, m := range s.Months {
			if m < 1 || m > 12 {
				return fmt.Errorf("filter_months: month %d out of range", m)
			}
		}

	case OpSelect:
		if len(s.Columns) == 0 {
			return fmt.Errorf("select requires columns")
		}

	case OpSort:
		if s.Column == "" {
			return fmt.Errorf("sort requires a column")
		}

	case OpHead:
		if s.N <= 0 {
			return fmt.Errorf("head requires a positive n")
		}

	case OpDerive:
		if s.Column == "" || s.Left == nil || s.Right == nil {
			return fmt.Errorf("derive requires column, left, and right")
		}
		switch s.Operator {
		case "+", "-", "*", "/":
		default:
			return fmt.Errorf("derive operator %q is not resolvable", s.Operator)
		}

	case OpGroup:
		if len(s.By) == 0 || len(s.Aggregations) == 0 {
			return fmt.Errorf("group requires by and aggregations")
		}
		for _, agg := range s.Aggregations {
			if agg.Column == "" {
				return fmt.Errorf("group aggregation requires a column")
			}
			if agg.Func == "unique" || !aggregateFuncs[agg.Func] {
				return fmt.Errorf("group aggregation func %q is not resolvable", agg.Func)
			}
		}

	case OpAggregate:
		if s.Column == "" {
			return fmt.Errorf("aggregate requires a column")
		}
		if !aggregateFuncs[s.Func] {
			return fmt.Errorf("aggregate func %q is not resolvable", s.Func)
		}

	case OpDescribe:
		if s.Column == "" {
			return fmt.Errorf("describe requires a column")
		}

	case OpPlot:
		switch s.Kind {
		case "", "bar", "line", "pie":
		default:
			return fmt.Errorf("plot kind %q is not resolvable", s.Kind)
		}
		if s.X == "" || s.Y == "" {
			return fmt.Errorf("plot requires x and y columns")
		}

	case OpExport:
		if s.Path == "" {
			return fmt.Errorf("export requires a path")
		}

	default:
		return fmt.Errorf("operation %q is not resolvable", s.Op)
	}
	return nil
}
