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

	"github.com/AleutianAI/salesagent/services/dataset"
)

// sampleRowCount bounds how many data rows the prompt shows. Three rows
// are enough for the model to see value formats without blowing up token
// usage on wide files.
const sampleRowCount = 3

// programGrammar documents the operation set for the model. It is the
// single source the model has for what it may emit; keep it in lockstep
// with the sandbox's validation table.
const programGrammar = `Respond with a single JSON object and nothing else:
{"steps": [...], "answer": "..."}

Each step is {"op": NAME, ...args}. Available operations:

Transformations (chain freely, applied in order):
  {"op":"coerce_numeric","columns":[...]}        parse cells like "$1,200" into numbers
  {"op":"strip_whitespace","columns":[...]}      trim cell whitespace
  {"op":"drop_null","columns":[...]}             drop rows with empty cells in these columns
  {"op":"filter","column":C,"operator":OP,"value":V}
      OP one of eq,neq,gt,gte,lt,lte,contains; use "values":[...] with OP "in"
  {"op":"filter_months","column":DATE_COL,"months":[11,12,1]}
      keep rows whose date falls in the given calendar months
  {"op":"select","columns":[...]}                keep only these columns
  {"op":"sort","column":C,"descending":true}     order rows
  {"op":"head","n":10}                           keep the first n rows
  {"op":"derive","column":NEW,"left":A,"operator":"*","right":B}
      new column from columns or numeric literals; operator +,-,*,/

Terminal operations (at most one, last):
  {"op":"aggregate","column":C,"func":F}         F: sum,mean,min,max,count,median,std,unique
  {"op":"group","by":[...],"aggregations":[{"column":C,"func":F}]}
  {"op":"describe","column":C}                   full descriptive statistics
  {"op":"plot","kind":"bar|line|pie","x":C,"y":C,"title":T}
  {"op":"export","path":"out.xlsx","sheet":"Sheet1"}

Rules:
- Run coerce_numeric on a column before comparing or aggregating it numerically.
- Run strip_whitespace on text columns before grouping or comparing their values.
- Run drop_null on the group keys before any plot.
- With no terminal operation, the final table is returned as the result.
- If the question needs no computation, use "steps": [] and put the reply in "answer".
- Use only column names from the schema below, exactly as written.`

// buildPrompt assembles the grounding prompt for one analysis request:
// the grammar, the live schema, a few sample rows, and the question.
func buildPrompt(question string, ds *dataset.Dataset) string {
	var b strings.Builder

	b.WriteString("You are a data analyst. Answer the question by writing a program over the loaded dataset.\n\n")
	b.WriteString(programGrammar)

	b.WriteString("\n\nDataset: ")
	fmt.Fprintf(&b, "%d rows, %d columns (from %s)\n", ds.Nrow(), ds.Ncol(), ds.Path())

	b.WriteString("Schema:\n")
	for _, col := range ds.Schema() {
		fmt.Fprintf(&b, "  - %s (%s)\n", col.Name, col.Type)
	}

	b.WriteString("\nSample rows:\n")
	b.WriteString(ds.SampleRows(sampleRowCount))

	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)

	return b.String()
}
