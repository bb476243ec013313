// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis owns one session's analysis turn: load a dataset, build
// a grounding prompt from the live schema, request exactly one program
// from the LLM, run it in the sandbox, and format the result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/salesagent/services/analysis/sandbox"
	"github.com/AleutianAI/salesagent/services/dataset"
	"github.com/AleutianAI/salesagent/services/llm"
)

// chartFileName is the fixed name for rendered charts inside the
// download directory. One chart per session; a new plot overwrites it.
const chartFileName = "chart.png"

// ErrNoData is returned by Execute when no dataset has been loaded yet.
// The orchestrator's state machine should make this unreachable; it exists
// so a wiring bug fails loudly instead of sending the LLM an empty schema.
var ErrNoData = errors.New("analysis: no dataset loaded")

// Result is the outcome of one successful analysis turn.
type Result struct {
	// Formatted is the user-facing rendering of the value.
	Formatted string

	// Value is the typed result, for callers that branch on kind.
	Value sandbox.Value

	// ArtifactPath is set when the program produced a chart or export file.
	ArtifactPath string
}

// Engine generates and executes analysis programs for one session.
//
// Thread Safety: NOT safe for concurrent use. The session model runs one
// turn at a time.
type Engine struct {
	client    llm.Client
	sandbox   *sandbox.Sandbox
	maxTokens int

	ds *dataset.Dataset
}

// NewEngine constructs an analysis engine.
//
// Inputs:
//   - client: The code-generation LLM client.
//   - downloadDir: Directory for produced artifacts (charts).
//   - execTimeout: Per-program sandbox deadline.
//   - maxTokens: Completion token ceiling for generation.
func NewEngine(client llm.Client, downloadDir string, execTimeout time.Duration, maxTokens int) *Engine {
	return &Engine{
		client:    client,
		sandbox:   sandbox.New(filepath.Join(downloadDir, chartFileName), execTimeout),
		maxTokens: maxTokens,
	}
}

// Loaded reports whether a dataset is bound to the engine.
func (e *Engine) Loaded() bool {
	return e.ds != nil
}

// Dataset returns the bound dataset, or nil before Load.
func (e *Engine) Dataset() *dataset.Dataset {
	return e.ds
}

// Load reads a dataset file and binds it to the engine, replacing any
// previously loaded data.
//
// Outputs:
//   - string: A load summary for the user, including automatic insights
//     when they can be computed.
//   - error: Non-nil if the file cannot be read or parsed; the previously
//     loaded dataset (if any) stays bound.
func (e *Engine) Load(path string) (string, error) {
	ds, err := dataset.Read(path)
	if err != nil {
		return "", err
	}
	e.ds = ds

	summary := fmt.Sprintf("Loaded %s: %d rows, %d columns.", filepath.Base(path), ds.Nrow(), ds.Ncol())

	// Insights are best effort. A file with no recognizable sales columns
	// still loads fine.
	if ins, err := dataset.CalculateInsights(ds); err != nil {
		slog.Warn("Dataset insights unavailable",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()),
		)
	} else {
		summary += "\n\n" + ins.String()
	}

	slog.Info("Dataset loaded",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", ds.Nrow()),
		slog.Int("cols", ds.Ncol()),
	)
	return summary, nil
}

// Execute answers one analysis question against the loaded dataset.
//
// Description:
//
//	Builds the grounding prompt, makes exactly one completion call, strips
//	any markdown fences, and hands the program to the sandbox. On success
//	the transformed frame is committed back to the dataset; on any failure
//	the dataset is unchanged and the error is returned for the orchestrator
//	to surface verbatim.
//
// Outputs:
//   - *Result: The formatted answer and typed value.
//   - error: ErrNoData before Load; otherwise a generation or sandbox error.
func (e *Engine) Execute(ctx context.Context, question string) (*Result, error) {
	if e.ds == nil {
		return nil, ErrNoData
	}

	ctx, span := otel.Tracer("salesagent/analysis").Start(ctx, "analysis.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("llm.provider", e.client.Name()))

	prompt := buildPrompt(question, e.ds)

	completion, err := e.client.Generate(ctx, prompt, llm.Deterministic(e.maxTokens))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "program generation failed")
		return nil, fmt.Errorf("analysis: generating program: %w", err)
	}

	programText := stripFences(completion)
	if programText == "" {
		err := fmt.Errorf("analysis: provider returned an empty program")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty completion")
		return nil, err
	}

	outcome, err := e.sandbox.Execute(ctx, programText, e.ds.Frame())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "program execution failed")
		return nil, err
	}

	// Commit only after the whole program succeeded.
	e.ds.SetFrame(outcome.Frame)

	return &Result{
		Formatted:    formatValue(outcome.Value),
		Value:        outcome.Value,
		ArtifactPath: outcome.ArtifactPath,
	}, nil
}
