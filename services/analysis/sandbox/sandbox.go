// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sandbox executes generated analysis programs against a dataset
// frame without granting them any ambient capability.
//
// A program is a JSON document naming typed operations from a closed set;
// there is no expression language, no name resolution outside the operation
// table, and no I/O except the two explicitly sanctioned artifact writes
// (chart render, spreadsheet export). Execution happens on a copy of the
// frame, so the caller commits the transformed frame only after success.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gota/gota/dataframe"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ValueKind discriminates the tagged union of results a program can
// produce.
type ValueKind int

const (
	// ValueNumber is a scalar produced by an aggregate operation.
	ValueNumber ValueKind = iota
	// ValueTable is header+rows records, produced by group, describe, or a
	// program with no terminal operation.
	ValueTable
	// ValueText is a plain string: a direct answer, or a plot/export
	// confirmation.
	ValueText
	// ValueList is an ordered list of strings, produced by
	// aggregate(unique).
	ValueList
	// ValueOther covers results no other kind claims.
	ValueOther
)

// Value is the typed result of a program run.
type Value struct {
	Kind   ValueKind
	Number float64
	Table  [][]string
	Text   string
	List   []string
	Other  any
}

// Outcome is everything a successful run hands back to the engine: the
// transformed frame to commit, the result value, and the artifact path if
// the program produced a chart or an export file.
type Outcome struct {
	Frame        dataframe.DataFrame
	Value        Value
	ArtifactPath string
}

// Sandbox executes programs with a fixed artifact location and a per-run
// execution deadline.
//
// Thread Safety: Safe for concurrent use; all run state lives in a
// per-call evaluator.
type Sandbox struct {
	chartPath   string
	execTimeout time.Duration
}

// New constructs a Sandbox.
//
// Inputs:
//   - chartPath: Destination file for rendered charts.
//   - execTimeout: Per-run deadline. Zero disables the extra deadline and
//     leaves only the caller's context.
func New(chartPath string, execTimeout time.Duration) *Sandbox {
	return &Sandbox{chartPath: chartPath, execTimeout: execTimeout}
}

// Execute screens, parses, and evaluates a generated program against a
// copy of frame.
//
// Description:
//
//	The pipeline is screen -> parse/validate -> evaluate. Any failure at
//	any stage returns a nil Outcome and the frame the caller holds is
//	untouched; the evaluator only ever works on its own copy.
//
// Inputs:
//   - ctx: Caller context. A derived deadline bounds evaluation.
//   - programText: The fence-stripped completion containing the JSON
//     program.
//   - frame: The live dataset frame. Passed by value.
//
// Outputs:
//   - *Outcome: The transformed frame, result value, and artifact path.
//   - error: ErrUnsafeProgram for screen rejections; otherwise a parse,
//     validation, or evaluation error.
func (s *Sandbox) Execute(ctx context.Context, programText string, frame dataframe.DataFrame) (*Outcome, error) {
	ctx, span := otel.Tracer("salesagent/sandbox").Start(ctx, "sandbox.Execute")
	defer span.End()

	if err := Screen(programText); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "program rejected by screen")
		return nil, err
	}

	prog, err := ParseProgram(programText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "program failed to parse")
		return nil, err
	}
	span.SetAttributes(attribute.Int("sandbox.steps", len(prog.Steps)))

	if s.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.execTimeout)
		defer cancel()
	}

	ev := &evaluator{
		frame:     frame.Copy(),
		chartPath: s.chartPath,
	}

	start := time.Now()
	if err := ev.run(ctx, prog); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "program evaluation failed")
		slog.Warn("Sandbox program failed",
			slog.Int("steps", len(prog.Steps)),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	slog.Debug("Sandbox program completed",
		slog.Int("steps", len(prog.Steps)),
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("artifact", ev.artifact != ""),
	)

	if ev.result == nil {
		// run always sets a result on success; guard anyway.
		return nil, fmt.Errorf("sandbox: program produced no result")
	}

	return &Outcome{
		Frame:        ev.frame,
		Value:        *ev.result,
		ArtifactPath: ev.artifact,
	}, nil
}
