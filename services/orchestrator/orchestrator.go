// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator drives the multi-turn dialogue: it owns one
// SessionState, routes each input by the current conversation step, and
// delegates data acquisition to a retrieval agent and analysis to the
// analysis engine.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/salesagent/services/analysis"
	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

// DataRetriever is the slice of the retrieval agent the orchestrator
// needs. Satisfied by *retrieval.Agent.
type DataRetriever interface {
	Detect(input string) datatypes.SourceKind
	PromptForLocation() string
	PromptForPath(kind datatypes.SourceKind) string
	Retrieve(ctx context.Context, kind datatypes.SourceKind, input string) (ok bool, message string, localPath string)
}

// AnalysisRunner is the slice of the analysis engine the orchestrator
// needs. Satisfied by *analysis.Engine.
type AnalysisRunner interface {
	Load(path string) (string, error)
	Execute(ctx context.Context, question string) (*analysis.Result, error)
}

// dataKeywords classifies whether an opening query is a data-analysis
// request at all. Fixed set; matching is case-insensitive substring.
var dataKeywords = []string{
	"sales", "revenue", "data", "quarter", "month",
	"analyze", "show", "calculate",
}

// clarificationReply is returned when the opening query matches no data
// keyword. There is no dataless conversation path, so the session stays in
// its initial step.
const clarificationReply = "I'm a sales data analysis agent. Ask me something about your data, " +
	"for example: \"Show me this quarter's sales\"."

// reprompts for inputs that could not be classified.
const (
	sourceReprompt = "Sorry, I didn't catch where the data lives. " +
		"You can say Google Drive, a local file path, or S3."
	resetNotice = "Something went wrong with this conversation, so I've started over. " +
		"What would you like to analyze?"
)

// Orchestrator is the dialogue state machine for one session.
//
// Thread Safety: NOT safe for concurrent use. Independent sessions get
// independent Orchestrators and share no mutable state.
type Orchestrator struct {
	retriever DataRetriever
	engine    AnalysisRunner

	session *SessionState
}

// New constructs an orchestrator with no active session.
func New(retriever DataRetriever, engine AnalysisRunner) *Orchestrator {
	return &Orchestrator{retriever: retriever, engine: engine}
}

// Session exposes the active session state, or nil before Start.
func (o *Orchestrator) Session() *SessionState {
	return o.session
}

// Start opens a new session with the user's first query.
//
// Description:
//
//	Creates fresh SessionState, records the query, and classifies whether
//	it needs data. Data queries transition to the need-data-source step
//	and return the location prompt; anything else gets a clarification
//	reply and stays in the initial step.
func (o *Orchestrator) Start(ctx context.Context, query string) string {
	o.session = newSession()
	o.session.OriginalQuery = query
	o.session.record("user", query)

	slog.Info("Session started", slog.String("session_id", o.session.ID))

	var reply string
	if needsData(query) {
		o.session.setStep(datatypes.StepNeedDataSource)
		reply = o.retriever.PromptForLocation()
	} else {
		reply = clarificationReply
	}

	o.session.record("assistant", reply)
	return reply
}

// Respond processes one user input according to the current step and
// returns the agent's reply.
func (o *Orchestrator) Respond(ctx context.Context, input string) string {
	if o.session == nil {
		return o.Start(ctx, input)
	}

	ctx, span := otel.Tracer("salesagent/orchestrator").Start(ctx, "orchestrator.Respond")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", o.session.ID),
		attribute.String("session.step", string(o.session.Step)),
	)

	o.session.record("user", input)

	var reply string
	switch o.session.Step {
	case datatypes.StepInitial:
		reply = o.handleInitial(input)
	case datatypes.StepNeedDataSource:
		reply = o.handleNeedSource(ctx, input)
	case datatypes.StepNeedDataPath:
		reply = o.handleNeedPath(ctx, input)
	case datatypes.StepReadyForAnalysis:
		reply = o.handleAnalysis(ctx, input)
	default:
		// An unknown step means the state was corrupted. Reset rather
		// than wedging the session.
		slog.Error("Unknown conversation step, resetting session",
			slog.String("session_id", o.session.ID),
			slog.String("step", string(o.session.Step)),
		)
		o.session = newSession()
		reply = resetNotice
	}

	o.session.record("assistant", reply)
	return reply
}

// handleInitial mirrors Start's classification for sessions created
// without an opening query.
func (o *Orchestrator) handleInitial(input string) string {
	o.session.OriginalQuery = input
	if needsData(input) {
		o.session.setStep(datatypes.StepNeedDataSource)
		return o.retriever.PromptForLocation()
	}
	return clarificationReply
}

// handleNeedSource classifies the data source. When the user pastes a
// Drive link as their answer, the source and the path arrive in one turn,
// so the same input is re-dispatched to the path handler immediately.
func (o *Orchestrator) handleNeedSource(ctx context.Context, input string) string {
	kind := o.retriever.Detect(input)
	if kind == datatypes.SourceUnset {
		return sourceReprompt
	}

	o.session.setSource(kind)
	o.session.setStep(datatypes.StepNeedDataPath)

	if kind == datatypes.SourceDrive && looksLikeDriveLink(input) {
		return o.handleNeedPath(ctx, input)
	}
	return o.retriever.PromptForPath(kind)
}

// handleNeedPath retrieves the file, loads it, and auto-runs the original
// query as the first analysis turn. Any failure leaves the step unchanged
// and surfaces the failure message verbatim.
func (o *Orchestrator) handleNeedPath(ctx context.Context, input string) string {
	kind := o.session.DataSource
	if kind == datatypes.SourceUnset {
		kind = o.retriever.Detect(input)
	}

	ok, message, localPath := o.retriever.Retrieve(ctx, kind, input)
	if !ok {
		return message
	}
	o.session.DataSourceRef = input

	loadSummary, err := o.engine.Load(localPath)
	if err != nil {
		return err.Error()
	}

	o.session.markLoaded(localPath)
	o.session.setStep(datatypes.StepReadyForAnalysis)

	parts := []string{message, loadSummary}

	// The question that opened the session is what the user actually
	// wanted; answer it now instead of making them repeat it.
	if q := strings.TrimSpace(o.session.OriginalQuery); q != "" {
		result, err := o.engine.Execute(ctx, q)
		if err != nil {
			parts = append(parts, "I couldn't complete the analysis: "+err.Error())
		} else {
			o.session.markAnalyzed(result.ArtifactPath)
			parts = append(parts, result.Formatted)
		}
	}

	return strings.Join(parts, "\n\n")
}

// handleAnalysis forwards input verbatim to the analysis engine.
func (o *Orchestrator) handleAnalysis(ctx context.Context, input string) string {
	result, err := o.engine.Execute(ctx, input)
	if err != nil {
		// Recoverable: the user rephrases, the session stays ready.
		return err.Error()
	}

	o.session.markAnalyzed(result.ArtifactPath)
	return result.Formatted
}

// needsData reports whether a query is asking for data analysis.
func needsData(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range dataKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// looksLikeDriveLink reports whether the input carries a Drive URL, which
// means the path handler can act on it without another prompt.
func looksLikeDriveLink(input string) bool {
	lower := strings.ToLower(input)
	return strings.Contains(lower, "drive.google.com") ||
		strings.Contains(lower, "docs.google.com")
}
