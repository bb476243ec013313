// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

// SessionState carries everything the dialogue state machine knows about
// one conversation. It is created at Start, mutated by every turn, and
// discarded when the session ends; nothing persists across runs.
//
// Thread Safety: NOT safe for concurrent use. One session processes one
// turn at a time.
type SessionState struct {
	ID            string
	OriginalQuery string
	Step          datatypes.ConversationStep

	DataSource    datatypes.SourceKind
	DataSourceRef string
	LocalPath     string

	DataLoaded       bool
	AnalysisComplete bool
	OutputPath       string

	Messages  []datatypes.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// newSession creates a fresh session in the initial step.
func newSession() *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		ID:        uuid.NewString(),
		Step:      datatypes.StepInitial,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// record appends a message to the transcript and bumps UpdatedAt.
func (s *SessionState) record(role, content string) {
	now := time.Now().UTC()
	s.Messages = append(s.Messages, datatypes.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	s.UpdatedAt = now
}

// setStep transitions the state machine.
func (s *SessionState) setStep(step datatypes.ConversationStep) {
	s.Step = step
	s.UpdatedAt = time.Now().UTC()
}

// setSource records the detected data source kind.
func (s *SessionState) setSource(kind datatypes.SourceKind) {
	s.DataSource = kind
	s.UpdatedAt = time.Now().UTC()
}

// markLoaded records a successful retrieval and load.
func (s *SessionState) markLoaded(localPath string) {
	s.LocalPath = localPath
	s.DataLoaded = true
	s.UpdatedAt = time.Now().UTC()
}

// markAnalyzed records a successful analysis turn and, when the program
// produced an artifact, the output path.
func (s *SessionState) markAnalyzed(artifactPath string) {
	s.AnalysisComplete = true
	if artifactPath != "" {
		s.OutputPath = artifactPath
	}
	s.UpdatedAt = time.Now().UTC()
}

// Complete reports whether the session has reached its goal: data loaded,
// at least one successful analysis, and an output artifact produced.
func (s *SessionState) Complete() bool {
	return s.DataLoaded && s.AnalysisComplete && s.OutputPath != ""
}

// Summary returns a read-only projection for display.
func (s *SessionState) Summary() datatypes.Summary {
	return datatypes.Summary{
		Query:            s.OriginalQuery,
		DataSource:       s.DataSource,
		DataLoaded:       s.DataLoaded,
		AnalysisComplete: s.AnalysisComplete,
		OutputFile:       s.OutputPath,
		MessageCount:     len(s.Messages),
	}
}
