// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the shared types exchanged between the
// orchestrator, the analysis engine, and the retrieval agent. Keeping them
// in a leaf package avoids import cycles between the collaborators.
package datatypes

import "time"

// ConversationStep identifies where a conversation currently is in the
// dialogue state machine.
//
// Transitions are owned exclusively by the orchestrator; every other
// component treats the step as read-only.
type ConversationStep string

const (
	// StepInitial is the state of a freshly created (or reset) session.
	StepInitial ConversationStep = "initial"

	// StepNeedDataSource means the agent has asked where the data lives.
	StepNeedDataSource ConversationStep = "need_data_source"

	// StepNeedDataPath means the source kind is known and the agent is
	// waiting for a path, URL, or file ID.
	StepNeedDataPath ConversationStep = "need_data_path"

	// StepReadyForAnalysis means a dataset is loaded and every further
	// input is treated as an analysis query.
	StepReadyForAnalysis ConversationStep = "ready_for_analysis"
)

// SourceKind identifies where a dataset is retrieved from.
type SourceKind string

const (
	// SourceUnset means no data source has been detected yet.
	SourceUnset SourceKind = ""

	// SourceDrive is a Google Drive file or Google Sheet.
	SourceDrive SourceKind = "google_drive"

	// SourceLocal is a file on the local filesystem.
	SourceLocal SourceKind = "local"

	// SourceS3 is an S3 object. Retrieval for this kind is not implemented.
	SourceS3 SourceKind = "s3"
)

// Message is a single conversation turn entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is a read-only projection of a session, used for display when a
// conversation completes.
type Summary struct {
	Query            string     `json:"query"`
	DataSource       SourceKind `json:"data_source"`
	DataLoaded       bool       `json:"data_loaded"`
	AnalysisComplete bool       `json:"analysis_complete"`
	OutputFile       string     `json:"output_file,omitempty"`
	MessageCount     int        `json:"messages_count"`
}
