// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval acquires dataset files for a session: from Google
// Drive, from local disk, or (eventually) from S3. It classifies free-text
// source descriptions and downloads files into the agent's working
// directory.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

// Agent resolves and fetches dataset files. The Drive client is
// constructed lazily on first use so local-only sessions never need
// Google credentials.
//
// Thread Safety: NOT safe for concurrent use; one Agent per session.
type Agent struct {
	downloadDir     string
	credentialsPath string
	maxFileSizeMB   int

	drive *DriveClient
}

// NewAgent constructs a retrieval agent.
func NewAgent(downloadDir, credentialsPath string, maxFileSizeMB int) *Agent {
	return &Agent{
		downloadDir:     downloadDir,
		credentialsPath: credentialsPath,
		maxFileSizeMB:   maxFileSizeMB,
	}
}

// Detect classifies a free-text description of where the data lives.
//
// Description:
//
//	Keyword and URL-pattern matching, checked in a fixed order: Drive
//	URLs and keywords first, then S3 markers, then local markers. As a
//	last resort, input that names an existing filesystem path counts as
//	local.
//
// Outputs:
//   - datatypes.SourceKind: The detected source, or SourceUnset when the
//     input matches nothing.
func (a *Agent) Detect(input string) datatypes.SourceKind {
	lower := strings.ToLower(strings.TrimSpace(input))

	switch {
	case strings.Contains(lower, "drive.google.com"),
		strings.Contains(lower, "docs.google.com"),
		strings.Contains(lower, "drive"),
		strings.Contains(lower, "google"),
		strings.Contains(lower, "gdrive"):
		return datatypes.SourceDrive

	case strings.HasPrefix(lower, "s3://"),
		strings.Contains(lower, "s3"),
		strings.Contains(lower, "aws"),
		strings.Contains(lower, "bucket"):
		return datatypes.SourceS3

	case strings.Contains(lower, "local"),
		strings.Contains(lower, "file"),
		strings.Contains(lower, "computer"),
		strings.Contains(lower, "disk"):
		return datatypes.SourceLocal
	}

	// A bare path to a real file is an implicit "local".
	if info, err := os.Stat(strings.TrimSpace(input)); err == nil && !info.IsDir() {
		return datatypes.SourceLocal
	}

	return datatypes.SourceUnset
}

// PromptForLocation is the question asked when a query needs data but no
// source is known yet.
func (a *Agent) PromptForLocation() string {
	return "Where is your data? You can say Google Drive, a local file, or S3."
}

// PromptForPath asks for the concrete path, URL, or ID once the source
// kind is known.
func (a *Agent) PromptForPath(kind datatypes.SourceKind) string {
	switch kind {
	case datatypes.SourceDrive:
		return "Please share the Google Drive link or file ID."
	case datatypes.SourceS3:
		return "Please share the S3 URI (s3://bucket/key)."
	default:
		return "Please provide the path to your data file."
	}
}

// Retrieve fetches the dataset described by input for the given source
// kind and returns a local file path.
//
// Outputs:
//   - ok: Whether a local file is now available.
//   - message: User-facing confirmation or failure text.
//   - localPath: The local file path. Empty when ok is false.
//
// Retrieval failures are recoverable: the caller keeps its state and the
// user can try again with a corrected path.
func (a *Agent) Retrieve(ctx context.Context, kind datatypes.SourceKind, input string) (ok bool, message string, localPath string) {
	input = strings.TrimSpace(input)

	switch kind {
	case datatypes.SourceDrive:
		return a.retrieveDrive(ctx, input)
	case datatypes.SourceLocal:
		return retrieveLocal(input)
	case datatypes.SourceS3:
		return retrieveS3()
	default:
		return false, "I don't know where to look for that data yet. Is it on Google Drive, a local file, or S3?", ""
	}
}

func (a *Agent) retrieveDrive(ctx context.Context, input string) (bool, string, string) {
	fileID, ok := ExtractFileID(input)
	if !ok {
		msg := "That doesn't look like a Google Drive link or file ID. Please share the full sharing link."
		if hint := a.driveListingHint(ctx); hint != "" {
			msg += " " + hint
		}
		return false, msg, ""
	}

	if a.drive == nil {
		client, err := NewDriveClient(ctx, a.credentialsPath, a.downloadDir, a.maxFileSizeMB)
		if err != nil {
			slog.Error("Drive client construction failed", slog.String("error", err.Error()))
			return false, fmt.Sprintf("Google Drive is not available: %v", err), ""
		}
		a.drive = client
	}

	path, err := a.drive.Download(ctx, fileID)
	if err != nil {
		return false, fmt.Sprintf("Couldn't download the file from Google Drive: %v", err), ""
	}
	return true, fmt.Sprintf("Downloaded your file from Google Drive to %s.", path), path
}

// driveListingHint names the spreadsheets visible to the configured
// credentials. Strictly best effort: any failure returns an empty hint so
// the caller's message stands alone.
func (a *Agent) driveListingHint(ctx context.Context) string {
	if a.drive == nil {
		client, err := NewDriveClient(ctx, a.credentialsPath, a.downloadDir, a.maxFileSizeMB)
		if err != nil {
			return ""
		}
		a.drive = client
	}

	names, err := a.drive.ListFiles(ctx, 10)
	if err != nil {
		slog.Debug("Drive listing failed", slog.String("error", err.Error()))
		return ""
	}
	return availableFilesHint(names)
}

// availableFilesHint formats the Drive listing for the bad-link reply.
func availableFilesHint(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("Spreadsheets I can see on your Drive: %s.", strings.Join(names, ", "))
}
