// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Google Workspace documents have no binary content of their own; Sheets
// are exported as xlsx so the dataset reader can parse them.
const (
	mimeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Drive sharing links carry the file ID either as a path segment
// (/d/<id>) or as a query parameter (id=<id>).
var (
	drivePathIDPattern  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveQueryIDPattern = regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`)
	driveRawIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{20,}$`)
)

// ExtractFileID pulls a Drive file ID out of a sharing link, an
// "open?id=" link, or a raw ID pasted directly.
func ExtractFileID(input string) (string, bool) {
	input = strings.TrimSpace(input)

	if m := drivePathIDPattern.FindStringSubmatch(input); m != nil {
		return m[1], true
	}
	if m := driveQueryIDPattern.FindStringSubmatch(input); m != nil {
		return m[1], true
	}
	if driveRawIDPattern.MatchString(input) {
		return input, true
	}
	return "", false
}

// DriveClient downloads dataset files from Google Drive into a local
// directory.
type DriveClient struct {
	svc         *drive.Service
	downloadDir string
	maxBytes    int64
}

// NewDriveClient constructs a Drive client from a credentials JSON file.
//
// Inputs:
//   - ctx: Context for service construction.
//   - credentialsPath: Google service credentials JSON.
//   - downloadDir: Where downloaded files land. Created if missing.
//   - maxFileSizeMB: Download size cap. Zero disables the cap.
func NewDriveClient(ctx context.Context, credentialsPath, downloadDir string, maxFileSizeMB int) (*DriveClient, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("retrieval: drive credentials at %s: %w", credentialsPath, err)
	}

	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("retrieval: creating drive service: %w", err)
	}

	return &DriveClient{
		svc:         svc,
		downloadDir: downloadDir,
		maxBytes:    int64(maxFileSizeMB) * 1024 * 1024,
	}, nil
}

// Download fetches a file by ID into the download directory and returns
// the local path. Google Sheets are exported as xlsx; everything else is
// downloaded as-is.
func (c *DriveClient) Download(ctx context.Context, fileID string) (string, error) {
	meta, err := c.svc.Files.Get(fileID).
		Fields("name", "mimeType", "size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("retrieval: looking up drive file %s: %w", fileID, err)
	}

	if c.maxBytes > 0 && meta.Size > c.maxBytes {
		return "", fmt.Errorf("retrieval: file %q is %d bytes, over the %d byte limit", meta.Name, meta.Size, c.maxBytes)
	}

	name := meta.Name
	var resp *http.Response

	if meta.MimeType == mimeGoogleSheet {
		if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			name += ".xlsx"
		}
		resp, err = c.svc.Files.Export(fileID, mimeXLSX).Context(ctx).Download()
	} else {
		resp, err = c.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return "", fmt.Errorf("retrieval: downloading drive file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("retrieval: creating download directory: %w", err)
	}

	// Keep only the base name so a hostile filename cannot escape the
	// download directory.
	localPath := filepath.Join(c.downloadDir, filepath.Base(name))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("retrieval: creating %s: %w", localPath, err)
	}
	defer f.Close()

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("retrieval: writing %s: %w", localPath, err)
	}

	slog.Info("Drive file downloaded",
		slog.String("file", filepath.Base(localPath)),
		slog.String("mime", meta.MimeType),
		slog.Int64("bytes", written),
	)
	return localPath, nil
}

// ListFiles returns the names of spreadsheet-like files visible to the
// credentials, for "what files do I have" style questions.
func (c *DriveClient) ListFiles(ctx context.Context, max int64) ([]string, error) {
	if max <= 0 {
		max = 25
	}

	resp, err := c.svc.Files.List().
		Q("mimeType contains 'spreadsheet' or name contains '.csv' or name contains '.xlsx'").
		PageSize(max).
		Fields("files(name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("retrieval: listing drive files: %w", err)
	}

	names := make([]string, 0, len(resp.Files))
	for _, f := range resp.Files {
		names = append(names, f.Name)
	}
	return names, nil
}
