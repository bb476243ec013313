// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

const sampleCSV = `date,region,sales
2024-11-10,north,1000
2024-12-05,south,2500
2025-01-15,east,3500
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeTempFile(t, "sales.csv", sampleCSV)

	ds, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.Nrow() != 3 || ds.Ncol() != 3 {
		t.Errorf("Read() = %dx%d, want 3x3", ds.Nrow(), ds.Ncol())
	}
	if ds.Path() != path {
		t.Errorf("Path() = %q, want %q", ds.Path(), path)
	}
}

func TestReadJSON(t *testing.T) {
	path := writeTempFile(t, "sales.json",
		`[{"region":"north","sales":1000},{"region":"south","sales":2500}]`)

	ds, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.Nrow() != 2 {
		t.Errorf("Read() rows = %d, want 2", ds.Nrow())
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"region", "sales"},
		{"north", 1000},
		{"south", 2500},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	ds, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ds.Nrow() != 2 || ds.Ncol() != 2 {
		t.Errorf("Read() = %dx%d, want 2x2", ds.Nrow(), ds.Ncol())
	}
}

func TestReadNotFound(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read() error = %v, want ErrNotFound", err)
	}

	// A directory is not a readable dataset either.
	_, err = Read(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Read(dir) error = %v, want ErrNotFound", err)
	}
}

func TestReadUnsupportedFormat(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "not tabular")

	_, err := Read(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Read() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRecordsToFramePadsRaggedRows(t *testing.T) {
	// Spreadsheet readers trim trailing empty cells; the frame must still
	// come out rectangular.
	frame, err := recordsToFrame([][]string{
		{"a", "b", "c"},
		{"1", "2", "3"},
		{"4"},
	}, "ragged.xlsx")
	if err != nil {
		t.Fatalf("recordsToFrame() error = %v", err)
	}
	if frame.Err != nil {
		t.Fatalf("frame error = %v", frame.Err)
	}
	if frame.Nrow() != 2 || frame.Ncol() != 3 {
		t.Errorf("frame = %dx%d, want 2x3", frame.Nrow(), frame.Ncol())
	}
}

func TestRecordsToFrameEmptySheet(t *testing.T) {
	if _, err := recordsToFrame(nil, "empty.xlsx"); !errors.Is(err, ErrParse) {
		t.Errorf("recordsToFrame(nil) error = %v, want ErrParse", err)
	}
}
