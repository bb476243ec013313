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
	"path/filepath"
	"testing"
)

func TestWriteFrameCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.csv")

	if err := WriteFrame(salesFrame(), path, ""); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	ds, err := Read(path)
	if err != nil {
		t.Fatalf("Read() after export error = %v", err)
	}
	if ds.Nrow() != 6 || ds.Ncol() != 4 {
		t.Errorf("round trip = %dx%d, want 6x4", ds.Nrow(), ds.Ncol())
	}
}

func TestWriteFrameExcelRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	if err := WriteFrame(salesFrame(), path, "Sales"); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	ds, err := Read(path)
	if err != nil {
		t.Fatalf("Read() after export error = %v", err)
	}
	if ds.Nrow() != 6 || ds.Ncol() != 4 {
		t.Errorf("round trip = %dx%d, want 6x4", ds.Nrow(), ds.Ncol())
	}
}

func TestWriteFrameUnsupportedExtension(t *testing.T) {
	err := WriteFrame(salesFrame(), filepath.Join(t.TempDir(), "out.parquet"), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("WriteFrame() error = %v, want ErrUnsupportedFormat", err)
	}
}
