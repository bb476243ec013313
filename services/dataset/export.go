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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// WriteFrame writes a frame to disk, dispatching on the target extension.
// Supported targets: .xlsx and .csv. Parent directories are created.
//
// Outputs:
//   - error: Non-nil on unsupported extension or write failure.
func WriteFrame(frame dataframe.DataFrame, path, sheet string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dataset: creating output directory: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeExcel(frame, path, sheet)
	case ".csv":
		return writeCSV(frame, path)
	default:
		return fmt.Errorf("%w: %s (export supports .xlsx and .csv)",
			ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func writeCSV(frame dataframe.DataFrame, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := frame.WriteCSV(f); err != nil {
		return fmt.Errorf("dataset: writing %s: %w", path, err)
	}

	slog.Info("Frame exported",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", frame.Nrow()),
	)
	return nil
}

func writeExcel(frame dataframe.DataFrame, path, sheet string) error {
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("dataset: naming sheet %q: %w", sheet, err)
		}
	}

	for r, row := range frame.Records() {
		for c, cell := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("dataset: cell reference: %w", err)
			}
			if err := f.SetCellValue(sheet, ref, cell); err != nil {
				return fmt.Errorf("dataset: writing cell %s: %w", ref, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("dataset: saving %s: %w", path, err)
	}

	slog.Info("Frame exported",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", frame.Nrow()),
	)
	return nil
}
