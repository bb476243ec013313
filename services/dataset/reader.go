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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

// Sentinel errors for the reader failure modes.
var (
	// ErrNotFound means the path does not exist or is not a regular file.
	ErrNotFound = errors.New("dataset: file not found")

	// ErrUnsupportedFormat means the file extension is not one of
	// .csv, .xlsx, .xls, .json.
	ErrUnsupportedFormat = errors.New("dataset: unsupported file format")

	// ErrParse means the file exists but could not be parsed.
	ErrParse = errors.New("dataset: parse error")
)

// maxXLSRows bounds how many rows are read from legacy .xls workbooks.
const maxXLSRows = 1 << 20

// Read loads a tabular dataset from a local file, dispatching on the file
// extension.
//
// Inputs:
//   - path: Local filesystem path. Must exist and be a regular file.
//
// Outputs:
//   - *Dataset: The parsed dataset.
//   - error: ErrNotFound, ErrUnsupportedFormat, or ErrParse (wrapped with
//     detail), matching the reader collaborator contract.
func Read(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var frame dataframe.DataFrame
	switch ext {
	case ".csv":
		frame, err = readCSV(path)
	case ".xlsx":
		frame, err = readXLSX(path)
	case ".xls":
		frame, err = readXLS(path)
	case ".json":
		frame, err = readJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if frame.Err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, frame.Err)
	}

	slog.Info("Dataset loaded",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", frame.Nrow()),
		slog.Int("columns", frame.Ncol()),
	)

	return New(frame, path), nil
}

func readCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	defer f.Close()

	return dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(true)), nil
}

func readJSON(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	defer f.Close()

	return dataframe.ReadJSON(f), nil
}

// readXLSX reads the first sheet of a modern Excel workbook.
func readXLSX(path string) (dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: workbook has no sheets", ErrParse, path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	return recordsToFrame(rows, path)
}

// readXLS reads the first sheet of a legacy Excel workbook.
func readXLS(path string) (dataframe.DataFrame, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	rows := wb.ReadAllCells(maxXLSRows)
	return recordsToFrame(rows, path)
}

// recordsToFrame converts header+data spreadsheet rows into a typed frame.
// Ragged rows are padded to the header width; GetRows trims trailing empty
// cells.
func recordsToFrame(rows [][]string, path string) (dataframe.DataFrame, error) {
	if len(rows) < 1 || len(rows[0]) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s: sheet is empty", ErrParse, path)
	}

	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		} else if len(row) > width {
			row = row[:width]
		}
		records = append(records, row)
	}

	return dataframe.LoadRecords(records, dataframe.HasHeader(true), dataframe.DetectTypes(true)), nil
}
