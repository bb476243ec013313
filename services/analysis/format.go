// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/AleutianAI/salesagent/services/analysis/sandbox"
	"github.com/AleutianAI/salesagent/services/dataset"
)

// maxTableRows is the number of data rows shown for a table result before
// truncation kicks in.
const maxTableRows = 10

// formatValue renders a sandbox result for the chat surface.
//
// Description:
//
//	Numbers get thousands separators and two decimals ("12,345.60").
//	Tables render aligned, truncated to maxTableRows data rows with a
//	note. Text passes through byte for byte. Lists join with ", ".
//	The switch is total over ValueKind; anything unknown falls through to
//	a plain %v so a new kind can never render as an empty reply.
func formatValue(v sandbox.Value) string {
	switch v.Kind {
	case sandbox.ValueNumber:
		return humanize.FormatFloat("#,###.##", v.Number)

	case sandbox.ValueTable:
		return formatTable(v.Table)

	case sandbox.ValueText:
		return v.Text

	case sandbox.ValueList:
		return strings.Join(v.List, ", ")

	default:
		return fmt.Sprintf("%v", v.Other)
	}
}

func formatTable(records [][]string) string {
	if len(records) == 0 {
		return "(empty table)"
	}

	dataRows := len(records) - 1
	if dataRows <= maxTableRows {
		return dataset.RenderRecords(records)
	}

	shown := dataset.RenderRecords(records[:maxTableRows+1])
	return fmt.Sprintf("%s\n... showing first %d of %d rows", shown, maxTableRows, dataRows)
}

// stripFences removes a surrounding markdown code fence from a completion,
// if present. Models add them despite instructions not to.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
