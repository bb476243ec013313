// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sandbox

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnsafeProgram is the sentinel for programs rejected by the static
// screen. When this is returned, no part of the program was parsed or
// evaluated and the dataset is provably untouched.
var ErrUnsafeProgram = errors.New("sandbox: unsafe program rejected")

// denylist is the fixed set of substrings that mark a generated program as
// unsafe: process/OS invocation, dynamic evaluation, file opens, system
// module imports, network calls, and interactive input.
//
// The screen is a pre-filter, not the safety boundary. The boundary is the
// typed-operation evaluator, which cannot resolve any name outside the
// operation set. The screen exists to reject obviously hostile completions
// cheaply and to give a security-specific message.
var denylist = []string{
	"os.",
	"sys.",
	"subprocess",
	"eval(",
	"exec(",
	"open(",
	"import os",
	"import sys",
	"shutil",
	"requests.",
	"urllib.",
	"input(",
}

// Screen scans a generated program text for denylisted substrings.
//
// Inputs:
//   - text: The raw (fence-stripped) completion.
//
// Outputs:
//   - error: ErrUnsafeProgram (wrapped with the matched substring) on any
//     match; nil otherwise.
func Screen(text string) error {
	for _, needle := range denylist {
		if strings.Contains(text, needle) {
			slog.Warn("Generated program rejected by screen",
				slog.String("matched", needle),
			)
			return fmt.Errorf("%w: contains %q", ErrUnsafeProgram, needle)
		}
	}
	return nil
}
