// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"regexp"
)

// redactionPattern pairs a compiled regex with a replacement label.
//
// Description:
//
//	Each pattern identifies a specific class of secret (API key, token)
//	and provides a labeled replacement string so the log reader knows what
//	was redacted without seeing the secret value.
//
// Thread Safety: This type is immutable after construction.
type redactionPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// redactionPatterns is the ordered list of secret patterns to redact.
//
// IMPORTANT: Order matters. More specific patterns must appear BEFORE less
// specific patterns to prevent partial redaction.
//
// Thread Safety: This slice is initialized once and never modified.
// All access is read-only.
var redactionPatterns = []redactionPattern{
	// Groq API key: gsk_<base62, 20+ chars>
	{
		Pattern:     regexp.MustCompile(`gsk_[A-Za-z0-9]{20,}`),
		Replacement: "[REDACTED:groq_key]",
	},
	// Gemini/Google API key: AIza<base62, 30+ chars>
	{
		Pattern:     regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`),
		Replacement: "[REDACTED:gemini_key]",
	},
	// Bearer token in Authorization header values
	{
		Pattern:     regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`),
		Replacement: "[REDACTED:bearer_token]",
	},
	// API key in URL query parameter: key=<value>
	{
		Pattern:     regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`),
		Replacement: "key=[REDACTED]",
	},
}

// SafeLogString redacts known secret patterns from a string before it is
// logged or surfaced in an error message.
//
// Description:
//
//	Iterates through a predefined set of regex patterns that match the API
//	key formats this agent handles, plus bearer tokens and key= query
//	parameters. Each match is replaced with a labeled placeholder so the
//	log reader knows what class of secret was present without seeing the
//	actual value.
//
// Limitations:
//   - Pattern-based detection only; secrets in non-standard formats pass
//     through. This is a logging hygiene measure, not a security boundary.
//
// Thread Safety: This function is safe for concurrent use.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}
