// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the LLM adapter used for analysis code generation.
// It ships two REST clients (Gemini and Groq) behind a single Client
// interface plus a factory that picks one from configuration.
//
// Thread Safety:
//
//	All clients in this package are safe for concurrent use.
package llm

import (
	"context"

	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

// Client is the minimal LLM interface the analysis engine needs: exactly
// one completion per analysis turn, no tools, no streaming.
type Client interface {
	// Generate sends a single prompt and returns the completion text.
	//
	// Inputs:
	//   - ctx: Context for cancellation and timeout.
	//   - prompt: The full grounding prompt.
	//   - params: Generation parameters.
	//
	// Outputs:
	//   - string: The raw completion text.
	//   - error: Non-nil on provider failure.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat sends a multi-turn conversation and returns the response text.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)

	// Name returns the provider name for logging and metrics labels.
	Name() string
}

// GenerationParams holds provider-agnostic generation options.
type GenerationParams struct {
	// Temperature controls randomness. Code generation pins this to 0 for
	// the most deterministic output. Nil omits the field and uses the
	// provider default.
	Temperature *float32

	// MaxTokens limits the completion length. Nil omits the field.
	MaxTokens *int

	// ModelOverride selects a model for this request only.
	ModelOverride string
}

// Deterministic returns the parameter set used for code generation:
// temperature zero with the given token ceiling.
func Deterministic(maxTokens int) GenerationParams {
	temp := float32(0)
	p := GenerationParams{Temperature: &temp}
	if maxTokens > 0 {
		p.MaxTokens = &maxTokens
	}
	return p
}
