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
	"fmt"
	"log/slog"

	"github.com/AleutianAI/salesagent/services/config"
)

// NewClient creates the Client matching the configured provider.
//
// Description:
//
//	Central creation point for LLM adapters. Configuration is validated
//	at startup, so a missing key here indicates a programming error rather
//	than a user error, but it is still reported rather than panicking.
//
// Inputs:
//   - cfg: The LLM section of the agent configuration.
//
// Outputs:
//   - Client: The adapter for the configured provider.
//   - error: Non-nil if the provider is unknown or its key is missing.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(cfg.GoogleAPIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		slog.Info("LLM adapter ready",
			slog.String("provider", "gemini"),
			slog.String("model", cfg.Model),
		)
		return client, nil

	case config.ProviderGroq:
		client, err := NewGroqClient(cfg.GroqAPIKey, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		slog.Info("LLM adapter ready",
			slog.String("provider", "groq"),
			slog.String("model", cfg.Model),
		)
		return client, nil

	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
}
