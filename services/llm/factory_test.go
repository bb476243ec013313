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
	"testing"
	"time"

	"github.com/AleutianAI/salesagent/services/config"
)

func TestNewClientSelectsProvider(t *testing.T) {
	client, err := NewClient(config.LLMConfig{
		Provider:   config.ProviderGroq,
		Model:      "llama-3.3-70b-versatile",
		GroqAPIKey: "gsk_test",
		Timeout:    9 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient(groq) error = %v", err)
	}
	if got := client.Name(); got != "groq" {
		t.Errorf("Name() = %q, want groq", got)
	}
	if groq, ok := client.(*GroqClient); !ok || groq.httpClient.Timeout != 9*time.Second {
		t.Errorf("configured timeout not applied to the HTTP client")
	}

	client, err = NewClient(config.LLMConfig{
		Provider:     config.ProviderGemini,
		Model:        "gemini-1.5-flash",
		GoogleAPIKey: "test",
	})
	if err != nil {
		t.Fatalf("NewClient(gemini) error = %v", err)
	}
	if got := client.Name(); got != "gemini" {
		t.Errorf("Name() = %q, want gemini", got)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	if _, err := NewClient(config.LLMConfig{Provider: "openai"}); err == nil {
		t.Error("NewClient with unknown provider should fail")
	}
}

func TestNewClientMissingKey(t *testing.T) {
	if _, err := NewClient(config.LLMConfig{Provider: config.ProviderGroq}); err == nil {
		t.Error("NewClient without key should fail")
	}
}
