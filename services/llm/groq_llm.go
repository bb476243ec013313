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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1/chat/completions"

// groqRequest is the chat completions request payload. Groq exposes an
// OpenAI-compatible API, so the wire format matches chat completions.
type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []groqChoice `json:"choices"`
	Error   *groqError   `json:"error,omitempty"`
}

type groqChoice struct {
	Message      groqMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type groqError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GroqClient implements Client for Groq-hosted models using raw net/http.
//
// Description:
//
//	Uses the Groq chat completions REST API (OpenAI-compatible) directly
//	without third-party SDKs.
//
// Thread Safety: GroqClient is safe for concurrent use.
type GroqClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewGroqClient creates a GroqClient with explicit configuration.
//
// Inputs:
//   - apiKey: The Groq API key. Must be non-empty.
//   - model: The model name (e.g., "llama-3.3-70b-versatile").
//   - timeout: Per-call HTTP timeout. Non-positive falls back to the
//     default.
//
// Outputs:
//   - *GroqClient: The configured client.
//   - error: Non-nil if the API key is missing.
func NewGroqClient(apiKey, model string, timeout time.Duration) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq: API key is missing (GROQ_API_KEY)")
	}
	if model == "" {
		model = "llama-3.3-70b-versatile"
		slog.Info("Groq model not set, defaulting to llama-3.3-70b-versatile")
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	slog.Info("Initializing Groq client",
		slog.String("model", model),
		slog.Duration("timeout", timeout),
	)

	return &GroqClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGroqBaseURL,
	}, nil
}

// NewGroqClientWithConfig creates a GroqClient pointed at a custom base
// URL. Useful for testing against mock servers.
func NewGroqClientWithConfig(apiKey, model, baseURL string) *GroqClient {
	return &GroqClient{
		httpClient: &http.Client{Timeout: defaultLLMTimeout},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// Name implements Client.
func (g *GroqClient) Name() string { return "groq" }

// Generate implements Client.Generate by wrapping the prompt in a single
// user message.
func (g *GroqClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	messages := []datatypes.Message{
		{Role: "user", Content: prompt},
	}
	return g.Chat(ctx, messages, params)
}

// Chat implements Client.Chat using the Groq chat completions API.
func (g *GroqClient) Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error) {
	model := g.model
	if params.ModelOverride != "" {
		model = params.ModelOverride
	}

	slog.Debug("Chat via Groq", slog.String("model", model), slog.Int("messages", len(messages)))

	wireMessages := make([]groqMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		switch role {
		case "system", "user", "assistant":
		default:
			slog.Warn("Groq: unknown message role, mapping to user",
				slog.String("unknown_role", role),
			)
			role = "user"
		}
		wireMessages = append(wireMessages, groqMessage{Role: role, Content: msg.Content})
	}

	reqPayload := groqRequest{
		Model:       model,
		Messages:    wireMessages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("groq: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("groq: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		recordCallMetrics("groq", time.Since(start), err)
		return "", fmt.Errorf("groq: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		recordCallMetrics("groq", time.Since(start), err)
		return "", fmt.Errorf("groq: reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("groq: API returned status %d: %s", resp.StatusCode, SafeLogString(string(bodyBytes)))
		recordCallMetrics("groq", time.Since(start), err)
		return "", err
	}

	var apiResp groqResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		recordCallMetrics("groq", time.Since(start), err)
		return "", fmt.Errorf("groq: parsing response JSON: %w", err)
	}

	if apiResp.Error != nil {
		err := fmt.Errorf("groq: API error (%s): %s", apiResp.Error.Type, SafeLogString(apiResp.Error.Message))
		recordCallMetrics("groq", time.Since(start), err)
		return "", err
	}

	if len(apiResp.Choices) == 0 {
		err := fmt.Errorf("groq: returned no choices")
		recordCallMetrics("groq", time.Since(start), err)
		return "", err
	}

	result := apiResp.Choices[0].Message.Content
	if result == "" {
		err := fmt.Errorf("groq: returned empty message content")
		recordCallMetrics("groq", time.Since(start), err)
		return "", err
	}

	recordCallMetrics("groq", time.Since(start), nil)

	slog.Debug("Received Groq response",
		slog.String("model", model),
		slog.Int("response_len", len(result)),
		slog.String("finish_reason", apiResp.Choices[0].FinishReason),
	)

	return result, nil
}
