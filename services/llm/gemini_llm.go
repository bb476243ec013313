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
	"strings"
	"time"

	"github.com/AleutianAI/salesagent/services/orchestrator/datatypes"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// defaultLLMTimeout bounds a completion call when no timeout is configured.
const defaultLLMTimeout = 120 * time.Second

// GeminiClient implements Client for Google Gemini models.
//
// Description:
//
//	Uses the Gemini REST API (generateContent) directly without an SDK.
//	Supports text generation and multi-turn conversations.
//
// Thread Safety: GeminiClient is safe for concurrent use.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewGeminiClient creates a GeminiClient with explicit configuration.
//
// Inputs:
//   - apiKey: The Gemini API key. Must be non-empty.
//   - model: The model name (e.g., "gemini-1.5-flash").
//   - timeout: Per-call HTTP timeout. Non-positive falls back to the
//     default.
//
// Outputs:
//   - *GeminiClient: The configured client.
//   - error: Non-nil if the API key is missing.
func NewGeminiClient(apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is missing (GOOGLE_API_KEY)")
	}
	if model == "" {
		model = "gemini-1.5-flash"
		slog.Info("Gemini model not set, defaulting to gemini-1.5-flash")
	}
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	slog.Info("Initializing Gemini client",
		slog.String("model", model),
		slog.Duration("timeout", timeout),
	)

	return &GeminiClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
	}, nil
}

// NewGeminiClientWithConfig creates a GeminiClient pointed at a custom base
// URL. Useful for testing against mock servers.
func NewGeminiClientWithConfig(apiKey, model, baseURL string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: defaultLLMTimeout},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// Name implements Client.
func (g *GeminiClient) Name() string { return "gemini" }

// geminiRequest is the request payload for the generateContent API.
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// geminiContent represents a content block.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a part of a content block.
type geminiPart struct {
	Text string `json:"text,omitempty"`
}

// geminiGenerationConfig controls generation behavior.
type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

// geminiResponse is the response from the generateContent API.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

// geminiCandidate represents a candidate response.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// geminiError represents an API error.
type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate implements Client.Generate by wrapping the prompt in a single
// user message.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	messages := []datatypes.Message{
		{Role: "user", Content: prompt},
	}
	return g.Chat(ctx, messages, params)
}

// Chat implements Client.Chat using the Gemini generateContent API.
func (g *GeminiClient) Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error) {
	model := g.model
	if params.ModelOverride != "" {
		model = params.ModelOverride
	}

	reqPayload := g.buildRequest(messages, params)

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("gemini: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("gemini: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	slog.Debug("Sending request to Gemini",
		slog.String("model", model),
		slog.Int("content_count", len(reqPayload.Contents)),
	)

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		recordCallMetrics("gemini", time.Since(start), err)
		return "", fmt.Errorf("gemini: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		recordCallMetrics("gemini", time.Since(start), err)
		return "", fmt.Errorf("gemini: reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, SafeLogString(string(bodyBytes)))
		recordCallMetrics("gemini", time.Since(start), err)
		return "", err
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		recordCallMetrics("gemini", time.Since(start), err)
		return "", fmt.Errorf("gemini: parsing response JSON: %w", err)
	}

	if apiResp.Error != nil {
		err := fmt.Errorf("gemini: API error [%d] %s: %s",
			apiResp.Error.Code, apiResp.Error.Status, SafeLogString(apiResp.Error.Message))
		recordCallMetrics("gemini", time.Since(start), err)
		return "", err
	}

	if len(apiResp.Candidates) == 0 {
		err := fmt.Errorf("gemini: returned no candidates")
		recordCallMetrics("gemini", time.Since(start), err)
		return "", err
	}

	var textParts []string
	for _, part := range apiResp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}

	result := strings.Join(textParts, "")
	if result == "" {
		err := fmt.Errorf("gemini: returned empty text content")
		recordCallMetrics("gemini", time.Since(start), err)
		return "", err
	}

	recordCallMetrics("gemini", time.Since(start), nil)

	slog.Debug("Received Gemini response",
		slog.String("model", model),
		slog.Int("response_len", len(result)),
		slog.String("finish_reason", apiResp.Candidates[0].FinishReason),
	)

	return result, nil
}

// buildRequest converts messages and params to the Gemini wire format.
// System messages become the systemInstruction block; assistant messages
// map to the "model" role.
func (g *GeminiClient) buildRequest(messages []datatypes.Message, params GenerationParams) geminiRequest {
	req := geminiRequest{}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			req.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
			}
		case "assistant":
			req.Contents = append(req.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		default:
			req.Contents = append(req.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	if params.Temperature != nil || params.MaxTokens != nil {
		req.GenerationConfig = &geminiGenerationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
		}
	}

	return req
}
