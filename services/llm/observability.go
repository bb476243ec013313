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
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level Prometheus metrics for LLM adapter operations.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// llmCallDuration measures the duration of completion API calls.
	//
	// Labels:
	//   - provider: "gemini", "groq"
	//   - status: "success" or "error"
	llmCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salesagent",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM completion API calls in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// llmCallsTotal counts the total number of completion API calls.
	//
	// Labels:
	//   - provider: "gemini", "groq"
	//   - status: "success" or "error"
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salesagent",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM completion API calls.",
		},
		[]string{"provider", "status"},
	)

	// llmErrorsTotal counts completion errors by type.
	//
	// Labels:
	//   - provider: "gemini", "groq"
	//   - error_type: "timeout", "auth", "rate_limit", "server", "unknown"
	llmErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salesagent",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Total LLM completion errors by type.",
		},
		[]string{"provider", "error_type"},
	)
)

// classifyCallError maps an error to a label-safe error type string.
//
// Description:
//
//	Inspects the error message to categorize it into one of the predefined
//	error types. Used for Prometheus labels to avoid high cardinality.
//
// Thread Safety: Safe for concurrent use.
func classifyCallError(err error) string {
	if err == nil {
		return ""
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "status 401") ||
		strings.Contains(msg, "status 403") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "api key"):
		return "auth"
	case strings.Contains(msg, "status 429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests"):
		return "rate_limit"
	case strings.Contains(msg, "status 500") ||
		strings.Contains(msg, "status 502") ||
		strings.Contains(msg, "status 503") ||
		strings.Contains(msg, "server error"):
		return "server"
	default:
		return "unknown"
	}
}

// recordCallMetrics records duration, count, and (on failure) error type
// for a single completion call.
func recordCallMetrics(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		llmErrorsTotal.WithLabelValues(provider, classifyCallError(err)).Inc()
	}
	llmCallDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
	llmCallsTotal.WithLabelValues(provider, status).Inc()
}
