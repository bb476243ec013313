// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host settings cannot leak
// into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "GOOGLE_API_KEY", "GROQ_API_KEY",
		"LLM_MAX_TOKENS", "LLM_TIMEOUT_SECONDS", "EXEC_TIMEOUT_SECONDS",
		"TEMP_DOWNLOAD_DIR", "GOOGLE_DRIVE_CREDENTIALS_PATH",
		"MAX_FILE_SIZE_MB", "SALESAGENT_CONFIG", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
	// Point the YAML override somewhere that does not exist.
	t.Setenv("SALESAGENT_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Provider != ProviderGroq {
		t.Errorf("Provider = %q, want groq default", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != defaultGroqModel {
		t.Errorf("Model = %q, want %q", cfg.LLM.Model, defaultGroqModel)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d, want 2048", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s", cfg.LLM.Timeout)
	}
	if cfg.DownloadDir != "temp_downloads" {
		t.Errorf("DownloadDir = %q, want temp_downloads", cfg.DownloadDir)
	}
	if cfg.ExecTimeout != 30*time.Second {
		t.Errorf("ExecTimeout = %v, want 30s", cfg.ExecTimeout)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr = %q, want disabled by default", cfg.MetricsAddr)
	}
}

func TestLoadGeminiDefaultModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", ProviderGemini)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != defaultGeminiModel {
		t.Errorf("Model = %q, want %q", cfg.LLM.Model, defaultGeminiModel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MODEL", "custom-model")
	t.Setenv("EXEC_TIMEOUT_SECONDS", "5")
	t.Setenv("TEMP_DOWNLOAD_DIR", "/tmp/agentdata")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != "custom-model" {
		t.Errorf("Model = %q, want custom-model", cfg.LLM.Model)
	}
	if cfg.ExecTimeout != 5*time.Second {
		t.Errorf("ExecTimeout = %v, want 5s", cfg.ExecTimeout)
	}
	if cfg.DownloadDir != "/tmp/agentdata" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want :9090", cfg.MetricsAddr)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	yaml := "download_dir: yaml_downloads\nllm:\n  model: yaml-model\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}
	t.Setenv("SALESAGENT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DownloadDir != "yaml_downloads" {
		t.Errorf("DownloadDir = %q, want yaml_downloads", cfg.DownloadDir)
	}
	if cfg.LLM.Model != "yaml-model" {
		t.Errorf("Model = %q, want yaml-model", cfg.LLM.Model)
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}
	t.Setenv("SALESAGENT_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Error("Load() with malformed YAML should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"groq with key", Config{LLM: LLMConfig{Provider: ProviderGroq, GroqAPIKey: "k"}}, false},
		{"groq without key", Config{LLM: LLMConfig{Provider: ProviderGroq}}, true},
		{"gemini with key", Config{LLM: LLMConfig{Provider: ProviderGemini, GoogleAPIKey: "k"}}, false},
		{"gemini without key", Config{LLM: LLMConfig{Provider: ProviderGemini}}, true},
		{"unknown provider", Config{LLM: LLMConfig{Provider: "openai"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
