// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the agent configuration.
//
// Configuration is layered: a .env file (if present) is loaded into the
// environment first, then environment variables are read, then an optional
// YAML file (SALESAGENT_CONFIG, default ./salesagent.yaml) overrides
// non-credential settings. Credentials only ever come from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Default models per provider, mirroring the provider defaults used by the
// analysis engine's code-generation role.
const (
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultGeminiModel = "gemini-1.5-flash"
)

// LLMConfig holds the code-generation LLM settings.
type LLMConfig struct {
	// Provider selects the backing LLM API: "groq" or "gemini".
	Provider string `yaml:"provider"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// GoogleAPIKey authenticates Gemini requests. Environment only.
	GoogleAPIKey string `yaml:"-"`

	// GroqAPIKey authenticates Groq requests. Environment only.
	GroqAPIKey string `yaml:"-"`

	// MaxTokens bounds the completion length.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single completion call. A timeout surfaces to the
	// user as a generation failure, never a hung session.
	Timeout time.Duration `yaml:"-"`
}

// Config is the full agent configuration.
type Config struct {
	LLM LLMConfig `yaml:"llm"`

	// DriveCredentialsPath points at the Google service credentials JSON
	// used for Drive retrieval.
	DriveCredentialsPath string `yaml:"drive_credentials"`

	// DownloadDir is where retrieved files and produced artifacts land.
	DownloadDir string `yaml:"download_dir"`

	// MaxFileSizeMB caps the size of retrieved dataset files.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`

	// ExecTimeout bounds a single sandbox program evaluation.
	ExecTimeout time.Duration `yaml:"-"`

	// MetricsAddr, when set (e.g. ":9090"), serves Prometheus metrics at
	// /metrics on that address. Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Load builds the configuration from .env, the environment, and the
// optional YAML override file.
//
// Outputs:
//   - *Config: The layered configuration. Never nil on success.
//   - error: Non-nil if the YAML override exists but cannot be parsed.
//
// Load does not validate credentials; call Validate before starting any
// session so a missing key aborts at startup rather than mid-conversation.
func Load() (*Config, error) {
	// A missing .env is fine; explicit environment always wins anyway.
	_ = godotenv.Load()

	provider := envOr("LLM_PROVIDER", ProviderGroq)

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		if provider == ProviderGemini {
			model = defaultGeminiModel
		} else {
			model = defaultGroqModel
		}
	}

	cfg := &Config{
		LLM: LLMConfig{
			Provider:     provider,
			Model:        model,
			GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
			GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
			MaxTokens:    envInt("LLM_MAX_TOKENS", 2048),
			Timeout:      time.Duration(envInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		DriveCredentialsPath: envOr("GOOGLE_DRIVE_CREDENTIALS_PATH", "credentials/credentials.json"),
		DownloadDir:          envOr("TEMP_DOWNLOAD_DIR", "temp_downloads"),
		MaxFileSizeMB:        envInt("MAX_FILE_SIZE_MB", 100),
		ExecTimeout:          time.Duration(envInt("EXEC_TIMEOUT_SECONDS", 30)) * time.Second,
		MetricsAddr:          os.Getenv("METRICS_ADDR"),
	}

	if err := applyYAMLOverride(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected LLM provider has a credential.
//
// Outputs:
//   - error: Non-nil when the required API key is missing or the provider
//     name is unknown. Treated as fatal by the CLI before any session starts.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GoogleAPIKey == "" {
			return fmt.Errorf("config: GOOGLE_API_KEY is required for the gemini provider")
		}
	case ProviderGroq:
		if c.LLM.GroqAPIKey == "" {
			return fmt.Errorf("config: GROQ_API_KEY is required for the groq provider")
		}
	default:
		return fmt.Errorf("config: unknown LLM provider %q (expected %q or %q)",
			c.LLM.Provider, ProviderGroq, ProviderGemini)
	}
	return nil
}

// applyYAMLOverride merges the optional YAML file into cfg.
//
// The file is located via SALESAGENT_CONFIG, falling back to
// ./salesagent.yaml. A missing file is not an error.
func applyYAMLOverride(cfg *Config) error {
	path := envOr("SALESAGENT_CONFIG", "salesagent.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
