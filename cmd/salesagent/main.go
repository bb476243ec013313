// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command salesagent is the interactive console for the sales data
// analysis agent. It wires configuration, the LLM client, the retrieval
// agent, and the analysis engine into one conversation orchestrator and
// runs a read-eval-print loop over stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/salesagent/services/analysis"
	"github.com/AleutianAI/salesagent/services/config"
	"github.com/AleutianAI/salesagent/services/llm"
	"github.com/AleutianAI/salesagent/services/orchestrator"
	"github.com/AleutianAI/salesagent/services/retrieval"
)

var verbose bool

const banner = `Sales Data Analysis Agent
Ask a question about your sales data. Commands: help, new, exit`

const helpText = `Commands:
  help        show this message
  new         start a new conversation
  exit|quit|q leave

Anything else is sent to the agent. Example:
  Show me this quarter's sales (Nov, Dec, Jan)`

func main() {
	rootCmd := &cobra.Command{
		Use:   "salesagent",
		Short: "Conversational sales data analysis agent",
		Run:   runInteractive,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInteractive(_ *cobra.Command, _ []string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("LLM client error: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	engine := analysis.NewEngine(client, cfg.DownloadDir, cfg.ExecTimeout, cfg.LLM.MaxTokens)
	retriever := retrieval.NewAgent(cfg.DownloadDir, cfg.DriveCredentialsPath, cfg.MaxFileSizeMB)
	orch := orchestrator.New(retriever, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		fmt.Println("\nGoodbye.")
		os.Exit(0)
	}()

	fmt.Println(banner)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "q":
			fmt.Println("Goodbye.")
			return
		case "help":
			fmt.Println(helpText)
			continue
		case "new":
			orch = orchestrator.New(retriever, engine)
			fmt.Println("Started a new conversation. What would you like to analyze?")
			continue
		}

		fmt.Println(orch.Respond(ctx, input))

		if s := orch.Session(); s != nil && s.Complete() {
			summary := s.Summary()
			fmt.Printf("\nAnalysis complete: %d messages, output saved to %s.\n",
				summary.MessageCount, summary.OutputFile)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Reading input failed", slog.String("error", err.Error()))
	}
}

// serveMetrics exposes the Prometheus registry at /metrics. The listener
// lives for the whole process; a bind failure is logged, not fatal, since
// metrics are an optional side channel for the console agent.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("Serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Metrics listener failed", slog.String("error", err.Error()))
	}
}
