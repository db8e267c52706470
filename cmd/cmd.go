// Package cmd provides the CLI commands for counsel.
//
// Commands:
//   - serve: HTTP API server with SSE streaming
//   - ask: one-shot question on the terminal
//   - tools: built-in MCP tool server on stdio
//
// Signal handling and graceful shutdown are implemented for all
// commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/counsel0/counsel/internal/log"
)

// Execute is the main entry point for the counsel CLI.
func Execute() error {
	// Initialize logger once at entry point. Logs go to stderr so the
	// tools command can keep stdout for JSON-RPC.
	slog.SetDefault(log.New(log.Config{Level: logLevel()}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ask":
		return runAsk()
	case "tools":
		return runTools()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Counsel - LLM conversation orchestration engine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  counsel serve [addr]   Start HTTP API server (default: :8080)")
	fmt.Println("  counsel ask <question> Ask a one-shot question")
	fmt.Println("  counsel tools          Start the built-in MCP tool server (stdio)")
	fmt.Println("  counsel --version      Show version information")
	fmt.Println("  counsel --help         Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  ANTHROPIC_API_KEY      API key for the anthropic provider")
	fmt.Println("  OPENAI_API_KEY         API key for the openai provider")
	fmt.Println("  GEMINI_API_KEY         API key for the gemini provider")
	fmt.Println("  COUNSEL_PROVIDER       Provider override (anthropic, openai, gemini, ollama)")
	fmt.Println("  DEBUG                  Enable debug logging")
	fmt.Println()
	fmt.Println("Configuration file: ~/.counsel/config.yaml")
}
