package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	mcpSdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/counsel0/counsel/internal/toolserver"
)

// runTools starts the built-in MCP tool server on stdio transport. The
// serve and ask commands spawn this as a subprocess when no external
// tool servers are configured.
func runTools() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server, err := toolserver.NewServer(toolserver.Config{
		Name:    "counsel-tools",
		Version: Version,
	})
	if err != nil {
		return fmt.Errorf("creating tool server: %w", err)
	}

	slog.Info("MCP tool server ready", "name", "counsel-tools", "version", Version, "transport", "stdio")

	if err := server.Run(ctx, &mcpSdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP tool server error: %w", err)
	}

	slog.Info("MCP tool server shut down gracefully")
	return nil
}
