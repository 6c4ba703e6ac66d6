package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/felixgeelhaar/promptcraft/internal/mcp"
)

// cmdMCP starts the MCP server on stdio
func cmdMCP() error {
	a, err := newApp()
	if err != nil {
		return err
	}

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Catalog:     a.catalog,
		Progress:    a.progress,
		Leaderboard: a.client,
		Version:     Version,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return mcpSrv.ServeStdio(ctx)
}
