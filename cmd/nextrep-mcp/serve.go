package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"

	nextmcp "github.com/claude/nextrep/internal/mcp"
)

func serve(ds nextmcp.DataSource, defaultUser uuid.UUID, log *slog.Logger) {
	s := nextmcp.New(ds, defaultUser, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
