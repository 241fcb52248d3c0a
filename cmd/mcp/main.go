package main

import (
	"context"
	"log"
	"os"
	"time"

	"pdf-reader-session/internal/config"
	mcpserver "pdf-reader-session/internal/mcp"
	"pdf-reader-session/pkg/logger"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// stdout carries the protocol
	cfg := config.NewConfig()
	container, err := config.NewContainerWithConfig(cfg, logger.NewLoggerWithWriter(cfg.GetLogLevel(), os.Stderr))
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	sessions := container.SessionService
	if err := sessions.Start(); err != nil {
		log.Fatalf("Failed to start session service: %v", err)
	}

	srv := mcpserver.New(sessions, version, container.Logger)
	if err := srv.ServeStdio(); err != nil {
		container.Logger.Error("MCP server stopped", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sessions.Shutdown(ctx); err != nil {
		container.Logger.Error("Session shutdown failed", err)
	}
}
