package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-reader-session/internal/config"
	"pdf-reader-session/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	if err := container.SessionService.Start(); err != nil {
		container.Logger.Error("Failed to start session service", err)
		os.Exit(1)
	}

	var validator handler.TokenValidator
	if container.AuthService != nil {
		validator = container.AuthService
	} else {
		container.Logger.Warn("Supabase not configured; API is unauthenticated")
	}

	origins := container.Config.GetAllowedOrigins()
	sessions := container.SessionService
	router := handler.NewRouter(
		handler.NewSessionHandler(sessions, container.Logger),
		handler.NewEventsHandler(sessions, container.Events, origins, container.Logger),
		handler.AuthMiddleware(validator, container.Logger),
		container.Logger,
		origins,
	)

	server := &http.Server{
		Addr:    ":" + container.Config.GetServerPort(),
		Handler: router,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
	}
	// sessions flush their progress before the store closes
	if err := sessions.Shutdown(ctx); err != nil {
		container.Logger.Error("Session shutdown failed", err)
	}

	container.Logger.Info("Server exited")
}
