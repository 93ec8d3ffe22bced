// Command server is the entry point for the yatube web application.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "yatube",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1.0,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Create server with dependency injection
	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		middleware.Logger.Info("shutting down server", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			middleware.Logger.Error("server stopped", slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}
}
