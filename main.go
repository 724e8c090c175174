package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/athapong/relfeat/pkg/resolver"
	"github.com/athapong/relfeat/tools"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	enableSSE := flag.Bool("sse", false, "Enable SSE server")
	sseAddr := flag.String("sse-addr", ":8080", "Address for SSE server to listen on")
	sseBasePath := flag.String("sse-base-path", "/mcp", "Base path for SSE endpoints")
	logLevel := flag.String("log-level", "warn", "Logging level (debug, info, warn, error)")
	flag.Parse()

	// stdout carries the stdio transport, so logs go to stderr
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)

	if err := godotenv.Load(*envFile); err != nil {
		logger.Debugf("No env file loaded from %s: %v", *envFile, err)
	}

	mcpServer := server.NewMCPServer(
		"relfeat",
		"1.0.0",
		server.WithLogging(),
		server.WithToolCapabilities(true),
	)

	tools.RegisterFeatureTools(mcpServer, tools.NewFeatureServer(resolver.Builtin(), logger))

	if !*enableSSE && os.Getenv("ENABLE_SSE") != "true" {
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.Fatalf("Server error: %v", err)
		}
		return
	}

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBasePath(*sseBasePath),
	)

	go func() {
		logger.Infof("Starting SSE server on %s with base path %s", *sseAddr, *sseBasePath)
		if err := sseServer.Start(*sseAddr); err != nil {
			logger.Fatalf("Failed to start SSE server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infof("Received signal %v, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sseServer.Shutdown(ctx); err != nil {
		logger.Errorf("Error during SSE server shutdown: %v", err)
	}
	logger.Info("SSE server shutdown complete")
}
