// Venued is the conversation daemon for the two-stage venue assistant:
// venue discovery first, then optional risk assessment over the venues the
// user selects.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	ORACLE_API_KEY=... SEARCH_API_KEY=... venued
//
//	# Start with a config file
//	venued -config /etc/venued/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/venued/internal/classifier"
	"github.com/fyrsmithlabs/venued/internal/config"
	"github.com/fyrsmithlabs/venued/internal/discovery"
	httpserver "github.com/fyrsmithlabs/venued/internal/http"
	"github.com/fyrsmithlabs/venued/internal/logging"
	"github.com/fyrsmithlabs/venued/internal/oracle"
	"github.com/fyrsmithlabs/venued/internal/orchestrator"
	"github.com/fyrsmithlabs/venued/internal/risk"
	"github.com/fyrsmithlabs/venued/internal/websearch"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("venued by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts the venued server and blocks until context cancellation.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting venued",
		zap.String("addr", cfg.Server.Addr),
		zap.String("model", cfg.Oracle.Model),
		zap.Bool("auto_chain", cfg.Orchestrator.AutoChain))

	oracleClient, err := oracle.NewClient(oracle.Config{
		APIKey:            cfg.Oracle.APIKey,
		Model:             cfg.Oracle.Model,
		BaseURL:           cfg.Oracle.BaseURL,
		Timeout:           cfg.Oracle.Timeout,
		RequestsPerSecond: cfg.Oracle.RequestsPerSecond,
		MaxRetries:        cfg.Oracle.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("initializing oracle client: %w", err)
	}

	searchClient, err := websearch.NewClient(websearch.Config{
		APIKey:            cfg.Search.APIKey,
		BaseURL:           cfg.Search.BaseURL,
		Timeout:           cfg.Search.Timeout,
		RequestsPerSecond: cfg.Search.RequestsPerSecond,
		MaxRetries:        cfg.Search.MaxRetries,
		MaxResults:        cfg.Search.MaxResults,
	})
	if err != nil {
		return fmt.Errorf("initializing search client: %w", err)
	}

	finder := discovery.NewFinder(oracleClient, searchClient, logger)
	assessor := risk.NewAssessor(oracleClient, searchClient, logger)
	cls := classifier.New(oracleClient, logger)

	orch := orchestrator.NewService(finder, assessor, cls, orchestrator.Config{
		AutoChain:         cfg.Orchestrator.AutoChain,
		DiscoveryTimeout:  cfg.Orchestrator.DiscoveryTimeout,
		AssessmentTimeout: cfg.Orchestrator.AssessmentTimeout,
		ClassifyTimeout:   cfg.Orchestrator.ClassifyTimeout,
	}, logger)

	srv, err := httpserver.NewServer(orch, logger, &httpserver.Config{Addr: cfg.Server.Addr})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("chat_endpoint", "/api/v1/chat"),
		zap.String("health_endpoint", "/health"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
