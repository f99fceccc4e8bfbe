package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skypro1111/call-compliance-service/internal/acoustic"
	"github.com/skypro1111/call-compliance-service/internal/clientcfg"
	"github.com/skypro1111/call-compliance-service/internal/config"
	"github.com/skypro1111/call-compliance-service/internal/metrics"
	"github.com/skypro1111/call-compliance-service/internal/pipeline"
	"github.com/skypro1111/call-compliance-service/internal/policy"
	"github.com/skypro1111/call-compliance-service/internal/reasoning"
	"github.com/skypro1111/call-compliance-service/internal/report"
	"github.com/skypro1111/call-compliance-service/internal/server"
	"github.com/skypro1111/call-compliance-service/internal/transcription"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "call-compliance-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.Int("http_port", cfg.HTTP.Port),
		slog.String("policies_dir", cfg.Policies.Dir),
		slog.String("index_path", cfg.Policies.IndexPath),
		slog.String("embedding_endpoint", cfg.Embedding.Endpoint),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("reasoning_endpoint", cfg.Reasoning.Endpoint),
		slog.Int("reasoning_models", len(cfg.Reasoning.Models)),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	defaultClientConfig := clientcfg.Default()

	// Build the pipeline only when all API keys are present. Otherwise the
	// service starts degraded: configuration and health endpoints work,
	// analysis requests are rejected with 503.
	var analysisPipeline *pipeline.Pipeline
	if cfg.HasAPIKeys() {
		analysisPipeline, err = buildPipeline(ctx, cfg, defaultClientConfig, appMetrics, logger)
		if err != nil {
			logger.Error("Failed to build analysis pipeline", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		logger.Warn("API keys are not fully configured, starting degraded: analysis requests will be rejected")
	}

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(cfg, analysisPipeline, defaultClientConfig, appMetrics, logger)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.Int("http_port", cfg.HTTP.Port),
	)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.GetShutdownTimeout())
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// buildPipeline constructs every analysis stage and initializes the policy
// store. A store initialization failure is not fatal: the pipeline is built
// anyway and reports not-ready until the corpus problem is fixed.
func buildPipeline(
	ctx context.Context,
	cfg *config.Config,
	defaultClientConfig clientcfg.Config,
	appMetrics *metrics.Metrics,
	logger *slog.Logger,
) (*pipeline.Pipeline, error) {
	embedder, err := policy.NewEmbeddingClient(policy.EmbeddingConfig{
		Endpoint: cfg.Embedding.Endpoint,
		APIKey:   cfg.Embedding.APIKey,
		Model:    cfg.Embedding.Model,
		Timeout:  cfg.Embedding.GetTimeoutDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	store, err := policy.NewStore(cfg.Policies.Dir, cfg.Policies.IndexPath, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy store: %w", err)
	}

	initStart := time.Now()
	if err := store.Initialize(ctx); err != nil {
		logger.Error("Policy store initialization failed, analysis requests will be rejected",
			slog.String("error", err.Error()))
	} else {
		appMetrics.RecordIndexBuild(time.Since(initStart).Seconds())
		logger.Info("Policy store ready",
			slog.Int("clauses", len(store.AllClauses())),
			slog.String("state", store.State().String()),
			slog.Duration("init_time", time.Since(initStart)))
	}
	appMetrics.SetIndexState(int(store.State()))

	retriever, err := policy.NewRetriever(store, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	transcriber, err := transcription.NewClient(transcription.Config{
		Endpoint:   cfg.Transcription.Endpoint,
		APIKey:     cfg.Transcription.APIKey,
		Model:      cfg.Transcription.Model,
		Timeout:    cfg.Transcription.GetTimeoutDuration(),
		MaxRetries: cfg.Transcription.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription client: %w", err)
	}

	generator, err := reasoning.NewClient(reasoning.Config{
		Endpoint: cfg.Reasoning.Endpoint,
		APIKey:   cfg.Reasoning.APIKey,
		Timeout:  cfg.Reasoning.GetTimeoutDuration(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reasoning client: %w", err)
	}

	orchestrator, err := reasoning.NewOrchestrator(generator, cfg.Reasoning.Models, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reasoning orchestrator: %w", err)
	}
	orchestrator.SetAttemptHook(appMetrics.RecordReasoningAttempt)

	return pipeline.New(
		acoustic.NewSegmenter(logger),
		transcriber,
		store,
		retriever,
		orchestrator,
		report.NewAssembler(logger),
		defaultClientConfig,
		appMetrics,
		logger,
	)
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
