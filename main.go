package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/config"
	"github.com/dataquill-ai/dataquill-engine/pkg/executor"
	"github.com/dataquill-ai/dataquill-engine/pkg/handlers"
	"github.com/dataquill-ai/dataquill-engine/pkg/llm"
	"github.com/dataquill-ai/dataquill-engine/pkg/logging"
	"github.com/dataquill-ai/dataquill-engine/pkg/mcp"
	"github.com/dataquill-ai/dataquill-engine/pkg/mcp/tools"
	"github.com/dataquill-ai/dataquill-engine/pkg/middleware"
	"github.com/dataquill-ai/dataquill-engine/pkg/planner"
	"github.com/dataquill-ai/dataquill-engine/pkg/schema"
	"github.com/dataquill-ai/dataquill-engine/pkg/services"
	"github.com/dataquill-ai/dataquill-engine/pkg/storage"
	"github.com/dataquill-ai/dataquill-engine/pkg/textproc"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("bucket", cfg.Storage.Bucket),
		zap.Bool("ai_configured", cfg.AI.IsConfigured()),
	)

	store, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	taxonomy, err := schema.LoadTaxonomy()
	if err != nil {
		logger.Fatal("Failed to load column taxonomy", zap.Error(err))
	}

	matcher := schema.NewMatcher(taxonomy, cfg.Analysis.FuzzyThreshold)
	analyzer := schema.NewAnalyzer(taxonomy, logger)
	queryPlanner := planner.New(nil, logger)
	planExecutor := executor.New(matcher, logger)

	tabular := services.NewTabularService(
		store, cfg.Storage.Bucket, analyzer, matcher, queryPlanner, planExecutor, logger)

	counter := textproc.NewTokenCounter(logger)
	chunker := textproc.NewStructuralChunker(cfg.Analysis.MaxChunkTokens, counter)
	filter := textproc.NewRelevanceFilter(cfg.Analysis.TokenBudget, counter)

	var client llm.Client
	if cfg.AI.IsConfigured() {
		client, err = llm.NewClient(&llm.ProviderConfig{
			Provider: cfg.AI.Provider,
			Endpoint: cfg.AI.Endpoint,
			Model:    cfg.AI.Model,
			APIKey:   cfg.AI.APIKey,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize model client", zap.Error(err))
		}
	} else {
		logger.Warn("No model endpoint configured; summarization degrades to truncation")
	}

	summarizer := services.NewChunkSummarizer(client, cfg.AI.Temperature, cfg.AI.MaxSummaryTokens, logger)
	pool := llm.NewWorkerPool(cfg.AI.SummaryWorkers, logger)

	documents := services.NewDocumentService(
		store, cfg.Storage.Bucket, counter, chunker, filter, summarizer, pool, logger)

	mcpServer := mcp.NewServer("dataquill-engine", cfg.Version, logger)
	deps := &tools.Deps{
		Tabular:   tabular,
		Documents: documents,
		Logger:    logger,
	}
	tools.RegisterQueryTableTool(mcpServer.MCP(), deps)
	tools.RegisterReadDocumentTool(mcpServer.MCP(), deps)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAnalysisHandler(tabular, documents, logger).RegisterRoutes(mux)

	mcpHTTP := mcpServer.NewStreamableHTTPServer()
	mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpHTTP))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info("Starting dataquill-engine",
			zap.String("addr", addr),
			zap.String("version", cfg.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
	}
}

func buildStore(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "supabase":
		return storage.NewSupabaseStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey), nil
	case "local":
		return storage.NewLocalStore(cfg.Storage.LocalDir), nil
	default:
		return nil, errors.New("unknown storage backend " + cfg.Storage.Backend)
	}
}
