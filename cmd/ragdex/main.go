package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/chunker"
	"github.com/docubrain/ragdex/internal/config"
	"github.com/docubrain/ragdex/internal/db"
	dbRedis "github.com/docubrain/ragdex/internal/db/redis"
	"github.com/docubrain/ragdex/internal/domain"
	"github.com/docubrain/ragdex/internal/index"
	logpkg "github.com/docubrain/ragdex/internal/logger"
	"github.com/docubrain/ragdex/internal/metrics"
	"github.com/docubrain/ragdex/internal/parser"
	"github.com/docubrain/ragdex/internal/repository/embcache"
	chiTransport "github.com/docubrain/ragdex/internal/transport/chi"
	openaiTransport "github.com/docubrain/ragdex/internal/transport/openai"
	analysisuc "github.com/docubrain/ragdex/internal/usecase/analysis"
	chatuc "github.com/docubrain/ragdex/internal/usecase/chat"
	healthuc "github.com/docubrain/ragdex/internal/usecase/health"
	ingestuc "github.com/docubrain/ragdex/internal/usecase/ingest"
	retrievaluc "github.com/docubrain/ragdex/internal/usecase/retrieval"
	"github.com/docubrain/ragdex/internal/version"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_dir", cfg.Storage.IndexDir),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterDomainMetrics()

	// Optional Redis embedding cache
	var kv db.KVStore
	if len(cfg.Cache.Addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache store", zap.Error(err))
		}
		defer store.Close()
		kv = store
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Base provider kept separate from the decorated chains; health
	// checks go straight to the provider, never through the cache.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	docEmbedder := buildEmbedder(baseEmbedder, kv, cfg.Embedding.DocumentInstruction, logger)
	queryEmbedder := buildEmbedder(baseEmbedder, kv, cfg.Embedding.QueryInstruction, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	llm := openaiTransport.NewLLM(&openaiTransport.LLMConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})

	indexes, err := index.NewStore(cfg.Storage.IndexDir, cfg.Embedding.Dimensions)
	if err != nil {
		logger.Fatal("Failed to open index store", zap.Error(err))
	}

	// Use case services
	ingestSvc := ingestuc.New(
		parser.Parse,
		chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		docEmbedder,
		indexes,
		logger,
	)
	decomposer := retrievaluc.NewDecomposer(
		llm, cfg.RAG.SubQueries, time.Duration(cfg.LLM.DecomposeTimeoutSec)*time.Second, logger,
	)
	retrievalSvc := retrievaluc.New(queryEmbedder, indexes, decomposer, retrievaluc.Config{
		DefaultUserID: cfg.Storage.DefaultUserID,
		PerQueryK:     cfg.RAG.PerQueryK,
		FinalK:        cfg.RAG.FinalK,
	}, logger)
	chatSvc := chatuc.New(retrievalSvc, llm, chatuc.Config{
		ContextBudgetChars: cfg.RAG.ContextBudgetChars,
		LLMTimeout:         time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	}, logger)
	analysisSvc := analysisuc.New(llm, analysisuc.Config{
		MaxContextChars: cfg.RAG.AnalysisMaxContextChars,
		LLMTimeout:      time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	}, logger)

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.CachePinger
	if kv != nil {
		cachePinger = kv
	}
	healthSvc := healthuc.New(
		baseEmbedder, cachePinger, indexes,
		cfg.Embedding.Model, cfg.Embedding.Provider, cfg.Storage.DefaultUserID,
	)

	// Seed the shared default corpus; a failed seed is a warning, not a
	// startup failure.
	if cfg.Storage.DefaultAssetsDir != "" {
		added, err := ingestSvc.SeedDefaults(
			context.Background(), cfg.Storage.DefaultAssetsDir, cfg.Storage.DefaultUserID,
		)
		if err != nil {
			logger.Warn("Default corpus seeding failed", zap.Error(err))
		} else {
			logger.Info("Default corpus seeded", zap.Int("added", added))
		}
	}

	server := chiTransport.NewServer(ingestSvc, retrievalSvc, chatSvc, analysisSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	base *openaiTransport.Embedder,
	kv db.KVStore,
	instruction string,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if kv != nil {
		embedder = embcache.New(base, kv, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost; cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
