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
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/config"
	dbRedis "github.com/vimo-cloud/ragstore/internal/db/redis"
	"github.com/vimo-cloud/ragstore/internal/domain"
	logpkg "github.com/vimo-cloud/ragstore/internal/logger"
	"github.com/vimo-cloud/ragstore/internal/metrics"
	collectionrepo "github.com/vimo-cloud/ragstore/internal/repository/collection"
	"github.com/vimo-cloud/ragstore/internal/repository/embcache"
	pointrepo "github.com/vimo-cloud/ragstore/internal/repository/point"
	chiTransport "github.com/vimo-cloud/ragstore/internal/transport/chi"
	openaiTransport "github.com/vimo-cloud/ragstore/internal/transport/openai"
	"github.com/vimo-cloud/ragstore/internal/transport/rerank"
	"github.com/vimo-cloud/ragstore/internal/trim"
	chatuc "github.com/vimo-cloud/ragstore/internal/usecase/chat"
	collectionuc "github.com/vimo-cloud/ragstore/internal/usecase/collection"
	completionuc "github.com/vimo-cloud/ragstore/internal/usecase/completion"
	embeddinguc "github.com/vimo-cloud/ragstore/internal/usecase/embedding"
	healthuc "github.com/vimo-cloud/ragstore/internal/usecase/health"
	ingestuc "github.com/vimo-cloud/ragstore/internal/usecase/ingest"
	pointuc "github.com/vimo-cloud/ragstore/internal/usecase/point"
	retrievaluc "github.com/vimo-cloud/ragstore/internal/usecase/retrieval"
	"github.com/vimo-cloud/ragstore/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragstore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	// Embedder decorator chain: OpenAI -> Retry -> Instrumented -> Cached.
	// Ingestion batches through the instrumented layer directly; the chunk
	// hash check already prevents re-embedding, so the cache adds nothing.
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
		Timeout:    time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	retried := embeddinguc.NewRetryEmbedder(base, cfg.OpenAI.RetryAttempts, 0, logger)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		retried, "openai", cfg.OpenAI.EmbeddingModel, logger,
	)

	var embedder domain.Embedder = embcache.New(
		instrumented,
		store,
		cfg.OpenAI.EmbeddingModel,
		time.Duration(cfg.OpenAI.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal,
		logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.OpenAI.EmbeddingModel),
		zap.Int("dimensions", cfg.OpenAI.Dimensions),
	)

	completer := completionuc.NewRetryCompleter(
		openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Timeout: time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
			Logger:  logger,
		}),
		cfg.OpenAI.RetryAttempts, 0, logger,
	)

	var reranker domain.Reranker
	if cfg.Rerank.Enabled {
		reranker = rerank.New(&rerank.Config{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
			Model:   cfg.Rerank.Model,
			Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Reranker enabled", zap.String("model", cfg.Rerank.Model))
	}

	// Repositories
	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	pointRepo := pointrepo.New(store)

	// Use case services
	pointSvc := pointuc.New(pointRepo, collRepo)
	collSvc := collectionuc.New(collRepo, pointRepo)
	retrievalSvc := retrievaluc.New(pointRepo, embedder, reranker, logger).
		WithRerankFailureCounter(metrics.RerankFailuresTotal)
	ingestSvc := ingestuc.New(collSvc, pointSvc, instrumented, cfg.OpenAI.Dimensions, logger).
		WithChunking(cfg.Chunking.ChunkSize, cfg.Chunking.OverlapSize).
		WithChunkCounter(metrics.IngestedChunksTotal)

	counter, err := trim.NewTiktokenCounter("")
	if err != nil {
		logger.Fatal("Failed to load token encoding", zap.Error(err))
	}
	chatSvc := chatuc.New(
		retrievalSvc,
		pointSvc,
		collSvc,
		completer,
		embedder,
		trim.New(counter),
		cfg.OpenAI.Dimensions,
		cfg.OpenAI.ChatModel,
		logger,
	).
		WithCollections(cfg.Chat.DocumentCollection, cfg.Chat.ChatCollection).
		WithRetrievalParams(cfg.Retrieval.TopK, cfg.Retrieval.Threshold)

	healthSvc := healthuc.New(store, instrumented)

	server := chiTransport.NewServer(
		collSvc, pointSvc, retrievalSvc, ingestSvc, chatSvc, healthSvc, logger,
	).
		WithChatCollection(cfg.Chat.ChatCollection).
		WithSearchDefaults(cfg.Retrieval.TopK, cfg.Retrieval.Threshold, cfg.Retrieval.Alpha)

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

			// Canonical log line — one line per request
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
