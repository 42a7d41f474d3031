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

	"github.com/kailas-cloud/nutrirag/internal/config"
	"github.com/kailas-cloud/nutrirag/internal/db"
	dbRedis "github.com/kailas-cloud/nutrirag/internal/db/redis"
	"github.com/kailas-cloud/nutrirag/internal/domain"
	"github.com/kailas-cloud/nutrirag/internal/domain/intent"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
	"github.com/kailas-cloud/nutrirag/internal/hashembed"
	logpkg "github.com/kailas-cloud/nutrirag/internal/logger"
	"github.com/kailas-cloud/nutrirag/internal/metrics"
	"github.com/kailas-cloud/nutrirag/internal/repository/archive"
	budgetrepo "github.com/kailas-cloud/nutrirag/internal/repository/budget"
	"github.com/kailas-cloud/nutrirag/internal/repository/embcache"
	"github.com/kailas-cloud/nutrirag/internal/repository/knowledge"
	"github.com/kailas-cloud/nutrirag/internal/textnorm"
	"github.com/kailas-cloud/nutrirag/internal/tokencount"
	chiTransport "github.com/kailas-cloud/nutrirag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/nutrirag/internal/transport/openai"
	budgetuc "github.com/kailas-cloud/nutrirag/internal/usecase/budget"
	convuc "github.com/kailas-cloud/nutrirag/internal/usecase/conversation"
	embeddinguc "github.com/kailas-cloud/nutrirag/internal/usecase/embedding"
	"github.com/kailas-cloud/nutrirag/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/nutrirag/internal/usecase/health"
	promptuc "github.com/kailas-cloud/nutrirag/internal/usecase/prompt"
	qualityuc "github.com/kailas-cloud/nutrirag/internal/usecase/quality"
	queryuc "github.com/kailas-cloud/nutrirag/internal/usecase/query"
	raguc "github.com/kailas-cloud/nutrirag/internal/usecase/rag"
	"github.com/kailas-cloud/nutrirag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/nutrirag/internal/usecase/usage"
	"github.com/kailas-cloud/nutrirag/internal/version"
)

func main() {
	// A missing .env is fine; variables already in the environment win.
	_ = godotenv.Load()

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

	logger.Info("Starting nutrirag API server",
		zap.String("version", version.String()),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_backend", cfg.Generation.Backend),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
	)

	ctx := context.Background()

	// Redis is optional. Without it caches, budgets and the session archive
	// stay in memory.
	var store db.Store
	if cfg.Redis.Enabled() {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Redis.Addrs,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			ClientName: "nutrirag",
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer rs.Close()

		if err := rs.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		store = rs
		logger.Info("Connected to redis")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	norm := textnorm.New()

	// Embedding chain
	embBudget := newBudget(ctx, "embedding", cfg.Embedding.Budget, store, logger)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var embChecker embeddinguc.BudgetChecker
	if embBudget != nil {
		embChecker = embBudget
	}

	base, model := buildBaseEmbedder(cfg.Embedding, norm, logger)
	docEmbedder := buildEmbedder(base, cfg.Embedding, model, cfg.Embedding.DocumentInstruction, store, embChecker, logger)
	queryEmbedder := buildEmbedder(base, cfg.Embedding, model, cfg.Embedding.QueryInstruction, store, embChecker, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Knowledge index: load the persisted artifacts or build from the seed.
	index := knowledge.New(docEmbedder, model, norm, logger).WithQueryEmbedder(queryEmbedder)
	fromDisk, err := index.LoadOrBuild(ctx, cfg.Index.Dir, cfg.Index.SeedFile)
	if err != nil {
		// Served anyway: health reports the empty index and answers degrade
		// to the no-knowledge prompt.
		logger.Error("Failed to prepare knowledge index", zap.Error(err))
	}
	index.Seal()
	logger.Info("Knowledge index ready",
		zap.Bool("from_disk", fromDisk),
		zap.Int("documents", index.Len()),
	)

	// Query understanding and retrieval
	analyzer := queryuc.NewAnalyzer(norm, intent.DefaultTable())

	defaults, err := request.New(
		strategy.Strategy(cfg.Retrieval.Strategy),
		cfg.Retrieval.TopK,
		cfg.Retrieval.Threshold,
		cfg.Retrieval.MaxContentLength,
		*cfg.Retrieval.Rerank,
	)
	if err != nil {
		logger.Fatal("Invalid retrieval defaults", zap.Error(err))
	}
	retriever := retrieval.New(index, analyzer, defaults, logger,
		retrieval.WithSnippetRunes(cfg.Retrieval.SnippetLength),
	)

	// Prompting
	library, err := promptuc.DefaultLibrary(
		promptuc.WithFallback(intent.Intent(cfg.Prompt.DefaultIntent)),
		promptuc.WithMinConfidence(cfg.Prompt.MinConfidence),
		promptuc.WithMaxExemplars(cfg.Prompt.MaxExamples),
	)
	if err != nil {
		logger.Fatal("Invalid prompt library", zap.Error(err))
	}

	var counter promptuc.Counter = tokencount.Estimate{}
	if tc, err := tokencount.New(cfg.Prompt.TokenEncoding); err != nil {
		logger.Warn("Token encoding unavailable, estimating by characters", zap.Error(err))
	} else {
		counter = tc
	}
	assembler := promptuc.NewAssembler(library, counter, logger,
		promptuc.WithHistoryTurns(cfg.Prompt.HistoryTurns),
	)

	// Generation: remote primary with the simulated backend as fallback.
	generator, genBudget := buildGenerator(ctx, cfg.Generation, store, logger)

	scorer := qualityuc.NewScorer(logger, qualityuc.WithTokenizer(norm))

	pipeline := raguc.New(analyzer, retriever, assembler, generator, scorer, raguc.Config{
		UseFewShot:   cfg.Prompt.UseFewShot,
		QualityCheck: *cfg.Quality.Enabled,
	}, logger)

	// Conversations
	var convOpts []convuc.Option
	if store != nil {
		convOpts = append(convOpts, convuc.WithArchive(
			archive.New(store, time.Duration(cfg.Conversation.ArchiveTTLHours)*time.Hour),
		))
	}
	sessions := convuc.NewManager(pipeline, convuc.Config{
		IdleTimeout:      time.Duration(cfg.Conversation.IdleTimeoutMin) * time.Minute,
		HistoryTurns:     cfg.Conversation.HistoryTurns,
		RecentTurns:      cfg.Conversation.RecentTurns,
		TerminateOnError: *cfg.Conversation.TerminateOnError,
		Retention:        time.Duration(cfg.Conversation.RetentionMin) * time.Minute,
	}, logger, convOpts...)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sessions.Run(janitorCtx, time.Duration(cfg.Conversation.SweepIntervalSec)*time.Second)

	// Usage reads the same trackers that gate the providers.
	var budgets []usageuc.BudgetReader
	for _, t := range []*budgetuc.Tracker{embBudget, genBudget} {
		if t != nil {
			budgets = append(budgets, t)
		}
	}
	usageSvc := usageuc.New(budgets...)

	// Health service
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(index, pinger, newEmbeddingHealthChecker(queryEmbedder))

	// Create chi server
	server := chiTransport.NewServer(pipeline, retriever, sessions, healthSvc, logger).WithUsage(usageSvc)

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
	stopJanitor()

	logger.Info("Server stopped gracefully")
}

// newBudget returns nil when no limit is configured. Counters persist to
// store when one is available.
func newBudget(
	ctx context.Context, scope string, bc config.BudgetConfig, store db.Store, logger *zap.Logger,
) *budgetuc.Tracker {
	if !bc.Enabled() {
		return nil
	}
	action := budgetuc.ActionWarn
	if bc.Action == string(budgetuc.ActionReject) {
		action = budgetuc.ActionReject
	}
	t := budgetuc.NewTracker(scope, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, logger)
	if store != nil {
		t.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}
	return t
}

// buildBaseEmbedder creates the provider embedder and reports the model name
// the index is stamped with.
func buildBaseEmbedder(ec config.EmbeddingConfig, norm *textnorm.Normalizer, logger *zap.Logger) (domain.Embedder, string) {
	if ec.Provider == config.EmbeddingOpenAI {
		// Base provider (with transport metrics built-in)
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		}), ec.Model
	}
	h := hashembed.New(ec.Dimensions, norm)
	return h, h.ModelName()
}

// buildEmbedder assembles the decorator chain: Provider -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base domain.Embedder,
	ec config.EmbeddingConfig,
	model string,
	instruction string,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if store != nil && ec.Cache {
		embedder = embcache.New(base, store, model, 0, metrics.EmbeddingCacheLookupsTotal, logger)
	}

	// Instrumented (budget + metrics)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, model, budget, logger)

	// Instruction prefix (outermost, so the cache key includes it)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildGenerator wires the answer backends. Without a remote backend every
// call is served by the simulated one.
func buildGenerator(
	ctx context.Context, gc config.GenerationConfig, store db.Store, logger *zap.Logger,
) (*generation.Service, *budgetuc.Tracker) {
	style, err := generation.ParseStyle(gc.Style)
	if err != nil {
		logger.Fatal("Invalid response style", zap.Error(err))
	}
	genCfg := generation.Config{
		Timeout:           time.Duration(gc.TimeoutSec) * time.Second,
		MaxResponseLength: gc.MaxResponseLength,
		Style:             style,
	}
	fallback := generation.NewSimulated()
	if gc.Backend != config.GenerationOpenAI {
		return generation.NewService(nil, fallback, nil, genCfg, logger), nil
	}

	chat := openaiTransport.NewChatClient(&openaiTransport.Config{
		APIKey:   gc.APIKey,
		BaseURL:  gc.BaseURL,
		Model:    gc.Model,
		Provider: gc.Backend,
		Logger:   logger,
	})
	primary := generation.NewRemote(chat, gc.Backend, gc.Model, gc.MaxTokens, gc.Temperature)

	tracker := newBudget(ctx, "generation", gc.Budget, store, logger)
	var budget generation.Budget
	if tracker != nil {
		budget = tracker
	}
	logger.Info("Generation backend created",
		zap.String("backend", gc.Backend),
		zap.String("model", gc.Model),
	)
	return generation.NewService(primary, fallback, budget, genCfg, logger), tracker
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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
						zap.String("path", r.URL.Path),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits one log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
