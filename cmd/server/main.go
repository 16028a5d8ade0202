package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chatproxy-backend/internal/cache"
	"chatproxy-backend/internal/config"
	"chatproxy-backend/internal/database"
	"chatproxy-backend/internal/handlers"
	"chatproxy-backend/internal/logging"
	"chatproxy-backend/internal/metrics"
	"chatproxy-backend/internal/middleware"
	"chatproxy-backend/internal/repository"
	"chatproxy-backend/internal/router"
	"chatproxy-backend/internal/services"
	"chatproxy-backend/internal/websocket"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	logger.Info().Str("env", cfg.Env).Msg("starting chat backend")

	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── PostgreSQL ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}

	// ──── Redis ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClients.Close()

	// ──── Inference ────
	inferencer, closeInferencer, err := newInferencer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("inference client initialization failed")
	}
	defer closeInferencer()

	// ──── Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	chatRepo := repository.NewChatRepo(pool)
	chatCache := cache.NewChatListCache(redisClients.Cache, cfg.ChatCacheTTL)
	publisher := websocket.NewPublisher(redisClients.PubSub)

	chatService := services.NewChatService(
		chatRepo,
		inferencer,
		chatCache,
		publisher,
		cfg.InferenceFallbackText,
		logger,
	)
	chatHandler := handlers.NewChatHandler(chatService)

	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, logger)
	defer wsHub.Close()

	aiLimiter := middleware.NewRateLimiter(cfg.AIRequestsPerMin, time.Minute)
	defer aiLimiter.Stop()

	r := router.New(
		logger,
		jwtAuth,
		aiLimiter,
		chatHandler,
		wsHub.HandleWebSocket,
		router.Options{FrontendURL: cfg.FrontendURL, Dev: cfg.IsDevelopment()},
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// An /ai request may wait the full inference timeout before replying.
		WriteTimeout: cfg.InferenceTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", server.Addr).
		Str("provider", inferencer.Provider()).
		Msg("chat backend ready")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newInferencer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (services.Inferencer, func(), error) {
	switch strings.ToLower(cfg.InferenceProvider) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, nil, errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
		client, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, cfg.InferenceTimeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("model", cfg.GeminiModel).Msg("gemini client initialized")
		return client, client.Close, nil
	case "huggingface", "":
		if cfg.HFAPIKey == "" {
			logger.Warn().Msg("HF_API_KEY is not set, requests to the inference API will be anonymous")
		}
		logger.Info().Str("url", cfg.HFAPIURL).Dur("timeout", cfg.InferenceTimeout).Msg("hugging face client initialized")
		return services.NewHuggingFaceClient(cfg.HFAPIURL, cfg.HFAPIKey, cfg.InferenceTimeout), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown INFERENCE_PROVIDER %q", cfg.InferenceProvider)
	}
}
