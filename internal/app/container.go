package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"inclusive-matching-api/config"
	"inclusive-matching-api/internal/delivery/http/middleware"
	v1 "inclusive-matching-api/internal/delivery/http/v1"
	"inclusive-matching-api/internal/llm"
	"inclusive-matching-api/internal/repository/postgres"
	redisrepo "inclusive-matching-api/internal/repository/redis"
	"inclusive-matching-api/internal/usecase"
	"inclusive-matching-api/pkg/database"
	"inclusive-matching-api/pkg/redis"
	"inclusive-matching-api/pkg/validation"

	"go.uber.org/zap"
)

// Container owns every process-wide dependency: the database pool, the
// optional redis client and the LLM gateway. It is built once in main and
// closed at shutdown.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Router http.Handler

	closers []func()
}

// Build connects the infrastructure and wires repositories, usecases and the
// router. On error everything opened so far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers = append(closers, dbPool.Close)

	if cfg.DBAutoMigrate {
		if err := postgres.EnsureSchema(ctx, dbPool); err != nil {
			return nil, err
		}
		logger.Info("Database schema ensured")
	}

	healthChecks := map[string]usecase.HealthCheck{
		"database": dbPool.Ping,
	}

	// Redis is optional; without it the match limiter counts in memory
	var rateStore middleware.RateLimitStore
	redisClient, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	switch {
	case err == nil:
		closers = append(closers, func() { _ = redisClient.Close() })
		rateStore = redisrepo.NewRateRepo(redisClient)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		logger.Info("Redis connected, rate limiting is shared across instances")
	case errors.Is(err, redis.ErrNotConfigured):
		err = nil
	default:
		logger.Warn("Redis unavailable, rate limiting falls back to memory", zap.Error(err))
		err = nil
	}

	// LLM
	gateway, err := llm.NewGateway(ctx, llm.Config{
		Provider:      cfg.LLMProvider,
		APIKey:        cfg.OpenAIAPIKey,
		Model:         cfg.OpenAIModel,
		BaseURL:       cfg.OpenAIBaseURL,
		Temperature:   cfg.OpenAITemperature,
		MaxTokens:     cfg.OpenAIMaxTokens,
		LogUsage:      cfg.LogLLMUsage,
		Timeout:       cfg.LLMTimeout,
		MaxRetries:    cfg.LLMMaxRetries,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		GeminiBaseURL: cfg.GeminiBaseURL,
	}, logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM gateway: %w", err)
	}

	// Repositories & usecases
	validate := validation.New()
	profileRepo := postgres.NewProfileRepository(dbPool)
	profileUC := usecase.NewProfileUsecase(profileRepo, validate)
	matchUC := usecase.NewMatchUsecase(profileRepo, gateway, validate, usecase.MatchConfig{
		Language:       cfg.MatchLanguage,
		OnlineRadiusKm: cfg.MatchOnlineRadiusKm,
	}, logger)

	router := v1.NewRouter(v1.RouterDeps{
		ProfileUC:       profileUC,
		MatchUC:         matchUC,
		HealthUC:        usecase.NewHealthUsecase(healthChecks),
		RateStore:       rateStore,
		MatchRateLimit:  cfg.MatchRateLimit,
		MatchRateWindow: time.Duration(cfg.MatchRateWindowSeconds) * time.Second,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			PreviewPrefix:  cfg.CORSPreviewPrefix,
		},
		Logger: logger,
	})

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Router:  router,
		closers: closers,
	}, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
