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

	"inclusive-matching-api/config"
	_ "inclusive-matching-api/docs" // Important for Swagger
	"inclusive-matching-api/internal/app"
	"inclusive-matching-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Inclusive Matching API
// @version         1.0
// @description     Stores child/family profiles and ranks compatible peers with an LLM.
// @host            localhost:8080
// @BasePath        /
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	zlog, err := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog.Info("Starting inclusive matching API",
		zap.String("port", cfg.Port),
		zap.String("llm_provider", cfg.LLMProvider),
	)

	// 3. Wire dependencies
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, zlog)
	if err != nil {
		zlog.Error("Failed to build application", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	// 4. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("Listen failed", zap.Error(err))
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exiting")
}
