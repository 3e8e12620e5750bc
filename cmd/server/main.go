// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mpesa-gateway/config"
	"mpesa-gateway/internal/handler"
	"mpesa-gateway/internal/provider/mpesa"
	"mpesa-gateway/internal/repository"
	"mpesa-gateway/internal/router"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting mpesa gateway")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Mpesa.Environment),
		zap.String("port", cfg.Mpesa.CallbackPort))

	// Construct the initiation client up front so unusable key material
	// halts the process before it serves traffic.
	if _, err := mpesa.New(cfg.Mpesa, logger); err != nil {
		logger.Fatal("failed to initialize mpesa client", zap.Error(err))
	}

	connStr := cfg.Database.ConnString()

	if err := repository.Migrate(connStr); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	dbPool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("connected to database",
		zap.String("database", cfg.Database.DBName))

	// Repositories
	stkRepo := repository.NewStkCallbackRepository(dbPool)
	c2bRepo := repository.NewC2BCallbackRepository(dbPool)

	// Handlers
	callbackHandler := handler.NewCallbackHandler(stkRepo, c2bRepo, logger)

	// Routes
	r := router.SetupRoutes(callbackHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Mpesa.CallbackPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening for callbacks", zap.String("port", cfg.Mpesa.CallbackPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
