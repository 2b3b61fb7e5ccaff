package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nkd-hd/sunshine-payments/internal/config"
	"github.com/nkd-hd/sunshine-payments/internal/gateway"
	"github.com/nkd-hd/sunshine-payments/internal/middleware"
	"github.com/nkd-hd/sunshine-payments/internal/momo"
	"github.com/nkd-hd/sunshine-payments/internal/orange"
	"github.com/nkd-hd/sunshine-payments/internal/router"
	"github.com/nkd-hd/sunshine-payments/internal/simulate"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Payment gateway ---
	sim := simulate.NewEngine(logger)
	momoClient := momo.NewClient(&cfg.MoMo, sim, logger)
	orangeClient := orange.NewClient(&cfg.Orange, sim, logger)
	gw := gateway.New(sim, logger, momoClient, orangeClient)

	// --- Reference dedup guard (Redis with in-memory fallback) ---
	refGuard, guardErr := middleware.NewReferenceGuard(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		24*time.Hour,
	)
	if guardErr != nil {
		logger.Warn("Redis unavailable for reference dedup, using in-memory fallback", zap.Error(guardErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	router.Setup(e, gw, momoClient, logger, cfg.API.Key, refGuard)

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting payment gateway server",
			zap.String("addr", addr),
			zap.Bool("momo_configured", cfg.MoMo.Configured()),
			zap.Bool("orange_configured", cfg.Orange.Configured()))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
