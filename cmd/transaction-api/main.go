package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fraudlens/transaction-intake/app"
	"github.com/fraudlens/transaction-intake/pkg"
	"go.uber.org/zap"
)

// @title Transaction Intake API
// @version 1.0
// @description Transaction ingestion with synchronous fraud scoring.
// @BasePath /api/v1
func main() {
	// Initialize logger
	pkg.InitLogger()
	logger := pkg.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, cleanup, err := app.NewApp(ctx, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}

	// Start a server in goroutine to allow signal handling
	go func() {
		logger.Sugar().Infow("Transaction Intake API started", "addr", srv.Addr)
		if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Handle shutdown signals (SIGINT, SIGTERM) for a K8s pod termination grace period
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Timeout context for draining connections (align with K8s terminationGracePeriodSeconds)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	cancel() // stop the scoring worker pool
	cleanup()

	// Flush logs before exit for observability
	_ = logger.Sync()
}
