package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fraudlens/transaction-intake/configs"
	_ "github.com/fraudlens/transaction-intake/docs"
	"github.com/fraudlens/transaction-intake/internal/handlers"
	"github.com/fraudlens/transaction-intake/internal/identity"
	"github.com/fraudlens/transaction-intake/internal/scoring"
	"github.com/fraudlens/transaction-intake/internal/services"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/cache"
	"github.com/fraudlens/transaction-intake/pkg/database"
	middleware "github.com/fraudlens/transaction-intake/pkg/middlewares"
	"github.com/fraudlens/transaction-intake/pkg/repositories"
	"github.com/fraudlens/transaction-intake/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		ReadDSNs:   []string{cfg.ReplicaDbAddr},
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Redis is optional; without it the scoring rate limit is local-only.
	var redisClient *redis.Client
	closeRedis := func() {}
	if !utils.IsEmpty(cfg.RedisAddr) {
		redisClient, closeRedis, err = cache.New(ctx, cache.Config{Addr: cfg.RedisAddr})
		if err != nil {
			disconnect()
			return nil, nil, err
		}
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	limiter := pkg.NewDistributedLimiter(redisClient, "scoring:engine_rate",
		int(cfg.ScoringRatePerSec), cfg.ScoringBurst, time.Second, logger)

	// Scoring pipeline: HTTP client -> retry executor, optionally dispatched
	// through a worker pool.
	scorer := scoring.NewHTTPClient(scoring.HTTPClientConfig{
		Logger:     logger,
		BaseURL:    cfg.ScoringEngineAddr,
		Timeout:    cfg.ScoringTimeout,
		Threshold:  cfg.FraudThreshold,
		Limiter:    limiter,
		HTTPClient: utils.NewHTTPClient(utils.WithClientTimeout(cfg.ScoringTimeout)),
	})
	var pool *scoring.WorkerPool
	if cfg.ScoringAsyncDispatch {
		pool = scoring.NewWorkerPool(ctx, logger, cfg.ScoringWorkers, cfg.ScoringWorkers*2)
	}
	executor := scoring.NewExecutor(scoring.ExecutorConfig{
		Logger: logger,
		Policy: scoring.RetryPolicy{
			MaxAttempts: cfg.ScoringMaxAttempts,
			BaseDelay:   cfg.ScoringBaseBackoff,
			MaxDelay:    cfg.ScoringMaxBackoff,
		},
		Pool:            pool,
		DispatchTimeout: cfg.ScoringDispatchTimeout,
	})

	verifier := identity.NewNoopVerifier()
	if !utils.IsEmpty(cfg.IdentityServiceAddr) {
		verifier = identity.NewHTTPVerifier(logger, cfg.IdentityServiceAddr, cfg.ScoringTimeout)
	}

	publisher := services.NewNoopVerdictPublisher()
	if !utils.IsEmpty(cfg.KafkaBrokers) {
		publisher, err = services.NewKafkaVerdictPublisher(logger, ctx, services.KafkaPublisherConfig{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.KafkaVerdictTopic,
			Partitions:  cfg.KafkaPartition,
			RetentionMs: cfg.KafkaVerdictRetention,
		})
		if err != nil {
			closeRedis()
			disconnect()
			return nil, nil, err
		}
	}

	// Setup dependencies
	ledger := services.NewPostgresLedger(logger, db, repositories.NewTransactionRepository())
	orchestrator := services.NewTransactionOrchestrator(services.OrchestratorConfig{
		Logger:    logger,
		Ledger:    ledger,
		Scorer:    scorer,
		Executor:  executor,
		Verifier:  verifier,
		Publisher: publisher,
	})

	baseHandler := handlers.NewBaseHandler(logger, !utils.IsEmpty(cfg.ScoringEngineAddr))
	txnHandler := handlers.NewTransactionHandler(logger, orchestrator)

	// Router
	r := gin.Default()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	txnHandler.RegisterRoutes(api)
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		publisher.Close()
		closeRedis()
		disconnect()
	}

	return srv, cleanup, nil
}
