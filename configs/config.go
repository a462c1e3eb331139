package configs

import (
	"time"

	"github.com/fraudlens/transaction-intake/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port          string `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr string `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`

	ScoringEngineAddr      string        `mapstructure:"SCORING_ENGINE_ADDR" validate:"required"`
	ScoringTimeout         time.Duration `mapstructure:"SCORING_TIMEOUT" validate:"required"`
	ScoringMaxAttempts     int           `mapstructure:"SCORING_MAX_ATTEMPTS" validate:"min=1"`
	ScoringBaseBackoff     time.Duration `mapstructure:"SCORING_BASE_BACKOFF" validate:"required"`
	ScoringMaxBackoff      time.Duration `mapstructure:"SCORING_MAX_BACKOFF" validate:"required"`
	FraudThreshold         float64       `mapstructure:"FRAUD_THRESHOLD" validate:"gt=0,lte=1"`
	ScoringAsyncDispatch   bool          `mapstructure:"SCORING_ASYNC_DISPATCH"`
	ScoringWorkers         int           `mapstructure:"SCORING_WORKERS" validate:"min=1"`
	ScoringDispatchTimeout time.Duration `mapstructure:"SCORING_DISPATCH_TIMEOUT" validate:"required"`
	ScoringRatePerSec      float64       `mapstructure:"SCORING_RATE_LIMIT_PER_SEC" validate:"gt=0"`
	ScoringBurst           int           `mapstructure:"SCORING_REQUEST_BURST" validate:"min=1"`

	IdentityServiceAddr string `mapstructure:"IDENTITY_SERVICE_ADDR"`
	RedisAddr           string `mapstructure:"REDIS_ADDR"`

	KafkaBrokers          string `mapstructure:"KAFKA_BROKERS"`
	KafkaVerdictTopic     string `mapstructure:"KAFKA_VERDICT_TOPIC"`
	KafkaPartition        int    `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaVerdictRetention int64  `mapstructure:"KAFKA_VERDICT_RETENTION" validate:"min=1"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("SCORING_TIMEOUT", "10s")
	viper.SetDefault("SCORING_MAX_ATTEMPTS", "3")
	viper.SetDefault("SCORING_BASE_BACKOFF", "500ms")
	viper.SetDefault("SCORING_MAX_BACKOFF", "8s")
	viper.SetDefault("FRAUD_THRESHOLD", "0.25")
	viper.SetDefault("SCORING_ASYNC_DISPATCH", "true")
	viper.SetDefault("SCORING_WORKERS", "8")
	viper.SetDefault("SCORING_DISPATCH_TIMEOUT", "200ms")
	viper.SetDefault("SCORING_RATE_LIMIT_PER_SEC", "50")
	viper.SetDefault("SCORING_REQUEST_BURST", "25")
	viper.SetDefault("KAFKA_VERDICT_TOPIC", "fraud-verdicts")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("KAFKA_VERDICT_RETENTION", "604800000") // 7 days

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
