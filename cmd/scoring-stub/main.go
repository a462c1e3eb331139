package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fraudlens/transaction-intake/internal/features"
	"github.com/fraudlens/transaction-intake/internal/scoring"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stand-in for the real Scoring Engine, used for local development and
// end-to-end smoke tests. It scores the synthesized feature vector with a
// fixed linear model and combines the result with the business rules by
// max(), the same contract the production engine exposes.
func main() {
	pkg.InitLogger()
	logger := pkg.Logger

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8090"
	}
	threshold := 0.25
	if raw := os.Getenv("APP_FRAUD_THRESHOLD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Fatal("invalid APP_FRAUD_THRESHOLD", zap.String("value", raw))
		}
		threshold = v
	}

	r := gin.Default()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/predict", func(c *gin.Context) {
		var req views.ScoringRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		vector := req.Features
		if len(vector) == 0 {
			vector = features.Synthesize(req.Amount, req.Merchant, req.Category)
		}

		classifier := classifierScore(vector)
		ruleScore, reasons := scoring.BusinessRiskScore(req.Amount, req.Merchant)

		// The stricter signal wins.
		score := math.Max(classifier, ruleScore)
		if classifier >= ruleScore {
			reasons = append(reasons, "classifier risk")
		}

		c.JSON(http.StatusOK, views.ScoringVerdict{
			IsFraud:    score >= threshold,
			FraudScore: score,
			Confidence: math.Abs(score-threshold)/math.Max(threshold, 1-threshold)*0.5 + 0.5,
			Reason:     strings.Join(reasons, "; "),
		})
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: r}
	go func() {
		logger.Sugar().Infow("Scoring stub started", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	_ = srv.Close()
	_ = logger.Sync()
}

// classifierScore is a deterministic surrogate for the trained model: a
// logistic over a fixed weighted sum of the anonymized dimensions. Skewed
// dimensions (V4, V11, V12, V14) carry the most weight, so the stub reacts to
// the same patterns the real model was trained on.
func classifierScore(vector map[string]float64) float64 {
	weights := map[string]float64{
		"V4": 0.6, "V11": 0.8, "V12": -0.5, "V14": -0.6,
		"V1": 0.1, "V2": 0.1, "V3": -0.1, "V7": 0.15, "V10": -0.15,
	}
	z := -2.0 // bias keeps ordinary traffic well below the threshold
	for dim, w := range weights {
		z += w * vector[dim]
	}
	return 1 / (1 + math.Exp(-z))
}
