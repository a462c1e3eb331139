package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fraudlens/transaction-intake/internal/observability"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"go.uber.org/zap"
)

// Client obtains a fraud verdict for one transaction from the Scoring Engine.
type Client interface {
	Score(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error)
}

// HTTPClientConfig holds configuration for the HTTP scoring client.
type HTTPClientConfig struct {
	Logger  *zap.Logger
	BaseURL string
	// Timeout bounds each individual scoring call.
	Timeout time.Duration
	// Threshold is the fraud decision cutoff, applied inclusively to the
	// clamped fraud score.
	Threshold float64
	// Limiter optionally throttles outbound calls; a denied token counts as
	// an unavailable attempt and goes through the normal retry path.
	Limiter *pkg.DistributedLimiter
	// HTTPClient is injectable for tests; when nil a default transport with
	// Timeout as the client deadline is built by the caller.
	HTTPClient *http.Client
}

type httpClient struct {
	logger    *zap.Logger
	baseURL   string
	timeout   time.Duration
	threshold float64
	limiter   *pkg.DistributedLimiter
	client    *http.Client
}

// NewHTTPClient creates a scoring client calling {BaseURL}/predict.
func NewHTTPClient(cfg HTTPClientConfig) Client {
	c := cfg.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: cfg.Timeout}
	}
	return &httpClient{
		logger:    cfg.Logger,
		baseURL:   cfg.BaseURL,
		timeout:   cfg.Timeout,
		threshold: cfg.Threshold,
		limiter:   cfg.Limiter,
		client:    c,
	}
}

// Score posts the transaction summary plus its feature vector and normalizes
// the engine's verdict. Every failure mode maps to ErrScoringUnavailable.
func (s *httpClient) Score(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
	if s.limiter != nil && !s.limiter.Allow(ctx) {
		return views.ScoringVerdict{}, fmt.Errorf("%w: throttled", ErrScoringUnavailable)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return views.ScoringVerdict{}, fmt.Errorf("%w: encode request: %v", ErrScoringUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return views.ScoringVerdict{}, fmt.Errorf("%w: build request: %v", ErrScoringUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	observability.ScoringLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ScoringAttempts.WithLabelValues("unavailable").Inc()
		s.logger.Warn("scoring call failed",
			zap.String(pkg.TransactionId, req.TransactionID),
			zap.Error(err))
		return views.ScoringVerdict{}, fmt.Errorf("%w: %v", ErrScoringUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		observability.ScoringAttempts.WithLabelValues("unavailable").Inc()
		s.logger.Warn("scoring engine returned non-200",
			zap.String(pkg.TransactionId, req.TransactionID),
			zap.Int("status", resp.StatusCode))
		return views.ScoringVerdict{}, fmt.Errorf("%w: status %d", ErrScoringUnavailable, resp.StatusCode)
	}

	var verdict views.ScoringVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		observability.ScoringAttempts.WithLabelValues("unavailable").Inc()
		return views.ScoringVerdict{}, fmt.Errorf("%w: decode response: %v", ErrScoringUnavailable, err)
	}

	// Normalize: clamp to [0,1] and re-derive the decision against the
	// configured threshold (inclusive), so the rule is consistent across
	// engine revisions.
	verdict.FraudScore = clamp01(verdict.FraudScore)
	verdict.Confidence = clamp01(verdict.Confidence)
	verdict.IsFraud = verdict.FraudScore >= s.threshold

	observability.ScoringAttempts.WithLabelValues("ok").Inc()
	return verdict, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
