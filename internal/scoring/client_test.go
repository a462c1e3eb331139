package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, threshold float64) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(HTTPClientConfig{
		Logger:    zap.NewNop(),
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
		Threshold: threshold,
	})
}

func scoringRequest() views.ScoringRequest {
	return views.ScoringRequest{
		TransactionID: "TXN_20250101120000_1234",
		UserID:        "user-1",
		Amount:        250.75,
		Merchant:      "Coffee Shop",
		Category:      "Food",
		Features:      map[string]float64{"V1": 0.5, "Amount": 250.75},
	}
}

func TestScore_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var req views.ScoringRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TXN_20250101120000_1234", req.TransactionID)
		assert.Contains(t, req.Features, "V1")

		_ = json.NewEncoder(w).Encode(views.ScoringVerdict{FraudScore: 0.1, Confidence: 0.95})
	}, 0.25)

	verdict, err := client.Score(context.Background(), scoringRequest())

	require.NoError(t, err)
	assert.False(t, verdict.IsFraud)
	assert.Equal(t, 0.1, verdict.FraudScore)
}

func TestScore_ThresholdIsInclusive(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(views.ScoringVerdict{FraudScore: 0.25, Confidence: 0.8})
	}, 0.25)

	verdict, err := client.Score(context.Background(), scoringRequest())

	require.NoError(t, err)
	assert.True(t, verdict.IsFraud, "score equal to the threshold must be flagged")
}

func TestScore_ClampsOutOfRangeScores(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(views.ScoringVerdict{FraudScore: 1.7, Confidence: -0.3})
	}, 0.25)

	verdict, err := client.Score(context.Background(), scoringRequest())

	require.NoError(t, err)
	assert.Equal(t, 1.0, verdict.FraudScore)
	assert.Equal(t, 0.0, verdict.Confidence)
	assert.True(t, verdict.IsFraud)
}

func TestScore_ServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 0.25)

	_, err := client.Score(context.Background(), scoringRequest())

	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestScore_MalformedResponseIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}, 0.25)

	_, err := client.Score(context.Background(), scoringRequest())

	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestScore_TimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(HTTPClientConfig{
		Logger:    zap.NewNop(),
		BaseURL:   srv.URL,
		Timeout:   50 * time.Millisecond,
		Threshold: 0.25,
	})

	_, err := client.Score(context.Background(), scoringRequest())

	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestScore_UnreachableEngineIsUnavailable(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{
		Logger:    zap.NewNop(),
		BaseURL:   "http://127.0.0.1:1",
		Timeout:   time.Second,
		Threshold: 0.25,
	})

	_, err := client.Score(context.Background(), scoringRequest())

	assert.ErrorIs(t, err, ErrScoringUnavailable)
}
