package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fraudlens/transaction-intake/internal/scoring"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScorer struct {
	fn func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error)
}

func (s stubScorer) Score(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
	return s.fn(ctx, req)
}

type stubVerifier struct {
	valid bool
	err   error
}

func (s stubVerifier) Verify(ctx context.Context, userID string) (bool, error) {
	return s.valid, s.err
}

type recordingPublisher struct {
	events []views.VerdictEvent
}

func (r *recordingPublisher) PublishVerdict(event views.VerdictEvent) error {
	r.events = append(r.events, event)
	return nil
}
func (r *recordingPublisher) Close() {}

func fastExecutor() *scoring.Executor {
	return scoring.NewExecutor(scoring.ExecutorConfig{
		Logger: zap.NewNop(),
		Policy: scoring.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond},
	})
}

func newOrchestrator(ledger Ledger, scorer scoring.Client, opts ...func(*OrchestratorConfig)) TransactionOrchestrator {
	cfg := OrchestratorConfig{
		Logger:   zap.NewNop(),
		Ledger:   ledger,
		Scorer:   scorer,
		Executor: fastExecutor(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewTransactionOrchestrator(cfg)
}

func submission() views.TransactionCreate {
	return views.TransactionCreate{
		UserID:   "user-1",
		Amount:   250.75,
		Merchant: "Coffee Shop",
		Category: "Food",
	}
}

func TestSubmit_LowScoreIsApproved(t *testing.T) {
	ledger := NewMemoryLedger()
	publisher := &recordingPublisher{}
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		assert.NotEmpty(t, req.Features, "scoring request must carry the synthesized vector")
		return views.ScoringVerdict{IsFraud: false, FraudScore: 0.1, Confidence: 0.95}, nil
	}}, func(cfg *OrchestratorConfig) { cfg.Publisher = publisher })

	resp, err := orch.Submit(context.Background(), "trace", submission())

	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusApproved, resp.Status)
	require.NotNil(t, resp.IsFraud)
	assert.False(t, *resp.IsFraud)
	require.NotNil(t, resp.FraudScore)
	assert.Equal(t, 0.1, *resp.FraudScore)
	assert.Empty(t, resp.Warning)

	// The stored record matches the response.
	stored, err := ledger.Get(context.Background(), "trace", resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusApproved, stored.Status)

	// A verdict event went out for downstream consumers.
	require.Len(t, publisher.events, 1)
	assert.Equal(t, resp.TransactionID, publisher.events[0].TransactionID)
	assert.Equal(t, string(pkg.TxStatusApproved), publisher.events[0].Status)
}

func TestSubmit_FraudVerdictIsBlocked(t *testing.T) {
	ledger := NewMemoryLedger()
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		return views.ScoringVerdict{IsFraud: true, FraudScore: 0.9, Confidence: 0.9, Reason: "very high amount (>100K)"}, nil
	}})

	resp, err := orch.Submit(context.Background(), "trace", submission())

	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusBlocked, resp.Status)
	require.NotNil(t, resp.IsFraud)
	assert.True(t, *resp.IsFraud)
}

func TestSubmit_ScoringExhaustionLeavesPending(t *testing.T) {
	ledger := NewMemoryLedger()
	publisher := &recordingPublisher{}
	calls := 0
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		calls++
		return views.ScoringVerdict{}, scoring.ErrScoringUnavailable
	}}, func(cfg *OrchestratorConfig) { cfg.Publisher = publisher })

	resp, err := orch.Submit(context.Background(), "trace", submission())

	// Exhaustion is a success-class outcome: record kept, surfaced as PENDING.
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, pkg.TxStatusPending, resp.Status)
	assert.Nil(t, resp.IsFraud)
	assert.Nil(t, resp.FraudScore)
	assert.NotEmpty(t, resp.Warning)

	stored, err := ledger.Get(context.Background(), "trace", resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusPending, stored.Status)
	assert.Nil(t, stored.IsFraud)

	assert.Empty(t, publisher.events, "no verdict event without a verdict")
}

func TestSubmit_InvalidInputRejected(t *testing.T) {
	orch := newOrchestrator(NewMemoryLedger(), stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		t.Fatal("scorer must not be called for invalid input")
		return views.ScoringVerdict{}, nil
	}})

	cases := []struct {
		name string
		mut  func(*views.TransactionCreate)
	}{
		{"zero amount", func(r *views.TransactionCreate) { r.Amount = 0 }},
		{"negative amount", func(r *views.TransactionCreate) { r.Amount = -5 }},
		{"blank merchant", func(r *views.TransactionCreate) { r.Merchant = "  " }},
		{"blank user", func(r *views.TransactionCreate) { r.UserID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := submission()
			tc.mut(&req)

			_, err := orch.Submit(context.Background(), "trace", req)

			require.Error(t, err)
			var appErr pkg.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, pkg.ErrInvalidInputCode, appErr.Code)
		})
	}
}

func TestSubmit_UnknownUserRejected(t *testing.T) {
	orch := newOrchestrator(NewMemoryLedger(), stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		return views.ScoringVerdict{}, nil
	}}, func(cfg *OrchestratorConfig) { cfg.Verifier = stubVerifier{valid: false} })

	_, err := orch.Submit(context.Background(), "trace", submission())

	require.Error(t, err)
	var appErr pkg.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkg.ErrInvalidInputCode, appErr.Code)
}

func TestSubmit_IdentityOutageFailsOpen(t *testing.T) {
	orch := newOrchestrator(NewMemoryLedger(), stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		return views.ScoringVerdict{FraudScore: 0.1}, nil
	}}, func(cfg *OrchestratorConfig) {
		cfg.Verifier = stubVerifier{err: errors.New("connection refused")}
	})

	resp, err := orch.Submit(context.Background(), "trace", submission())

	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusApproved, resp.Status)
}

func TestSubmit_DefaultsCategory(t *testing.T) {
	ledger := NewMemoryLedger()
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		assert.Equal(t, pkg.DefaultCategory, req.Category)
		return views.ScoringVerdict{FraudScore: 0.1}, nil
	}})

	req := submission()
	req.Category = ""
	resp, err := orch.Submit(context.Background(), "trace", req)

	require.NoError(t, err)
	stored, err := ledger.Get(context.Background(), "trace", resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, pkg.DefaultCategory, stored.Category)
}

func TestSubmit_RegeneratesCollidingTransactionID(t *testing.T) {
	ledger := NewMemoryLedger()
	ids := []string{"TXN_DUP", "TXN_DUP", "TXN_OK"}
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		return views.ScoringVerdict{FraudScore: 0.1}, nil
	}}, func(cfg *OrchestratorConfig) {
		cfg.NewID = func(now time.Time) string {
			id := ids[0]
			ids = ids[1:]
			return id
		}
	})

	// Seed the colliding record.
	_, err := ledger.Create(context.Background(), "trace", pendingTxn("TXN_DUP", "user-0", 10, time.Now().UTC()))
	require.NoError(t, err)

	resp, err := orch.Submit(context.Background(), "trace", submission())

	require.NoError(t, err)
	assert.Equal(t, "TXN_OK", resp.TransactionID)
}

func TestNewTransactionID_Format(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	id := NewTransactionID(now)

	assert.Regexp(t, `^TXN_20260314150926_\d{4}$`, id)
}

func TestGet_PassesThroughLedger(t *testing.T) {
	ledger := NewMemoryLedger()
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		return views.ScoringVerdict{FraudScore: 0.1}, nil
	}})

	resp, err := orch.Submit(context.Background(), "trace", submission())
	require.NoError(t, err)

	view, err := orch.Get(context.Background(), "trace", resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, resp.TransactionID, view.TransactionID)
	assert.Equal(t, pkg.TxStatusApproved, view.Status)

	_, err = orch.Get(context.Background(), "trace", "TXN_MISSING")
	require.Error(t, err)
}

func TestListForUser_WrapsLedgerResults(t *testing.T) {
	ledger := NewMemoryLedger()
	orch := newOrchestrator(ledger, stubScorer{fn: func(ctx context.Context, req views.ScoringRequest) (views.ScoringVerdict, error) {
		return views.ScoringVerdict{FraudScore: 0.1}, nil
	}})

	for i := 0; i < 3; i++ {
		_, err := orch.Submit(context.Background(), "trace", submission())
		require.NoError(t, err)
	}

	out, err := orch.ListForUser(context.Background(), "trace", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", out.UserID)
	assert.Equal(t, 3, out.Total)
	assert.Len(t, out.Transactions, 3)
}
