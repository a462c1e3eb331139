package services

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/fraudlens/transaction-intake/internal/features"
	"github.com/fraudlens/transaction-intake/internal/identity"
	"github.com/fraudlens/transaction-intake/internal/scoring"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/models"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"go.uber.org/zap"
)

// pendingWarning is returned to the caller when scoring could not complete;
// the transaction itself is recorded and recoverable.
const pendingWarning = "fraud scoring is temporarily unavailable; transaction recorded as PENDING"

// maxIDAttempts bounds id regeneration on the astronomically unlikely
// collision of a generated transaction id.
const maxIDAttempts = 3

// TransactionOrchestrator is the pipeline entry point: it creates the
// PENDING record, obtains a verdict through synthesis + scoring, applies it
// to the ledger, and shapes the caller response.
type TransactionOrchestrator interface {
	Submit(ctx context.Context, traceID string, req views.TransactionCreate) (views.TransactionResponse, error)
	Get(ctx context.Context, traceID string, transactionID string) (views.TransactionView, error)
	List(ctx context.Context, traceID string, skip int, limit int) (views.TransactionListResponse, error)
	ListForUser(ctx context.Context, traceID string, userID string) (views.UserTransactionsResponse, error)
}

// OrchestratorConfig holds dependencies for the orchestrator. Everything is
// constructed once at startup and injected; there is no lazy global state.
type OrchestratorConfig struct {
	Logger    *zap.Logger
	Ledger    Ledger
	Scorer    scoring.Client
	Executor  *scoring.Executor
	Verifier  identity.Verifier
	Publisher VerdictPublisher

	// Now and NewID are injectable for tests.
	Now   func() time.Time
	NewID func(now time.Time) string
}

type orchestrator struct {
	logger    *zap.Logger
	ledger    Ledger
	scorer    scoring.Client
	executor  *scoring.Executor
	verifier  identity.Verifier
	publisher VerdictPublisher
	now       func() time.Time
	newID     func(now time.Time) string
}

func NewTransactionOrchestrator(cfg OrchestratorConfig) TransactionOrchestrator {
	o := &orchestrator{
		logger:    cfg.Logger,
		ledger:    cfg.Ledger,
		scorer:    cfg.Scorer,
		executor:  cfg.Executor,
		verifier:  cfg.Verifier,
		publisher: cfg.Publisher,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
	if o.verifier == nil {
		o.verifier = identity.NewNoopVerifier()
	}
	if o.publisher == nil {
		o.publisher = NewNoopVerdictPublisher()
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.newID == nil {
		o.newID = NewTransactionID
	}
	return o
}

// NewTransactionID generates a globally unique transaction identifier:
// timestamp plus a random suffix. Collisions are handled by regeneration.
func NewTransactionID(now time.Time) string {
	return "TXN_" + now.UTC().Format("20060102150405") + "_" + itoa4(rand.Intn(9000)+1000)
}

func itoa4(n int) string {
	buf := [4]byte{}
	for i := 3; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[:])
}

// Submit runs the full intake pipeline. The record is persisted PENDING
// before the first scoring attempt, so no transaction is ever lost: a crash
// or scoring exhaustion leaves a recoverable PENDING row.
func (o *orchestrator) Submit(ctx context.Context, traceID string, req views.TransactionCreate) (views.TransactionResponse, error) {
	if err := validateCreate(req); err != nil {
		return views.TransactionResponse{}, err
	}

	// Identity lookup is best effort: a definitive "unknown user" rejects,
	// an unreachable provider fails open.
	if valid, err := o.verifier.Verify(ctx, req.UserID); err != nil {
		o.logger.Warn("identity provider unreachable; proceeding",
			zap.String(pkg.TraceId, traceID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
	} else if !valid {
		return views.TransactionResponse{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "unknown user", nil)
	}

	category := req.Category
	if category == "" {
		category = pkg.DefaultCategory
	}

	created, err := o.createPending(ctx, traceID, req, category)
	if err != nil {
		return views.TransactionResponse{}, err
	}
	o.logger.Info("transaction recorded",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.TransactionId, created.TransactionID),
		zap.Float64("amount", created.Amount),
		zap.String("merchant", created.Merchant))

	// Synthesis is pure and deterministic, so a retried scoring call always
	// carries the identical vector.
	vector := features.Synthesize(created.Amount, created.Merchant, created.Category)
	scoringReq := views.ScoringRequest{
		TransactionID: created.TransactionID,
		UserID:        created.UserID,
		Amount:        created.Amount,
		Merchant:      created.Merchant,
		Category:      created.Category,
		Timestamp:     created.CreatedAt.Format(time.RFC3339),
		Features:      vector,
	}

	verdict, err := o.executor.Execute(ctx, func(ctx context.Context) (views.ScoringVerdict, error) {
		return o.scorer.Score(ctx, scoringReq)
	})
	if err != nil {
		if scoring.IsExhausted(err) {
			// Surfaced, not silently approved: the caller learns the record
			// exists and is PENDING.
			o.logger.Warn("scoring exhausted; transaction left PENDING",
				zap.String(pkg.TraceId, traceID),
				zap.String(pkg.TransactionId, created.TransactionID),
				zap.Error(err))
			resp := created.ToResponse()
			resp.Warning = pendingWarning
			return resp, nil
		}
		return views.TransactionResponse{}, err
	}

	decided, err := o.ledger.ApplyVerdict(ctx, traceID, created.TransactionID, verdict)
	if err != nil {
		// The record stays PENDING and recoverable; surface the failure.
		o.logger.Error("failed to apply verdict",
			zap.String(pkg.TraceId, traceID),
			zap.String(pkg.TransactionId, created.TransactionID),
			zap.Error(err))
		return views.TransactionResponse{}, err
	}

	o.publishVerdict(traceID, decided, verdict)

	o.logger.Info("transaction decided",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.TransactionId, decided.TransactionID),
		zap.String("status", string(decided.Status)),
		zap.Float64("fraud_score", verdict.FraudScore))
	return decided.ToResponse(), nil
}

func (o *orchestrator) createPending(ctx context.Context, traceID string, req views.TransactionCreate, category string) (models.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		now := o.now()
		created, err := o.ledger.Create(ctx, traceID, models.Transaction{
			TransactionID: o.newID(now),
			UserID:        req.UserID,
			Amount:        req.Amount,
			Merchant:      req.Merchant,
			Category:      category,
			Description:   req.Description,
			Status:        pkg.TxStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err == nil {
			return created, nil
		}
		if !pkg.IsDuplicateKey(err) {
			return models.Transaction{}, err
		}
		lastErr = err
		o.logger.Warn("transaction id collision; regenerating",
			zap.String(pkg.TraceId, traceID),
			zap.Int("attempt", attempt+1))
	}
	return models.Transaction{}, pkg.NewAppError(pkg.ErrDuplicateTransactionCode, "could not allocate a unique transaction id", lastErr)
}

func (o *orchestrator) publishVerdict(traceID string, txn models.Transaction, verdict views.ScoringVerdict) {
	err := o.publisher.PublishVerdict(views.VerdictEvent{
		TransactionID: txn.TransactionID,
		UserID:        txn.UserID,
		Amount:        txn.Amount,
		Merchant:      txn.Merchant,
		Status:        string(txn.Status),
		IsFraud:       verdict.IsFraud,
		FraudScore:    verdict.FraudScore,
		Confidence:    verdict.Confidence,
		Reason:        verdict.Reason,
		DecidedAt:     txn.UpdatedAt,
	})
	if err != nil {
		o.logger.Error("failed to publish verdict event",
			zap.String(pkg.TraceId, traceID),
			zap.String(pkg.TransactionId, txn.TransactionID),
			zap.Error(err))
	}
}

func (o *orchestrator) Get(ctx context.Context, traceID string, transactionID string) (views.TransactionView, error) {
	txn, err := o.ledger.Get(ctx, traceID, transactionID)
	if err != nil {
		return views.TransactionView{}, err
	}
	return txn.ToView(), nil
}

func (o *orchestrator) List(ctx context.Context, traceID string, skip int, limit int) (views.TransactionListResponse, error) {
	total, txns, err := o.ledger.List(ctx, traceID, skip, limit)
	if err != nil {
		return views.TransactionListResponse{}, err
	}
	out := views.TransactionListResponse{Total: total, Transactions: make([]views.TransactionView, 0, len(txns))}
	for _, txn := range txns {
		out.Transactions = append(out.Transactions, txn.ToView())
	}
	return out, nil
}

func (o *orchestrator) ListForUser(ctx context.Context, traceID string, userID string) (views.UserTransactionsResponse, error) {
	txns, err := o.ledger.ListForUser(ctx, traceID, userID)
	if err != nil {
		return views.UserTransactionsResponse{}, err
	}
	out := views.UserTransactionsResponse{UserID: userID, Total: len(txns), Transactions: make([]views.TransactionView, 0, len(txns))}
	for _, txn := range txns {
		out.Transactions = append(out.Transactions, txn.ToView())
	}
	return out, nil
}

func validateCreate(req views.TransactionCreate) error {
	if req.Amount <= 0 {
		return pkg.NewAppError(pkg.ErrInvalidInputCode, "amount must be positive", nil)
	}
	if strings.TrimSpace(req.Merchant) == "" {
		return pkg.NewAppError(pkg.ErrInvalidInputCode, "merchant is required", nil)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return pkg.NewAppError(pkg.ErrInvalidInputCode, "user_id is required", nil)
	}
	return nil
}
