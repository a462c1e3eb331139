package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fraudlens/transaction-intake/internal/observability"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/models"
	"github.com/fraudlens/transaction-intake/pkg/views"
)

// MemoryLedger is an in-memory Ledger with the same semantics as the
// Postgres implementation: duplicate ids rejected, verdict applied at most
// once, reads never mutate. It backs unit tests and database-less local runs.
type MemoryLedger struct {
	mu      sync.RWMutex
	nextID  int64
	records map[string]models.Transaction
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]models.Transaction)}
}

func (l *MemoryLedger) Create(ctx context.Context, traceID string, txn models.Transaction) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[txn.TransactionID]; ok {
		return models.Transaction{}, pkg.NewAppError(pkg.ErrSQLDuplicateCode, "duplicate value violates unique constraint", nil)
	}

	l.nextID++
	txn.ID = l.nextID
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = txn.CreatedAt
	}
	l.records[txn.TransactionID] = txn
	return txn, nil
}

func (l *MemoryLedger) ApplyVerdict(ctx context.Context, traceID string, transactionID string, verdict views.ScoringVerdict) (models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.records[transactionID]
	if !ok {
		return models.Transaction{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "transaction not found", nil)
	}
	if txn.Status != pkg.TxStatusPending {
		return models.Transaction{}, pkg.NewAppError(pkg.ErrTerminalStateCode, "transaction already decided", nil)
	}

	isFraud := verdict.IsFraud
	score := verdict.FraudScore
	confidence := verdict.Confidence
	txn.Status = VerdictStatus(verdict)
	txn.IsFraud = &isFraud
	txn.FraudScore = &score
	txn.Confidence = &confidence
	txn.UpdatedAt = time.Now().UTC()
	l.records[transactionID] = txn

	observability.VerdictsApplied.WithLabelValues(string(txn.Status)).Inc()
	return txn, nil
}

func (l *MemoryLedger) Get(ctx context.Context, traceID string, transactionID string) (models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txn, ok := l.records[transactionID]
	if !ok {
		return models.Transaction{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "transaction not found", nil)
	}
	return txn, nil
}

func (l *MemoryLedger) List(ctx context.Context, traceID string, skip int, limit int) (int64, []models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]models.Transaction, 0, len(l.records))
	for _, txn := range l.records {
		all = append(all, txn)
	}
	// Creation time descending; row id breaks ties for records created in
	// the same instant.
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	if skip >= len(all) {
		return total, nil, nil
	}
	all = all[skip:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return total, all, nil
}

func (l *MemoryLedger) ListForUser(ctx context.Context, traceID string, userID string) ([]models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var txns []models.Transaction
	for _, txn := range l.records {
		if txn.UserID == userID {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID < txns[j].ID })
	return txns, nil
}
