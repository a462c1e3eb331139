package services

import (
	"context"
	"errors"

	"github.com/fraudlens/transaction-intake/internal/observability"
	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/database"
	"github.com/fraudlens/transaction-intake/pkg/models"
	"github.com/fraudlens/transaction-intake/pkg/repositories"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Ledger owns persisted transaction records and their state transitions; it
// is the only writer of ground truth. Each operation runs in a single storage
// transaction; no cross-record coordination is required.
type Ledger interface {
	// Create persists a PENDING record and returns it as stored.
	Create(ctx context.Context, traceID string, txn models.Transaction) (models.Transaction, error)
	// ApplyVerdict performs the single post-creation mutation: PENDING ->
	// APPROVED|BLOCKED with the verdict fields set together. A second apply
	// on the same record fails and leaves it unchanged.
	ApplyVerdict(ctx context.Context, traceID string, transactionID string, verdict views.ScoringVerdict) (models.Transaction, error)
	Get(ctx context.Context, traceID string, transactionID string) (models.Transaction, error)
	// List returns (total, page) ordered by creation time descending.
	List(ctx context.Context, traceID string, skip int, limit int) (int64, []models.Transaction, error)
	ListForUser(ctx context.Context, traceID string, userID string) ([]models.Transaction, error)
}

// VerdictStatus maps a fraud verdict to the terminal transaction status.
func VerdictStatus(verdict views.ScoringVerdict) pkg.TxStatus {
	if verdict.IsFraud {
		return pkg.TxStatusBlocked
	}
	return pkg.TxStatusApproved
}

// PostgresLedger backs the Ledger with pgx against the transactions table.
type PostgresLedger struct {
	logger *zap.Logger
	db     *database.DB
	repo   repositories.TransactionRepository
}

func NewPostgresLedger(logger *zap.Logger, db *database.DB, repo repositories.TransactionRepository) Ledger {
	return &PostgresLedger{logger: logger, db: db, repo: repo}
}

func (l *PostgresLedger) Create(ctx context.Context, traceID string, txn models.Transaction) (models.Transaction, error) {
	var created models.Transaction
	err := l.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		created, err = l.repo.Create(ctx, tx, txn)
		return err
	})
	if err != nil {
		return models.Transaction{}, pkg.HandleSQLError(traceID, l.logger, err)
	}
	return created, nil
}

func (l *PostgresLedger) ApplyVerdict(ctx context.Context, traceID string, transactionID string, verdict views.ScoringVerdict) (models.Transaction, error) {
	var updated models.Transaction
	err := l.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		updated, err = l.repo.ApplyVerdict(ctx, tx, transactionID, VerdictStatus(verdict), verdict)
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := l.repo.ExistsByTransactionID(ctx, tx, transactionID)
			if exErr != nil {
				return exErr
			}
			if exists {
				return pkg.NewAppError(pkg.ErrTerminalStateCode, "transaction already decided", nil)
			}
			return pkg.NewAppError(pkg.ErrRecordNotFoundCode, "transaction not found", nil)
		}
		return err
	})
	if err != nil {
		var appErr pkg.AppError
		if errors.As(err, &appErr) {
			return models.Transaction{}, err
		}
		return models.Transaction{}, pkg.HandleSQLError(traceID, l.logger, err)
	}
	observability.VerdictsApplied.WithLabelValues(string(updated.Status)).Inc()
	return updated, nil
}

func (l *PostgresLedger) Get(ctx context.Context, traceID string, transactionID string) (models.Transaction, error) {
	txn, err := l.repo.GetByTransactionID(ctx, l.db, transactionID)
	if err != nil {
		return models.Transaction{}, pkg.HandleSQLError(traceID, l.logger, err)
	}
	return txn, nil
}

func (l *PostgresLedger) List(ctx context.Context, traceID string, skip int, limit int) (int64, []models.Transaction, error) {
	total, err := l.repo.Count(ctx, l.db)
	if err != nil {
		return 0, nil, pkg.HandleSQLError(traceID, l.logger, err)
	}
	txns, err := l.repo.List(ctx, l.db, skip, limit)
	if err != nil {
		return 0, nil, pkg.HandleSQLError(traceID, l.logger, err)
	}
	return total, txns, nil
}

func (l *PostgresLedger) ListForUser(ctx context.Context, traceID string, userID string) ([]models.Transaction, error) {
	txns, err := l.repo.ListByUser(ctx, l.db, userID)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, l.logger, err)
	}
	return txns, nil
}
