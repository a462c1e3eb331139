package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/database"
	"github.com/fraudlens/transaction-intake/pkg/models"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/jackc/pgx/v5"
)

type TransactionRepository interface {
	// Create inserts a new PENDING transaction and fills the generated
	// row id and timestamps on the returned model.
	Create(ctx context.Context, tx pgx.Tx, txn models.Transaction) (models.Transaction, error)
	// ApplyVerdict moves a PENDING record to its terminal status and writes
	// the verdict fields, returning the updated row. pgx.ErrNoRows means the
	// record was missing or already decided.
	ApplyVerdict(ctx context.Context, tx pgx.Tx, transactionID string, status pkg.TxStatus, verdict views.ScoringVerdict) (models.Transaction, error)
	// ExistsByTransactionID reports whether a record exists, regardless of status.
	ExistsByTransactionID(ctx context.Context, tx pgx.Tx, transactionID string) (bool, error)

	GetByTransactionID(ctx context.Context, db *database.DB, transactionID string) (models.Transaction, error)
	Count(ctx context.Context, db *database.DB) (int64, error)
	List(ctx context.Context, db *database.DB, skip int, limit int) ([]models.Transaction, error)
	ListByUser(ctx context.Context, db *database.DB, userID string) ([]models.Transaction, error)
}

type TransactionRepositoryImpl struct {
}

func NewTransactionRepository() TransactionRepository {
	return &TransactionRepositoryImpl{}
}

const transactionColumns = `id, transaction_id, user_id, amount, merchant, category, description, status, is_fraud, fraud_score, confidence, created_at, updated_at`

func (r TransactionRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, txn models.Transaction) (models.Transaction, error) {
	err := tx.QueryRow(ctx, `
						INSERT INTO transactions (transaction_id, user_id, amount, merchant, category, description, status, created_at, updated_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
						RETURNING id, created_at, updated_at`,
		txn.TransactionID,
		txn.UserID,
		txn.Amount,
		txn.Merchant,
		txn.Category,
		txn.Description,
		txn.Status,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	return txn, nil
}

func (r TransactionRepositoryImpl) ApplyVerdict(ctx context.Context, tx pgx.Tx, transactionID string, status pkg.TxStatus, verdict views.ScoringVerdict) (models.Transaction, error) {
	// The status guard makes the terminal states sticky: a second apply
	// matches no row and surfaces as pgx.ErrNoRows.
	row := tx.QueryRow(ctx, `
						UPDATE transactions
						SET status = $1, is_fraud = $2, fraud_score = $3, confidence = $4, updated_at = $5
						WHERE transaction_id = $6 AND status = $7
						RETURNING `+transactionColumns,
		status,
		verdict.IsFraud,
		verdict.FraudScore,
		verdict.Confidence,
		time.Now().UTC(),
		transactionID,
		pkg.TxStatusPending,
	)
	return scanTransaction(row)
}

func (r TransactionRepositoryImpl) ExistsByTransactionID(ctx context.Context, tx pgx.Tx, transactionID string) (bool, error) {
	if transactionID == "" {
		return false, errors.New("transaction id cannot be empty")
	}
	var exists bool
	err := tx.QueryRow(ctx, `
							SELECT EXISTS(SELECT 1 FROM transactions WHERE transaction_id = $1)`,
		transactionID,
	).Scan(&exists)
	return exists, err
}

func (r TransactionRepositoryImpl) GetByTransactionID(ctx context.Context, db *database.DB, transactionID string) (models.Transaction, error) {
	row := db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, transactionID)
	return scanTransaction(row)
}

func (r TransactionRepositoryImpl) Count(ctx context.Context, db *database.DB) (int64, error) {
	var total int64
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total)
	return total, err
}

func (r TransactionRepositoryImpl) List(ctx context.Context, db *database.DB, skip int, limit int) ([]models.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r TransactionRepositoryImpl) ListByUser(ctx context.Context, db *database.DB, userID string) ([]models.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var txn models.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.TransactionID,
		&txn.UserID,
		&txn.Amount,
		&txn.Merchant,
		&txn.Category,
		&txn.Description,
		&txn.Status,
		&txn.IsFraud,
		&txn.FraudScore,
		&txn.Confidence,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	return txn, err
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.TransactionID,
			&txn.UserID,
			&txn.Amount,
			&txn.Merchant,
			&txn.Category,
			&txn.Description,
			&txn.Status,
			&txn.IsFraud,
			&txn.FraudScore,
			&txn.Confidence,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
