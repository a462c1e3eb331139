package views

import (
	"time"

	"github.com/fraudlens/transaction-intake/pkg"
)

// TransactionCreate is the inbound submission payload.
type TransactionCreate struct {
	UserID      string  `json:"user_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Merchant    string  `json:"merchant" binding:"required"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// TransactionResponse is returned from POST /transactions. The verdict fields
// are nil when scoring could not complete and the record stayed PENDING.
type TransactionResponse struct {
	TransactionID string       `json:"transaction_id"`
	UserID        string       `json:"user_id"`
	Amount        float64      `json:"amount"`
	Merchant      string       `json:"merchant"`
	Status        pkg.TxStatus `json:"status"`
	IsFraud       *bool        `json:"is_fraud,omitempty"`
	FraudScore    *float64     `json:"fraud_score,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
	Warning       string       `json:"warning,omitempty"`
}

// TransactionView is the full stored record, returned by the read endpoints.
type TransactionView struct {
	TransactionID string       `json:"transaction_id"`
	UserID        string       `json:"user_id"`
	Amount        float64      `json:"amount"`
	Merchant      string       `json:"merchant"`
	Category      string       `json:"category,omitempty"`
	Description   string       `json:"description,omitempty"`
	Status        pkg.TxStatus `json:"status"`
	IsFraud       *bool        `json:"is_fraud"`
	FraudScore    *float64     `json:"fraud_score"`
	Confidence    *float64     `json:"confidence"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TransactionListResponse is the paginated listing envelope.
type TransactionListResponse struct {
	Total        int64             `json:"total"`
	Transactions []TransactionView `json:"transactions"`
}

// UserTransactionsResponse wraps the per-user listing.
type UserTransactionsResponse struct {
	UserID       string            `json:"user_id"`
	Total        int               `json:"total"`
	Transactions []TransactionView `json:"transactions"`
}
