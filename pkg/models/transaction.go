package models

import (
	"time"

	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/views"
)

// Transaction maps to table `transactions`. The verdict fields are pointers
// because they stay NULL until the record leaves PENDING; they are written
// together, exactly once.
type Transaction struct {
	ID            int64
	TransactionID string
	UserID        string
	Amount        float64
	Merchant      string
	Category      string
	Description   string
	Status        pkg.TxStatus
	IsFraud       *bool
	FraudScore    *float64
	Confidence    *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Transaction) ToView() views.TransactionView {
	return views.TransactionView{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		Amount:        t.Amount,
		Merchant:      t.Merchant,
		Category:      t.Category,
		Description:   t.Description,
		Status:        t.Status,
		IsFraud:       t.IsFraud,
		FraudScore:    t.FraudScore,
		Confidence:    t.Confidence,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (t Transaction) ToResponse() views.TransactionResponse {
	return views.TransactionResponse{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		Amount:        t.Amount,
		Merchant:      t.Merchant,
		Status:        t.Status,
		IsFraud:       t.IsFraud,
		FraudScore:    t.FraudScore,
		Timestamp:     t.CreatedAt,
	}
}
