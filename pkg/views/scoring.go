package views

import "time"

// ScoringVerdict is the normalized fraud verdict for one transaction.
// Produced by the Scoring Engine, consumed once by the orchestrator,
// never persisted on its own.
type ScoringVerdict struct {
	IsFraud    bool    `json:"is_fraud"`
	FraudScore float64 `json:"fraud_score"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// ScoringRequest is the outbound payload to the Scoring Engine. It carries
// the raw transaction summary plus the pre-synthesized feature vector keyed
// by dimension name; the engine uses whichever representation its active
// revision expects.
type ScoringRequest struct {
	TransactionID string             `json:"transaction_id"`
	UserID        string             `json:"user_id"`
	Amount        float64            `json:"amount"`
	Merchant      string             `json:"merchant"`
	Category      string             `json:"category"`
	Timestamp     string             `json:"timestamp"`
	Features      map[string]float64 `json:"features,omitempty"`
}

// VerdictEvent is published to Kafka after a verdict is applied, for
// downstream consumers (alerting, analytics). Best effort only.
type VerdictEvent struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Amount        float64   `json:"amount"`
	Merchant      string    `json:"merchant"`
	Status        string    `json:"status"`
	IsFraud       bool      `json:"isFraud"`
	FraudScore    float64   `json:"fraudScore"`
	Confidence    float64   `json:"confidence"`
	Reason        string    `json:"reason,omitempty"`
	DecidedAt     time.Time `json:"decidedAt"`
}
