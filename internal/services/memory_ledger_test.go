package services

import (
	"context"
	"testing"
	"time"

	"github.com/fraudlens/transaction-intake/pkg"
	"github.com/fraudlens/transaction-intake/pkg/models"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingTxn(id string, userID string, amount float64, createdAt time.Time) models.Transaction {
	return models.Transaction{
		TransactionID: id,
		UserID:        userID,
		Amount:        amount,
		Merchant:      "Coffee Shop",
		Category:      pkg.DefaultCategory,
		Status:        pkg.TxStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func appCode(t *testing.T, err error) pkg.ErrorCode {
	t.Helper()
	var appErr pkg.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestMemoryLedger_CreateRejectsDuplicateID(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := ledger.Create(ctx, "trace", pendingTxn("TXN_1", "user-1", 10, now))
	require.NoError(t, err)

	_, err = ledger.Create(ctx, "trace", pendingTxn("TXN_1", "user-2", 20, now))
	require.Error(t, err)
	assert.Equal(t, pkg.ErrSQLDuplicateCode, appCode(t, err))
	assert.True(t, pkg.IsDuplicateKey(err))
}

func TestMemoryLedger_ApplyVerdictTransitionsOnce(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := ledger.Create(ctx, "trace", pendingTxn("TXN_1", "user-1", 10, now))
	require.NoError(t, err)

	decided, err := ledger.ApplyVerdict(ctx, "trace", "TXN_1", views.ScoringVerdict{
		IsFraud: true, FraudScore: 0.9, Confidence: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusBlocked, decided.Status)
	require.NotNil(t, decided.IsFraud)
	assert.True(t, *decided.IsFraud)
	require.NotNil(t, decided.FraudScore)
	assert.Equal(t, 0.9, *decided.FraudScore)

	// Second apply fails and leaves the record unchanged.
	_, err = ledger.ApplyVerdict(ctx, "trace", "TXN_1", views.ScoringVerdict{FraudScore: 0.1})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrTerminalStateCode, appCode(t, err))

	got, err := ledger.Get(ctx, "trace", "TXN_1")
	require.NoError(t, err)
	assert.Equal(t, pkg.TxStatusBlocked, got.Status)
	assert.Equal(t, 0.9, *got.FraudScore)
}

func TestMemoryLedger_ApplyVerdictUnknownID(t *testing.T) {
	ledger := NewMemoryLedger()

	_, err := ledger.ApplyVerdict(context.Background(), "trace", "TXN_MISSING", views.ScoringVerdict{})

	require.Error(t, err)
	assert.Equal(t, pkg.ErrRecordNotFoundCode, appCode(t, err))
}

func TestMemoryLedger_GetUnknownID(t *testing.T) {
	ledger := NewMemoryLedger()

	_, err := ledger.Get(context.Background(), "trace", "TXN_MISSING")

	require.Error(t, err)
	assert.Equal(t, pkg.ErrRecordNotFoundCode, appCode(t, err))
}

func TestMemoryLedger_ListNewestFirstWithPagination(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := ledger.Create(ctx, "trace",
			pendingTxn("TXN_"+string(rune('A'+i)), "user-1", float64(i+1), base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	total, page, err := ledger.List(ctx, "trace", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "TXN_D", page[0].TransactionID)
	assert.Equal(t, "TXN_C", page[1].TransactionID)
}

func TestMemoryLedger_ListSkipBeyondEnd(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.Create(ctx, "trace", pendingTxn("TXN_1", "user-1", 10, time.Now().UTC()))
	require.NoError(t, err)

	total, page, err := ledger.List(ctx, "trace", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, page)
}

func TestMemoryLedger_ListForUserFiltersByUser(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, tc := range []struct{ id, user string }{
		{"TXN_1", "user-1"},
		{"TXN_2", "user-2"},
		{"TXN_3", "user-1"},
	} {
		_, err := ledger.Create(ctx, "trace", pendingTxn(tc.id, tc.user, 10, now))
		require.NoError(t, err)
	}

	txns, err := ledger.ListForUser(ctx, "trace", "user-1")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "TXN_1", txns[0].TransactionID)
	assert.Equal(t, "TXN_3", txns[1].TransactionID)

	none, err := ledger.ListForUser(ctx, "trace", "user-9")
	require.NoError(t, err)
	assert.Empty(t, none)
}
