package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessRiskScore_AmountBands(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		want   float64
	}{
		{"very high amount", 150000, 0.9},
		{"high amount", 60000, 0.7},
		{"suspect amount", 20000, 0.5},
		{"medium amount", 6000, 0.3},
		{"ordinary amount", 100, 0.1},
		{"boundary stays in lower band", 10000, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, _ := BusinessRiskScore(tc.amount, "Legit Merchant")
			assert.InDelta(t, tc.want, score, 1e-9)
		})
	}
}

func TestBusinessRiskScore_ShortMerchantPenalty(t *testing.T) {
	score, reasons := BusinessRiskScore(100, "X")

	assert.InDelta(t, 0.25, score, 1e-9)
	assert.Contains(t, reasons, "suspect merchant name")
}

func TestBusinessRiskScore_CappedAtOne(t *testing.T) {
	score, reasons := BusinessRiskScore(200000, "ab")

	assert.Equal(t, 1.0, score)
	assert.Len(t, reasons, 2)
}
