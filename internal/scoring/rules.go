package scoring

import "strings"

// Business-rule risk bands. These mirror the authoritative engine revision:
// the rule score is combined with the classifier probability by max().
const (
	ruleAmountVeryHigh = 100000.0
	ruleAmountHigh     = 50000.0
	ruleAmountSuspect  = 10000.0
	ruleAmountMedium   = 5000.0

	ruleScoreVeryHigh = 0.9
	ruleScoreHigh     = 0.7
	ruleScoreSuspect  = 0.5
	ruleScoreMedium   = 0.3
	ruleScoreBase     = 0.1

	shortMerchantLen     = 2
	shortMerchantPenalty = 0.15
)

// BusinessRiskScore computes the deterministic rule-based risk score for a
// transaction: amount bands plus a penalty for suspiciously short merchant
// names. Returns the score and the triggered rule descriptions.
func BusinessRiskScore(amount float64, merchant string) (float64, []string) {
	var reasons []string
	var score float64

	switch {
	case amount > ruleAmountVeryHigh:
		score = ruleScoreVeryHigh
		reasons = append(reasons, "very high amount (>100K)")
	case amount > ruleAmountHigh:
		score = ruleScoreHigh
		reasons = append(reasons, "high amount (>50K)")
	case amount > ruleAmountSuspect:
		score = ruleScoreSuspect
		reasons = append(reasons, "suspect amount (>10K)")
	case amount > ruleAmountMedium:
		score = ruleScoreMedium
		reasons = append(reasons, "medium amount (>5K)")
	default:
		score = ruleScoreBase
	}

	if len(strings.TrimSpace(merchant)) <= shortMerchantLen {
		score += shortMerchantPenalty
		reasons = append(reasons, "suspect merchant name")
	}

	if score > 1 {
		score = 1
	}
	return score, reasons
}
