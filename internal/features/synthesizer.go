package features

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"strconv"
)

// Dimensions is the number of anonymized signal dimensions (V1..V28). The
// vector additionally carries the raw transaction amount under AmountKey.
const Dimensions = 28

const AmountKey = "Amount"

// Baseline variance bands. Dimensions fall into three groups mirroring
// correlated/uncorrelated signal clusters in the reference dataset.
const (
	stdDevTight = 1.0 // V1..V5
	stdDevWide  = 2.0 // V6..V10
	stdDevMid   = 1.5 // V11..V28
)

// Amount-conditioned skew thresholds and shift parameters. When a
// transaction amount crosses a threshold, a fixed subset of dimensions is
// redrawn from a shifted distribution to simulate elevated-risk patterns.
const (
	skewAmountHigh     = 1000.0
	skewAmountVeryHigh = 5000.0
)

var (
	// amount > skewAmountHigh
	highSkew = map[int][2]float64{ // dim -> {mean, stddev}
		11: {2, 1},
		12: {-1, 1},
		14: {-2, 0.8},
	}
	// amount > skewAmountVeryHigh, applied on top of highSkew
	veryHighSkew = map[int][2]float64{
		4:  {3, 1},
		11: {3.5, 0.5},
	}
)

// Vector is a fixed-schema feature vector keyed by dimension name.
// Ephemeral: it exists only for the duration of one scoring call.
type Vector map[string]float64

// Synthesize derives the feature vector for a transaction. The generator is
// seeded from a stable hash of (merchant, amount), so identical inputs always
// yield identical vectors; that makes scoring retries idempotent and tests
// reproducible. Category is part of the contract but carries no signal in the
// current schema. Never fails; always covers the full schema.
func Synthesize(amount float64, merchant string, category string) Vector {
	_ = category
	rng := rand.New(rand.NewSource(seed(amount, merchant)))

	v := make(Vector, Dimensions+1)
	for i := 1; i <= Dimensions; i++ {
		switch {
		case i <= 5:
			v[dim(i)] = rng.NormFloat64() * stdDevTight
		case i <= 10:
			v[dim(i)] = rng.NormFloat64() * stdDevWide
		default:
			v[dim(i)] = rng.NormFloat64() * stdDevMid
		}
	}

	if amount > skewAmountHigh {
		redraw(rng, v, highSkew)
	}
	if amount > skewAmountVeryHigh {
		redraw(rng, v, veryHighSkew)
	}

	v[AmountKey] = amount
	return v
}

func redraw(rng *rand.Rand, v Vector, skew map[int][2]float64) {
	// Iterate in index order; map iteration order would break determinism.
	for i := 1; i <= Dimensions; i++ {
		if params, ok := skew[i]; ok {
			v[dim(i)] = params[0] + rng.NormFloat64()*params[1]
		}
	}
}

func dim(i int) string {
	return fmt.Sprintf("V%d", i)
}

// seed folds the MD5 digest of "<merchant>_<amount>" into a small stable
// integer, matching the reference engine's seeding scheme.
func seed(amount float64, merchant string) int64 {
	digest := md5.Sum([]byte(merchant + "_" + strconv.FormatFloat(amount, 'f', -1, 64)))
	var m int64
	for _, b := range digest {
		m = (m*256 + int64(b)) % 10000
	}
	return m
}
