package features

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_IsDeterministic(t *testing.T) {
	a := Synthesize(250.75, "Coffee Shop", "Food")
	b := Synthesize(250.75, "Coffee Shop", "Food")

	assert.Equal(t, a, b, "identical inputs must produce identical vectors")
}

func TestSynthesize_DiffersAcrossInputs(t *testing.T) {
	base := Synthesize(250.75, "Coffee Shop", "Food")

	assert.NotEqual(t, base, Synthesize(250.76, "Coffee Shop", "Food"))
	assert.NotEqual(t, base, Synthesize(250.75, "Other Shop", "Food"))
}

func TestSynthesize_CoversFullSchema(t *testing.T) {
	v := Synthesize(42.0, "Grocery", "Other")

	require.Len(t, v, Dimensions+1)
	for i := 1; i <= Dimensions; i++ {
		_, ok := v[fmt.Sprintf("V%d", i)]
		assert.True(t, ok, "missing dimension V%d", i)
	}
	assert.Equal(t, 42.0, v[AmountKey])
}

func TestSynthesize_CategoryCarriesNoSignal(t *testing.T) {
	a := Synthesize(99.99, "Bookstore", "Books")
	b := Synthesize(99.99, "Bookstore", "Electronics")

	assert.Equal(t, a, b)
}

func TestSynthesize_HighAmountShiftsSkewedDimensions(t *testing.T) {
	// With mean 3.5 and stddev 0.5, V11 above the very-high threshold sits
	// far outside the baseline N(0, 1.5) band with overwhelming probability.
	v := Synthesize(7500, "Electronics Hub", "Other")
	assert.Greater(t, v["V11"], 1.0)
}
