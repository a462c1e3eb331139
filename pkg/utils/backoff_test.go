package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateExponentialBackoff_FirstAttemptIsImmediate(t *testing.T) {
	assert.Equal(t, time.Duration(0), CalculateExponentialBackoff(0, time.Second, 30*time.Second))
	assert.Equal(t, time.Duration(0), CalculateExponentialBackoff(1, time.Second, 30*time.Second))
}

func TestCalculateExponentialBackoff_DelayDoublesPerAttempt(t *testing.T) {
	base := 500 * time.Millisecond
	max := 30 * time.Second

	d2 := CalculateExponentialBackoff(2, base, max)
	d3 := CalculateExponentialBackoff(3, base, max)
	d4 := CalculateExponentialBackoff(4, base, max)

	assert.Equal(t, base, d2)
	assert.Equal(t, 2*d2, d3)
	assert.Equal(t, 2*d3, d4)
}

func TestCalculateExponentialBackoff_CappedAtMax(t *testing.T) {
	base := time.Second
	max := 4 * time.Second

	assert.Equal(t, 4*time.Second, CalculateExponentialBackoff(4, base, max))
	assert.Equal(t, max, CalculateExponentialBackoff(10, base, max))
	assert.Equal(t, max, CalculateExponentialBackoff(63, base, max), "large attempt numbers must not overflow past the cap")
}
