package utils

import (
	"time"
)

// CalculateExponentialBackoff computes the delay before retry attempt n.
// - attempt: 1-based attempt number; attempt 1 carries no delay.
// - base: delay before attempt 2 (e.g. 1 * time.Second)
// - max: cap on the computed delay (e.g. 30 * time.Second)
//
// The growth is base * 2^(attempt-2). No jitter is applied: retries for a
// single transaction are strictly sequential and the requesting goroutine is
// the only waiter, so there is no herd to desynchronize.
func CalculateExponentialBackoff(attempt int, base time.Duration, max time.Duration) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := base
	for i := 2; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		delay = max
	}
	return delay
}
