package scoring

import (
	"errors"
	"fmt"
)

// ErrScoringUnavailable marks a single failed scoring attempt: transport
// error, timeout, throttling, or a malformed response. It is the only error
// the client produces and the only one the executor retries; the client never
// substitutes a guessed verdict.
var ErrScoringUnavailable = errors.New("scoring engine unavailable")

// ExhaustedError is returned by the executor once every attempt has failed
// with ErrScoringUnavailable. The transaction stays PENDING in the ledger.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("scoring exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// IsExhausted reports whether err is a scoring-exhausted failure.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}
