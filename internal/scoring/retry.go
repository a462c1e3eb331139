package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/fraudlens/transaction-intake/internal/observability"
	"github.com/fraudlens/transaction-intake/pkg/utils"
	"github.com/fraudlens/transaction-intake/pkg/views"
	"go.uber.org/zap"
)

// ScoreFunc is one scoring call to execute under the retry policy.
type ScoreFunc func(ctx context.Context) (views.ScoringVerdict, error)

// RetryPolicy bounds the executor. Delay before attempt n (n >= 2) is
// BaseDelay * 2^(n-2), capped at MaxDelay; attempt 1 runs immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ExecutorConfig holds configuration and dependencies for the retry executor.
type ExecutorConfig struct {
	Logger *zap.Logger
	Policy RetryPolicy
	// Pool optionally runs the retry loop on a background worker so a slow
	// Scoring Engine does not pin request goroutines. Nil means inline.
	Pool *WorkerPool
	// DispatchTimeout bounds how long a submission waits for a pool slot
	// before falling back to an inline attempt.
	DispatchTimeout time.Duration

	// sleep is injectable for backoff tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Executor wraps scoring calls with bounded retries and exponential backoff.
// Retries are strictly sequential: a transaction never has two scoring calls
// in flight at once.
type Executor struct {
	logger          *zap.Logger
	policy          RetryPolicy
	pool            *WorkerPool
	dispatchTimeout time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	sleep := cfg.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Executor{
		logger:          cfg.Logger,
		policy:          cfg.Policy,
		pool:            cfg.Pool,
		dispatchTimeout: cfg.DispatchTimeout,
		sleep:           sleep,
	}
}

// Execute runs fn under the retry policy, dispatching through the worker
// pool when one is configured. If no worker picks the job up within
// DispatchTimeout the loop runs inline instead, so a wedged pool never
// blocks transaction processing indefinitely.
func (e *Executor) Execute(ctx context.Context, fn ScoreFunc) (views.ScoringVerdict, error) {
	if e.pool == nil {
		return e.run(ctx, fn)
	}

	job := &scoreJob{
		ctx:  ctx,
		run:  func(ctx context.Context) (views.ScoringVerdict, error) { return e.run(ctx, fn) },
		done: make(chan scoreResult, 1),
	}

	timer := time.NewTimer(e.dispatchTimeout)
	defer timer.Stop()
	select {
	case e.pool.jobs <- job:
	case <-timer.C:
		observability.DispatchFallbacks.Inc()
		e.logger.Warn("scoring dispatch timed out; running inline")
		return e.run(ctx, fn)
	case <-ctx.Done():
		return views.ScoringVerdict{}, ctx.Err()
	}

	select {
	case res := <-job.done:
		return res.verdict, res.err
	case <-ctx.Done():
		return views.ScoringVerdict{}, ctx.Err()
	}
}

func (e *Executor) run(ctx context.Context, fn ScoreFunc) (views.ScoringVerdict, error) {
	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := utils.CalculateExponentialBackoff(attempt, e.policy.BaseDelay, e.policy.MaxDelay)
			if err := e.sleep(ctx, delay); err != nil {
				return views.ScoringVerdict{}, err
			}
			observability.ScoringRetries.Inc()
		}

		verdict, err := fn(ctx)
		if err == nil {
			return verdict, nil
		}
		if !errors.Is(err, ErrScoringUnavailable) {
			// Anything other than a transient scoring failure propagates
			// immediately.
			return views.ScoringVerdict{}, err
		}
		lastErr = err
		e.logger.Warn("scoring attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.policy.MaxAttempts),
			zap.Error(err))
	}

	observability.ScoringExhausted.Inc()
	return views.ScoringVerdict{}, &ExhaustedError{Attempts: e.policy.MaxAttempts, Last: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
