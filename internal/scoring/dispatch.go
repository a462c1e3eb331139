package scoring

import (
	"context"

	"github.com/fraudlens/transaction-intake/pkg/views"
	"go.uber.org/zap"
)

type scoreResult struct {
	verdict views.ScoringVerdict
	err     error
}

type scoreJob struct {
	ctx  context.Context
	run  func(ctx context.Context) (views.ScoringVerdict, error)
	done chan scoreResult
}

// WorkerPool runs scoring retry loops on a bounded set of background
// goroutines, isolating slow Scoring Engine calls from request handling.
// Jobs carry the submitting request's context, so a job picked up after the
// caller gave up finishes as a cheap no-op. Re-running a job is safe: feature
// synthesis is deterministic and the scoring call has no caller-side effects.
type WorkerPool struct {
	logger *zap.Logger
	jobs   chan *scoreJob
}

// NewWorkerPool starts `workers` goroutines consuming from a queue of size
// `queueSize`. The pool drains until ctx is cancelled.
func NewWorkerPool(ctx context.Context, logger *zap.Logger, workers int, queueSize int) *WorkerPool {
	p := &WorkerPool{
		logger: logger,
		jobs:   make(chan *scoreJob, queueSize),
	}
	for i := 0; i < workers; i++ {
		go p.worker(ctx, i)
	}
	logger.Info("scoring worker pool started",
		zap.Int("workers", workers),
		zap.Int("queue_size", queueSize))
	return p
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			select {
			case <-job.ctx.Done():
				job.done <- scoreResult{err: job.ctx.Err()}
				continue
			default:
			}
			verdict, err := job.run(job.ctx)
			job.done <- scoreResult{verdict: verdict, err: err}
		}
	}
}
