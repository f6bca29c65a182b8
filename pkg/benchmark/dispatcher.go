package benchmark

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// ProgressFunc is called after each operation settles.
type ProgressFunc func(settled, total int)

// Dispatcher fans a batch of operations out against one submitter and collects
// exactly one outcome per operation.
type Dispatcher struct {
	executor *Executor
	now      func() time.Time
	progress ProgressFunc
}

type DispatcherOption func(*Dispatcher)

func WithExecutor(e *Executor) DispatcherOption {
	return func(d *Dispatcher) {
		d.executor = e
	}
}

// WithBatchClock overrides the time source used for the batch wall clock.
func WithBatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func WithProgress(fn ProgressFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.progress = fn
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		executor: NewExecutor(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunBatch launches count executions concurrently and waits for all of them to
// settle. A failing operation never cancels its siblings. If ctx is cancelled,
// operations that have not yet submitted settle as submit failures; operations
// already accepted by the backend are still confirmed.
func (d *Dispatcher) RunBatch(ctx context.Context, submitter Submitter, source RequestSource, count int) (Batch, error) {
	if count < 1 {
		return Batch{}, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if submitter == nil {
		return Batch{}, ErrNilSubmitter
	}
	if source == nil {
		return Batch{}, ErrNilRequestSource
	}

	var settled atomic.Int64
	p := pool.NewWithResults[OperationOutcome]()

	startedAt := d.now()
	for i := 0; i < count; i++ {
		req := source(i)
		p.Go(func() OperationOutcome {
			outcome := d.runOne(ctx, submitter, req)
			if d.progress != nil {
				d.progress(int(settled.Add(1)), count)
			}
			return outcome
		})
	}
	outcomes := p.Wait()
	finishedAt := d.now()

	return Batch{
		Outcomes:    outcomes,
		TotalTimeMs: durationMs(finishedAt.Sub(startedAt)),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}, nil
}

// RunSingle is the degenerate batch of one.
func (d *Dispatcher) RunSingle(ctx context.Context, submitter Submitter, req OperationRequest) (OperationOutcome, error) {
	batch, err := d.RunBatch(ctx, submitter, Repeat(req), 1)
	if err != nil {
		return OperationOutcome{}, err
	}
	return batch.Outcomes[0], nil
}

func (d *Dispatcher) runOne(ctx context.Context, submitter Submitter, req OperationRequest) OperationOutcome {
	if ctx.Err() != nil {
		return submitFailure(fmt.Errorf("%w: %w", errBatchCancelled, context.Cause(ctx)))
	}
	return d.executor.Execute(ctx, submitter, req)
}

// RunBatch dispatches count copies of req with a default Dispatcher.
func RunBatch(ctx context.Context, submitter Submitter, req OperationRequest, count int) (Batch, error) {
	return NewDispatcher().RunBatch(ctx, submitter, Repeat(req), count)
}
