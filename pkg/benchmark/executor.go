package benchmark

import (
	"context"
	"fmt"
	"time"
)

// Executor runs a single submit+confirm cycle and folds every failure into the
// returned outcome. It holds no per-operation state and is safe for concurrent use.
type Executor struct {
	now func() time.Time
}

type ExecutorOption func(*Executor)

// WithClock overrides the time source used for latency measurement.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute acquires a slot from the submitter, submits req on it and waits for the
// confirmation. It never returns an error: the outcome carries the failure kind.
func (e *Executor) Execute(ctx context.Context, submitter Submitter, req OperationRequest) OperationOutcome {
	slot, err := guard(func() (Slot, error) {
		return submitter.AcquireSlot(ctx)
	})
	if err != nil {
		return submitFailure(fmt.Errorf("acquire slot: %w", err))
	}

	start := e.now()

	handle, err := guard(func() (Handle, error) {
		return submitter.Submit(ctx, slot, req)
	})
	if err != nil {
		return submitFailure(err)
	}
	referenceID := handle.ReferenceID

	// The write was accepted; it cannot be taken back, so confirmation outlives
	// batch cancellation.
	confirmCtx := context.WithoutCancel(ctx)
	receipt, err := guard(func() (*Receipt, error) {
		return submitter.Confirm(confirmCtx, handle)
	})
	if err != nil {
		return OperationOutcome{
			Failure:     FailureConfirmError,
			ReferenceID: referenceID,
			Error:       err.Error(),
		}
	}
	if receipt == nil {
		return OperationOutcome{
			Failure:     FailureAmbiguousConfirmation,
			ReferenceID: referenceID,
			Error:       errConfirmUnavailable.Error(),
		}
	}

	latency := durationMs(e.now().Sub(start))
	cost := receipt.CostUsed

	if !receipt.Success {
		return OperationOutcome{
			Failure:     FailureExecutionRejected,
			LatencyMs:   &latency,
			CostUsed:    &cost,
			ReferenceID: referenceID,
			Error:       fmt.Sprintf("execution rejected with status %d", receipt.Status),
		}
	}

	return OperationOutcome{
		Success:     true,
		Failure:     FailureNone,
		LatencyMs:   &latency,
		CostUsed:    &cost,
		ReferenceID: referenceID,
	}
}

func submitFailure(err error) OperationOutcome {
	return OperationOutcome{
		Failure: FailureSubmitError,
		Error:   err.Error(),
	}
}

// guard turns a panic inside a submitter call into an error.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submitter panic: %v", r)
		}
	}()
	return fn()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
