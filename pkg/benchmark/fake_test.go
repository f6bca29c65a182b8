package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// fakeSubmitter is a scriptable Submitter. Hooks left nil behave as a healthy backend
// that confirms every operation with 21000 gas.
type fakeSubmitter struct {
	nextNonce atomic.Uint64

	slotErr    error
	submitFn   func(ctx context.Context, slot Slot, req OperationRequest) (Handle, error)
	confirmFn  func(ctx context.Context, handle Handle) (*Receipt, error)
	mu         sync.Mutex
	slots      []Slot
	submitted  []OperationRequest
	confirmCtx []context.Context
}

func (f *fakeSubmitter) AcquireSlot(ctx context.Context) (Slot, error) {
	if f.slotErr != nil {
		return Slot{}, f.slotErr
	}
	slot := Slot{Nonce: f.nextNonce.Add(1) - 1}
	f.mu.Lock()
	f.slots = append(f.slots, slot)
	f.mu.Unlock()
	return slot, nil
}

func (f *fakeSubmitter) Submit(ctx context.Context, slot Slot, req OperationRequest) (Handle, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, req)
	f.mu.Unlock()
	if f.submitFn != nil {
		return f.submitFn(ctx, slot, req)
	}
	return Handle{ReferenceID: fmt.Sprintf("0xhash%d", slot.Nonce), Slot: slot}, nil
}

func (f *fakeSubmitter) Confirm(ctx context.Context, handle Handle) (*Receipt, error) {
	f.mu.Lock()
	f.confirmCtx = append(f.confirmCtx, ctx)
	f.mu.Unlock()
	if f.confirmFn != nil {
		return f.confirmFn(ctx, handle)
	}
	return &Receipt{Success: true, Status: 1, CostUsed: 21000}, nil
}

var errRejected = errors.New("credential rejected")

// steppingClock returns start, start+step, start+2*step, ... on successive calls.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}
