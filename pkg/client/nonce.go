package client

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/avast/retry-go"
	"github.com/ethereum/go-ethereum/common"
)

// NonceReader is the subset of an ethereum client needed to seed a nonce sequence.
type NonceReader interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceAllocator hands out nonces for one account. The first call seeds the
// sequence from the node's pending nonce. Nonces that never reached the network
// are handed back with Rewind or Release and reissued lowest first.
type NonceAllocator struct {
	reader  NonceReader
	account common.Address

	mu       sync.Mutex
	seeded   bool
	next     uint64
	released []uint64 // ascending, all below next
}

func NewNonceAllocator(reader NonceReader, account common.Address) *NonceAllocator {
	return &NonceAllocator{reader: reader, account: account}
}

// Next reserves the lowest free nonce. A reserved nonce is not reissued until it
// is given back.
func (a *NonceAllocator) Next(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded {
		if err := a.seed(ctx); err != nil {
			return 0, err
		}
	}
	if len(a.released) > 0 {
		n := a.released[0]
		a.released = a.released[1:]
		return n, nil
	}
	n := a.next
	a.next++
	return n, nil
}

// Rewind gives back n when it is the highest nonce issued so far, so no later
// transaction can be waiting behind it. It reports whether n was taken back.
func (a *NonceAllocator) Rewind(n uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded || n+1 != a.next {
		return false
	}
	a.next--
	a.collapse()
	return true
}

// Release returns n to the pool so the next caller reuses it and closes the gap.
func (a *NonceAllocator) Release(n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded || n >= a.next {
		return
	}
	i, found := slices.BinarySearch(a.released, n)
	if found {
		return
	}
	a.released = slices.Insert(a.released, i, n)
	a.collapse()
}

// collapse folds released nonces at the top of the range back into next.
func (a *NonceAllocator) collapse() {
	for len(a.released) > 0 && a.released[len(a.released)-1]+1 == a.next {
		a.released = a.released[:len(a.released)-1]
		a.next--
	}
}

func (a *NonceAllocator) seed(ctx context.Context) error {
	var pending uint64
	err := retry.Do(
		func() error {
			var err error
			pending, err = a.reader.PendingNonceAt(ctx, a.account)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("fetch pending nonce for %s: %w", a.account.Hex(), err)
	}

	a.next = pending
	a.seeded = true
	logger.Debug("Seeded nonce sequence", "account", a.account.Hex(), "nonce", pending)
	return nil
}
