package client

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	chainID int64
	pending uint64
	sent    []*types.Transaction
	sendErr error
	// estimateFailures and sendFailures fail that many leading calls
	estimateFailures int
	sendFailures     int
	notFoundFor      int
	receiptErr       error
	status           uint64
	polls            int
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.pending, nil
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: big.NewInt(100)}, nil
}

func (f *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.estimateFailures > 0 {
		f.estimateFailures--
		return 0, errors.New("transient estimate failure")
	}
	return 50_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendFailures > 0 {
		f.sendFailures--
		return errors.New("connection reset")
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) sentNonces() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	nonces := make([]uint64, 0, len(f.sent))
	for _, tx := range f.sent {
		nonces = append(nonces, tx.Nonce())
	}
	return nonces
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if f.polls <= f.notFoundFor {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: f.status, GasUsed: 21000, TxHash: txHash}, nil
}

func newTestRPCSubmitter(t *testing.T, backend *fakeBackend, opts RPCOptions) *RPCSubmitter {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	s, err := NewRPCSubmitter(context.Background(), backend, key, opts)
	require.NoError(t, err)
	return s
}

func TestNewRPCSubmitter_ChainMismatch(t *testing.T) {
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	_, err = NewRPCSubmitter(context.Background(), &fakeBackend{chainID: 1}, key, RPCOptions{ChainID: 42161})
	assert.ErrorContains(t, err, "expected 42161")
}

func TestRPCSubmitter_SubmitAndConfirm(t *testing.T) {
	backend := &fakeBackend{chainID: 42161, pending: 9, notFoundFor: 2, status: types.ReceiptStatusSuccessful}
	s := newTestRPCSubmitter(t, backend, RPCOptions{ChainID: 42161})

	slot, err := s.AcquireSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), slot.Nonce)
	assert.Equal(t, s.From().Hex(), slot.Space)

	payload, err := DefaultMintPayload(common.HexToAddress("0x02"))
	require.NoError(t, err)
	handle, err := s.Submit(context.Background(), slot, benchmark.OperationRequest{
		Destination: "0x5f87ca3003ec99ff76ec34c2837bc87178abfdeb",
		Payload:     payload,
	})
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, tx.Hash().Hex(), handle.ReferenceID)
	assert.Equal(t, uint64(9), tx.Nonce())
	assert.Equal(t, uint64(60_000), tx.Gas())
	assert.Equal(t, int64(202), tx.GasFeeCap().Int64())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(42161)), tx)
	require.NoError(t, err)
	assert.Equal(t, s.From(), sender)

	receipt, err := s.Confirm(context.Background(), handle)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Success)
	assert.Equal(t, uint64(21000), receipt.CostUsed)
	assert.Equal(t, 3, backend.polls)
}

func TestRPCSubmitter_SlotsAreDistinct(t *testing.T) {
	s := newTestRPCSubmitter(t, &fakeBackend{chainID: 1}, RPCOptions{})

	first, err := s.AcquireSlot(context.Background())
	require.NoError(t, err)
	second, err := s.AcquireSlot(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRPCSubmitter_RevertedReceipt(t *testing.T) {
	backend := &fakeBackend{chainID: 1, status: types.ReceiptStatusFailed}
	s := newTestRPCSubmitter(t, backend, RPCOptions{})

	receipt, err := s.Confirm(context.Background(), benchmark.Handle{ReferenceID: common.Hash{1}.Hex()})
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, uint64(0), receipt.Status)
}

func TestRPCSubmitter_ConfirmTimeout(t *testing.T) {
	backend := &fakeBackend{chainID: 1, notFoundFor: 1 << 30}
	s := newTestRPCSubmitter(t, backend, RPCOptions{ConfirmTimeout: 20 * time.Millisecond})

	_, err := s.Confirm(context.Background(), benchmark.Handle{ReferenceID: common.Hash{1}.Hex()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRPCSubmitter_ReceiptError(t *testing.T) {
	backend := &fakeBackend{chainID: 1, receiptErr: errors.New("rate limited")}
	s := newTestRPCSubmitter(t, backend, RPCOptions{})

	_, err := s.Confirm(context.Background(), benchmark.Handle{ReferenceID: common.Hash{1}.Hex()})
	assert.ErrorContains(t, err, "rate limited")
}

func TestRPCSubmitter_SubmitErrors(t *testing.T) {
	backend := &fakeBackend{chainID: 1, sendErr: errors.New("insufficient funds")}
	s := newTestRPCSubmitter(t, backend, RPCOptions{})

	_, err := s.Submit(context.Background(), benchmark.Slot{}, benchmark.OperationRequest{Destination: "nope"})
	assert.ErrorContains(t, err, "invalid destination")

	_, err = s.Submit(context.Background(), benchmark.Slot{}, benchmark.OperationRequest{Destination: "0x5f87ca3003ec99ff76ec34c2837bc87178abfdeb"})
	assert.ErrorContains(t, err, "insufficient funds")
}

func TestRPCSubmitter_WithExecutor(t *testing.T) {
	backend := &fakeBackend{chainID: 1, status: types.ReceiptStatusSuccessful}
	s := newTestRPCSubmitter(t, backend, RPCOptions{})

	batch, err := benchmark.RunBatch(context.Background(), s, benchmark.OperationRequest{
		Destination: "0x5f87ca3003ec99ff76ec34c2837bc87178abfdeb",
	}, 5)
	require.NoError(t, err)

	report := benchmark.Summarize(batch.Outcomes, batch.TotalTimeMs)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, uint64(5*21000), report.TotalCost)

	nonces := make(map[uint64]bool)
	for _, tx := range backend.sent {
		nonces[tx.Nonce()] = true
	}
	assert.Len(t, nonces, 5)
}

func mintRequest(t *testing.T) benchmark.OperationRequest {
	t.Helper()
	payload, err := DefaultMintPayload(common.HexToAddress("0x02"))
	require.NoError(t, err)
	return benchmark.OperationRequest{
		Destination: "0x5f87ca3003ec99ff76ec34c2837bc87178abfdeb",
		Payload:     payload,
	}
}

func TestRPCSubmitter_FailedSubmitLeavesNoNonceGap(t *testing.T) {
	backend := &fakeBackend{chainID: 42161, pending: 7, estimateFailures: 1, status: types.ReceiptStatusSuccessful}
	s := newTestRPCSubmitter(t, backend, RPCOptions{ChainID: 42161})
	executor := benchmark.NewExecutor()

	first := executor.Execute(context.Background(), s, mintRequest(t))
	assert.False(t, first.Success)
	assert.Equal(t, benchmark.FailureSubmitError, first.Failure)
	assert.Contains(t, first.Error, "estimate gas")

	for i := 0; i < 2; i++ {
		outcome := executor.Execute(context.Background(), s, mintRequest(t))
		assert.True(t, outcome.Success, outcome.Error)
	}

	assert.Equal(t, []uint64{7, 8}, backend.sentNonces())
}

func TestRPCSubmitter_FailedSubmitBehindInFlightNoncesIsFilled(t *testing.T) {
	backend := &fakeBackend{chainID: 42161, pending: 7, estimateFailures: 1, status: types.ReceiptStatusSuccessful}
	s := newTestRPCSubmitter(t, backend, RPCOptions{ChainID: 42161})
	ctx := context.Background()

	var slots []benchmark.Slot
	for i := 0; i < 3; i++ {
		slot, err := s.AcquireSlot(ctx)
		require.NoError(t, err)
		slots = append(slots, slot)
	}

	_, err := s.Submit(ctx, slots[0], mintRequest(t))
	require.ErrorContains(t, err, "estimate gas")
	for _, slot := range slots[1:] {
		_, err := s.Submit(ctx, slot, mintRequest(t))
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []uint64{7, 8, 9}, backend.sentNonces())

	backend.mu.Lock()
	filler := backend.sent[0]
	backend.mu.Unlock()
	assert.Equal(t, uint64(7), filler.Nonce())
	assert.Equal(t, s.From(), *filler.To())
	assert.Zero(t, filler.Value().Sign())
}

func TestRPCSubmitter_UnfilledNonceIsReissued(t *testing.T) {
	backend := &fakeBackend{chainID: 42161, pending: 7, estimateFailures: 1, sendFailures: 3, status: types.ReceiptStatusSuccessful}
	s := newTestRPCSubmitter(t, backend, RPCOptions{ChainID: 42161})
	ctx := context.Background()

	low, err := s.AcquireSlot(ctx)
	require.NoError(t, err)
	high, err := s.AcquireSlot(ctx)
	require.NoError(t, err)

	_, err = s.Submit(ctx, low, mintRequest(t))
	require.Error(t, err)
	_, err = s.Submit(ctx, high, mintRequest(t))
	require.NoError(t, err)

	reissued, err := s.AcquireSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, low.Nonce, reissued.Nonce)

	_, err = s.Submit(ctx, reissued, mintRequest(t))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{7, 8}, backend.sentNonces())

	next, err := s.AcquireSlot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), next.Nonce)
}
