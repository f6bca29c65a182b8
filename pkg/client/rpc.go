package client

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/avast/retry-go"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

const (
	defaultPollInterval = time.Second
	// gasHeadroom pads estimates, concurrent mints touch the same storage slots.
	gasHeadroomPercent = 20
	gapFillTimeout     = 30 * time.Second
)

// EthBackend is the subset of ethclient.Client the RPC submitter drives.
type EthBackend interface {
	NonceReader
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type RPCOptions struct {
	// ChainID is checked against the node when set.
	ChainID        uint64
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

// RPCSubmitter signs EIP-1559 transactions locally and sends them to a JSON-RPC node.
type RPCSubmitter struct {
	backend EthBackend
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
	chainID *big.Int
	nonces  *NonceAllocator

	gasTipCap *big.Int
	gasFeeCap *big.Int

	pollInterval   time.Duration
	confirmTimeout time.Duration
}

var _ benchmark.Submitter = (*RPCSubmitter)(nil)

// NewRPCSubmitter resolves the chain id and fee caps once so every operation in a
// batch is priced the same.
func NewRPCSubmitter(ctx context.Context, backend EthBackend, key *ecdsa.PrivateKey, opts RPCOptions) (*RPCSubmitter, error) {
	var chainID *big.Int
	err := retry.Do(
		func() error {
			var err error
			chainID, err = backend.ChainID(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	if opts.ChainID != 0 && chainID.Uint64() != opts.ChainID {
		return nil, fmt.Errorf("rpc endpoint serves chain %s, expected %d", chainID, opts.ChainID)
	}

	tip, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip: %w", err)
	}
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	from := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("Using wallet", "address", from.Hex(), "chain_id", chainID)

	return &RPCSubmitter{
		backend:        backend,
		key:            key,
		from:           from,
		signer:         types.LatestSignerForChainID(chainID),
		chainID:        chainID,
		nonces:         NewNonceAllocator(backend, from),
		gasTipCap:      tip,
		gasFeeCap:      feeCap,
		pollInterval:   opts.PollInterval,
		confirmTimeout: opts.ConfirmTimeout,
	}, nil
}

func (s *RPCSubmitter) From() common.Address {
	return s.from
}

func (s *RPCSubmitter) AcquireSlot(ctx context.Context) (benchmark.Slot, error) {
	nonce, err := s.nonces.Next(ctx)
	if err != nil {
		return benchmark.Slot{}, err
	}
	return benchmark.Slot{Space: s.from.Hex(), Nonce: nonce}, nil
}

// Submit signs and sends req at the slot's nonce. When the transaction does not
// reach the node the nonce is given back so later transactions are not stuck
// behind it.
func (s *RPCSubmitter) Submit(ctx context.Context, slot benchmark.Slot, req benchmark.OperationRequest) (benchmark.Handle, error) {
	handle, err := s.submit(ctx, slot, req)
	if err != nil {
		s.abandon(ctx, slot.Nonce)
		return benchmark.Handle{}, err
	}
	return handle, nil
}

func (s *RPCSubmitter) submit(ctx context.Context, slot benchmark.Slot, req benchmark.OperationRequest) (benchmark.Handle, error) {
	if !common.IsHexAddress(req.Destination) {
		return benchmark.Handle{}, fmt.Errorf("invalid destination %q", req.Destination)
	}
	to := common.HexToAddress(req.Destination)

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      s.from,
		To:        &to,
		GasTipCap: s.gasTipCap,
		GasFeeCap: s.gasFeeCap,
		Data:      req.Payload,
	})
	if err != nil {
		return benchmark.Handle{}, fmt.Errorf("estimate gas: %w", err)
	}
	gas += gas * gasHeadroomPercent / 100

	tx, err := types.SignNewTx(s.key, s.signer, &types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     slot.Nonce,
		GasTipCap: s.gasTipCap,
		GasFeeCap: s.gasFeeCap,
		Gas:       gas,
		To:        &to,
		Data:      req.Payload,
	})
	if err != nil {
		return benchmark.Handle{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		return benchmark.Handle{}, fmt.Errorf("send transaction: %w", err)
	}
	return benchmark.Handle{ReferenceID: tx.Hash().Hex(), Slot: slot}, nil
}

// abandon frees a nonce whose transaction was never broadcast. The top nonce is
// simply rewound. A nonce with higher ones already in flight is filled with a
// zero value self transfer, and pooled for reuse if that fails too.
func (s *RPCSubmitter) abandon(ctx context.Context, nonce uint64) {
	if s.nonces.Rewind(nonce) {
		logger.Debug("Rewound unused nonce", "nonce", nonce)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gapFillTimeout)
	defer cancel()

	if err := s.fillGap(ctx, nonce); err != nil {
		logger.Warn("Failed to fill nonce gap, releasing nonce", "nonce", nonce, "error", err.Error())
		s.nonces.Release(nonce)
		return
	}
	logger.Info("Filled nonce gap", "nonce", nonce)
}

func (s *RPCSubmitter) fillGap(ctx context.Context, nonce uint64) error {
	tx, err := types.SignNewTx(s.key, s.signer, &types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: s.gasTipCap,
		GasFeeCap: s.gasFeeCap,
		Gas:       params.TxGas,
		To:        &s.from,
		Value:     new(big.Int),
	})
	if err != nil {
		return fmt.Errorf("sign gap filler: %w", err)
	}

	return retry.Do(
		func() error {
			return s.backend.SendTransaction(ctx, tx)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// Confirm polls for the receipt until it is mined or the confirm timeout expires.
func (s *RPCSubmitter) Confirm(ctx context.Context, handle benchmark.Handle) (*benchmark.Receipt, error) {
	if s.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.confirmTimeout)
		defer cancel()
	}

	hash := common.HexToHash(handle.ReferenceID)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt == nil {
				return nil, nil
			}
			return &benchmark.Receipt{
				Success:  receipt.Status == types.ReceiptStatusSuccessful,
				Status:   receipt.Status,
				CostUsed: receipt.GasUsed,
			}, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("fetch receipt %s: %w", handle.ReferenceID, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", handle.ReferenceID, context.Cause(ctx))
		case <-ticker.C:
		}
	}
}
