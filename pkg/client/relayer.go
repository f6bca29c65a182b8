package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/0xsequence/tps-reporter/pkg/constant"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/messaging"
	"github.com/0xsequence/tps-reporter/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const (
	nonceSpaceBytes       = 20
	defaultRequestTimeout = 30 * time.Second
)

var ErrRelayRejected = errors.New("relayer rejected request")

type RelayerOptions struct {
	Chain          string
	AccessKey      string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
}

// RelayerSubmitter sends signed meta transactions to a relayer over NATS
// request/reply. Every slot is a fresh random nonce space so operations never
// queue behind each other.
type RelayerSubmitter struct {
	requester messaging.Requester
	key       *ecdsa.PrivateKey
	wallet    common.Address
	opts      RelayerOptions
}

var _ benchmark.Submitter = (*RelayerSubmitter)(nil)

func NewRelayerSubmitter(requester messaging.Requester, key *ecdsa.PrivateKey, opts RelayerOptions) *RelayerSubmitter {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	wallet := crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("Using wallet", "address", wallet.Hex(), "chain", opts.Chain)

	return &RelayerSubmitter{
		requester: requester,
		key:       key,
		wallet:    wallet,
		opts:      opts,
	}
}

func (s *RelayerSubmitter) AcquireSlot(ctx context.Context) (benchmark.Slot, error) {
	space := make([]byte, nonceSpaceBytes)
	if _, err := rand.Read(space); err != nil {
		return benchmark.Slot{}, fmt.Errorf("generate nonce space: %w", err)
	}
	return benchmark.Slot{Space: hexutil.Encode(space), Nonce: 0}, nil
}

func (s *RelayerSubmitter) Submit(ctx context.Context, slot benchmark.Slot, req benchmark.OperationRequest) (benchmark.Handle, error) {
	msg := &types.RelayRequest{
		RequestID:  uuid.NewString(),
		AccessKey:  s.opts.AccessKey,
		Chain:      s.opts.Chain,
		Wallet:     s.wallet.Hex(),
		NonceSpace: slot.Space,
		Nonce:      slot.Nonce,
		To:         req.Destination,
		Data:       req.Payload,
	}
	signature, err := types.Sign(msg, s.key)
	if err != nil {
		return benchmark.Handle{}, err
	}
	msg.Signature = signature

	var accepted types.RelayAccepted
	if err := s.request(ctx, constant.FormatRelaySendTopic(s.opts.Chain), msg, &accepted); err != nil {
		return benchmark.Handle{}, err
	}
	if accepted.ErrorCode != types.ErrorCodeNone {
		return benchmark.Handle{}, fmt.Errorf("%w: %s: %s", ErrRelayRejected, accepted.ErrorCode, accepted.ErrorReason)
	}
	if accepted.TxHash == "" {
		return benchmark.Handle{}, fmt.Errorf("%w: empty transaction hash", ErrRelayRejected)
	}
	return benchmark.Handle{ReferenceID: accepted.TxHash, Slot: slot}, nil
}

// Confirm polls the relayer until the transaction leaves the pending state. A mined
// status without a receipt yields a nil receipt.
func (s *RelayerSubmitter) Confirm(ctx context.Context, handle benchmark.Handle) (*benchmark.Receipt, error) {
	if s.opts.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ConfirmTimeout)
		defer cancel()
	}

	query := types.RelayStatusRequest{Chain: s.opts.Chain, TxHash: handle.ReferenceID}
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		var status *types.RelayStatus
		if err := s.request(ctx, constant.FormatRelayStatusTopic(s.opts.Chain), query, &status); err != nil {
			return nil, err
		}
		if status == nil {
			return nil, nil
		}

		switch status.State {
		case types.RelayStateMined:
			if status.Receipt == nil {
				return nil, nil
			}
			return &benchmark.Receipt{
				Success:  status.Receipt.Status == 1,
				Status:   status.Receipt.Status,
				CostUsed: status.Receipt.GasUsed,
			}, nil
		case types.RelayStateFailed:
			return nil, fmt.Errorf("relayer failed %s: %s: %s", handle.ReferenceID, status.ErrorCode, status.ErrorReason)
		case types.RelayStatePending:
		default:
			return nil, fmt.Errorf("unknown relay state %q for %s", status.State, handle.ReferenceID)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for %s: %w", handle.ReferenceID, context.Cause(ctx))
		case <-ticker.C:
		}
	}
}

func (s *RelayerSubmitter) request(ctx context.Context, topic string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", topic, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	reply, err := s.requester.Request(reqCtx, topic, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(reply, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", topic, err)
	}
	return nil
}
