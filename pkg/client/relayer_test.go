package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/0xsequence/tps-reporter/pkg/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequester struct {
	mu       sync.Mutex
	topics   []string
	requests [][]byte
	handler  func(topic string, data []byte) ([]byte, error)
}

func (f *fakeRequester) Request(ctx context.Context, topic string, data []byte) ([]byte, error) {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.requests = append(f.requests, data)
	f.mu.Unlock()
	return f.handler(topic, data)
}

func newTestRelayer(t *testing.T, handler func(topic string, data []byte) ([]byte, error)) (*RelayerSubmitter, *fakeRequester) {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	requester := &fakeRequester{handler: handler}
	s := NewRelayerSubmitter(requester, key, RelayerOptions{
		Chain:        "arbitrum",
		AccessKey:    "builder-key",
		PollInterval: time.Millisecond,
	})
	return s, requester
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestRelayerSubmitter_AcquireSlot(t *testing.T) {
	s, _ := newTestRelayer(t, nil)

	first, err := s.AcquireSlot(context.Background())
	require.NoError(t, err)
	second, err := s.AcquireSlot(context.Background())
	require.NoError(t, err)

	assert.Len(t, first.Space, 2+2*nonceSpaceBytes)
	assert.NotEqual(t, first.Space, second.Space)
	assert.Zero(t, first.Nonce)
}

func TestRelayerSubmitter_SubmitSignsRequest(t *testing.T) {
	s, requester := newTestRelayer(t, func(topic string, data []byte) ([]byte, error) {
		var req types.RelayRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		return json.Marshal(types.RelayAccepted{RequestID: req.RequestID, TxHash: "0xfeed"})
	})

	slot, err := s.AcquireSlot(context.Background())
	require.NoError(t, err)
	handle, err := s.Submit(context.Background(), slot, benchmark.OperationRequest{
		Destination: "0x5f87ca3003ec99ff76ec34c2837bc87178abfdeb",
		Payload:     []byte{0xde, 0xad},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", handle.ReferenceID)
	assert.Equal(t, slot, handle.Slot)

	require.Len(t, requester.topics, 1)
	assert.Equal(t, "relayer.send.arbitrum", requester.topics[0])

	var sent types.RelayRequest
	require.NoError(t, json.Unmarshal(requester.requests[0], &sent))
	assert.Equal(t, slot.Space, sent.NonceSpace)
	assert.Equal(t, "builder-key", sent.AccessKey)
	assert.Equal(t, []byte{0xde, 0xad}, sent.Data)

	signer, err := types.Recover(&sent)
	require.NoError(t, err)
	assert.Equal(t, s.wallet, signer)
}

func TestRelayerSubmitter_SubmitRejected(t *testing.T) {
	s, _ := newTestRelayer(t, func(topic string, data []byte) ([]byte, error) {
		return json.Marshal(types.RelayAccepted{ErrorCode: types.ErrorCodeQuotaExceeded, ErrorReason: "slow down"})
	})

	_, err := s.Submit(context.Background(), benchmark.Slot{}, benchmark.OperationRequest{})
	assert.ErrorIs(t, err, ErrRelayRejected)
	assert.ErrorContains(t, err, "slow down")
}

func TestRelayerSubmitter_Confirm(t *testing.T) {
	tests := []struct {
		name        string
		replies     []string
		wantReceipt *benchmark.Receipt
		wantErr     string
	}{
		{
			name:        "mined after pending",
			replies:     []string{`{"state":"pending"}`, `{"state":"mined","receipt":{"status":1,"gas_used":21000}}`},
			wantReceipt: &benchmark.Receipt{Success: true, Status: 1, CostUsed: 21000},
		},
		{
			name:        "reverted",
			replies:     []string{`{"state":"mined","receipt":{"status":0,"gas_used":30000}}`},
			wantReceipt: &benchmark.Receipt{Success: false, Status: 0, CostUsed: 30000},
		},
		{name: "null body", replies: []string{`null`}},
		{name: "mined without receipt", replies: []string{`{"state":"mined","receipt":null}`}},
		{
			name:    "failed",
			replies: []string{`{"state":"failed","error_code":"internal","error_reason":"dropped"}`},
			wantErr: "dropped",
		},
		{name: "unknown state", replies: []string{`{"state":"lost"}`}, wantErr: "unknown relay state"},
		{name: "garbage", replies: []string{`<html>`}, wantErr: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := tt.replies
			s, requester := newTestRelayer(t, func(topic string, data []byte) ([]byte, error) {
				next := replies[0]
				if len(replies) > 1 {
					replies = replies[1:]
				}
				return []byte(next), nil
			})

			receipt, err := s.Confirm(context.Background(), benchmark.Handle{ReferenceID: "0xfeed"})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantReceipt, receipt)
			assert.Equal(t, "relayer.status.arbitrum", requester.topics[0])
		})
	}
}

func TestRelayerSubmitter_TransportError(t *testing.T) {
	s, _ := newTestRelayer(t, func(topic string, data []byte) ([]byte, error) {
		return nil, errors.New("nats: timeout")
	})

	_, err := s.Submit(context.Background(), benchmark.Slot{}, benchmark.OperationRequest{})
	assert.ErrorContains(t, err, "nats: timeout")

	_, err = s.Confirm(context.Background(), benchmark.Handle{ReferenceID: "0x1"})
	assert.ErrorContains(t, err, "nats: timeout")
}

func TestRelayerSubmitter_OutcomesThroughExecutor(t *testing.T) {
	s, _ := newTestRelayer(t, func(topic string, data []byte) ([]byte, error) {
		if topic == "relayer.send.arbitrum" {
			return []byte(`{"tx_hash":"0xfeed"}`), nil
		}
		return []byte(`null`), nil
	})

	outcome := benchmark.NewExecutor().Execute(context.Background(), s, benchmark.OperationRequest{})
	assert.False(t, outcome.Success)
	assert.Equal(t, benchmark.FailureAmbiguousConfirmation, outcome.Failure)
	assert.Equal(t, "0xfeed", outcome.ReferenceID)
}
