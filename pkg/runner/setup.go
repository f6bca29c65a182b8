package runner

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/0xsequence/tps-reporter/pkg/benchmark"
	"github.com/0xsequence/tps-reporter/pkg/chain"
	"github.com/0xsequence/tps-reporter/pkg/client"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/constant"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/messaging"
	"github.com/0xsequence/tps-reporter/pkg/storage"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/nats-io/nats.go"
)

// Setup builds a Runner from configuration: it dials the submitter backend, opens
// the run store and, when enabled, the JetStream run queue. The returned cleanup
// releases every connection.
func Setup(ctx context.Context, cfg *config.Config, key *ecdsa.PrivateKey, options ...Option) (*Runner, func(), error) {
	c, err := chain.Lookup(cfg.Chain)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	submitter, closeSubmitter, err := NewSubmitter(ctx, cfg, c, key)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeSubmitter)

	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	runs := storage.NewRunStore(store)
	closers = append(closers, func() {
		if err := runs.Close(); err != nil {
			logger.Error("Failed to close run store", err)
		}
	})
	options = append([]Option{WithRunStore(runs)}, options...)

	if cfg.NATs != nil && cfg.NATs.PublishRuns {
		nc, err := messaging.Connect(cfg.NATs, cfg.Environment)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, nc.Close)
		queue, err := messaging.NewJetStreamQueue(ctx, nc, constant.RunStreamName, []string{constant.RunCompletedTopic})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		options = append(options, WithQueue(queue))
	}

	r, err := New(Options{
		Chain:         c.Name,
		Target:        cfg.Target,
		Contract:      cfg.ContractFor(c.Name),
		Txns:          cfg.Txns,
		SubmitterMode: cfg.Submitter,
		Wallet:        crypto.PubkeyToAddress(key.PublicKey).Hex(),
		OutputFile:    cfg.OutputFile,
		Format:        cfg.OutputFormat,
	}, submitter, options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return r, cleanup, nil
}

// NewSubmitter dials the backend selected by cfg.Submitter.
func NewSubmitter(ctx context.Context, cfg *config.Config, c chain.Chain, key *ecdsa.PrivateKey) (benchmark.Submitter, func(), error) {
	switch cfg.Submitter {
	case config.SubmitterRPC, "":
		ec, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			return nil, nil, fmt.Errorf("dial rpc %s: %w", cfg.RPCURL, err)
		}
		s, err := client.NewRPCSubmitter(ctx, ec, key, client.RPCOptions{
			ChainID:        c.ID,
			PollInterval:   cfg.ReceiptPollInterval,
			ConfirmTimeout: cfg.ConfirmTimeout,
		})
		if err != nil {
			ec.Close()
			return nil, nil, err
		}
		return s, ec.Close, nil

	case config.SubmitterRelayer:
		nc, err := messaging.Connect(cfg.NATs, cfg.Environment)
		if err != nil {
			return nil, nil, err
		}
		s := client.NewRelayerSubmitter(messaging.NewRequester(nc), key, client.RelayerOptions{
			Chain:          c.Name,
			AccessKey:      cfg.RelayerAccessKey,
			PollInterval:   cfg.ReceiptPollInterval,
			ConfirmTimeout: cfg.ConfirmTimeout,
		})
		return s, drain(nc), nil

	default:
		return nil, nil, fmt.Errorf("unsupported submitter %q", cfg.Submitter)
	}
}

func drain(nc *nats.Conn) func() {
	return func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
}
