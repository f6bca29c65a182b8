package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/chain"
	"github.com/0xsequence/tps-reporter/pkg/client"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/runner"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:        "tps-benchmark",
		Usage:       "Benchmark ERC-1155 mint throughput",
		Description: "Fire a concurrent batch of mint transactions and report throughput, latency and gas",
		Action:      runBenchmark,
		Commands: []*cli.Command{
			singleCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "chain",
				Aliases:  []string{"c"},
				Usage:    "Chain to benchmark: " + strings.Join(chain.Names(), ", "),
				Value:    chain.DefaultChain,
				Category: "benchmark",
			},
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Usage:    "Address receiving the minted tokens",
				Value:    chain.DefaultTarget,
				Category: "benchmark",
			},
			&cli.IntFlag{
				Name:     "txns",
				Aliases:  []string{"n"},
				Usage:    "Number of transactions to send",
				Value:    chain.DefaultTxns,
				Category: "benchmark",
			},
			&cli.StringFlag{
				Name:     "contract",
				Usage:    "ERC-1155 contract override for the selected chain",
				Category: "benchmark",
			},
			&cli.StringFlag{
				Name:     "submitter",
				Usage:    "Submission backend: rpc or relayer",
				Value:    config.SubmitterRPC,
				Category: "connection",
			},
			&cli.StringFlag{
				Name:     "rpc-url",
				Usage:    "JSON-RPC endpoint",
				Value:    "http://localhost:8545",
				Sources:  cli.EnvVars("TPS_RPC_URL"),
				Category: "connection",
			},
			&cli.StringFlag{
				Name:     "nats-url",
				Usage:    "NATS server URL of the relayer",
				Value:    "nats://localhost:4222",
				Category: "connection",
			},
			&cli.StringFlag{
				Name:     "relayer-access-key",
				Usage:    "Access key presented to the relayer",
				Sources:  cli.EnvVars("TPS_RELAYER_ACCESS_KEY"),
				Category: "connection",
			},
			&cli.DurationFlag{
				Name:     "confirm-timeout",
				Usage:    "Maximum wait for a receipt (0 waits indefinitely)",
				Category: "connection",
			},
			&cli.StringFlag{
				Name:     "key-path",
				Usage:    "Path to the wallet key file (prompted when empty)",
				Category: "authentication",
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Password for an encrypted key (if needed)",
				Category: "authentication",
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Append results to this file",
				Category: "output",
			},
			&cli.StringFlag{
				Name:     "format",
				Usage:    "Report format: text, json or yaml",
				Value:    config.FormatText,
				Category: "output",
			},
			&cli.BoolFlag{
				Name:     "debug",
				Usage:    "Enable debug logging",
				Category: "output",
			},
		},
	}
}

func singleCommand() *cli.Command {
	return &cli.Command{
		Name:  "single",
		Usage: "Send one mint and print its outcome",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, cleanup, err := createRunner(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = r.RunSingle(ctx)
			return err
		},
	}
}

func runBenchmark(ctx context.Context, cmd *cli.Command) error {
	r, cleanup, err := createRunner(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = r.Run(ctx)
	return err
}

// configFromFlags builds the configuration for a flag-only invocation. Run
// history is not recorded.
func configFromFlags(cmd *cli.Command) (*config.Config, error) {
	cfg := &config.Config{
		Environment:         config.Development,
		Chain:               cmd.String("chain"),
		Target:              cmd.String("target"),
		Txns:                int(cmd.Int("txns")),
		Submitter:           cmd.String("submitter"),
		RelayerAccessKey:    cmd.String("relayer-access-key"),
		RPCURL:              cmd.String("rpc-url"),
		ConfirmTimeout:      cmd.Duration("confirm-timeout"),
		ReceiptPollInterval: defaultPollInterval,
		StorageType:         config.StorageTypeNone,
		OutputFile:          cmd.String("output"),
		OutputFormat:        cmd.String("format"),
		NATs:                &config.NATsConfig{URL: cmd.String("nats-url")},
	}
	if contract := cmd.String("contract"); contract != "" {
		cfg.SetContract(cfg.Chain, contract)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func createRunner(ctx context.Context, cmd *cli.Command) (*runner.Runner, func(), error) {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.Environment, cmd.Bool("debug"))

	key, err := client.LoadPrivateKey(client.KeySource{
		Path:       cmd.String("key-path"),
		Passphrase: cmd.String("password"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load wallet key: %w", err)
	}

	return runner.Setup(ctx, cfg, key)
}

const defaultPollInterval = time.Second
