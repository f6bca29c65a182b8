package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/client"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type runFlags struct {
	chain          string
	target         string
	contract       string
	txns           int
	submitter      string
	rpcURL         string
	confirmTimeout time.Duration
	keyPath        string
	passphrase     string
	output         string
	format         string
}

func (f *runFlags) register(flags *pflag.FlagSet, batch bool) {
	flags.StringVarP(&f.chain, "chain", "c", "", "Chain to benchmark (arbitrum, polygon, base, ...)")
	flags.StringVarP(&f.target, "target", "t", "", "Address receiving the minted tokens")
	flags.StringVar(&f.contract, "contract", "", "ERC-1155 contract override for the selected chain")
	flags.StringVar(&f.submitter, "submitter", "", "Submission backend: rpc or relayer")
	flags.StringVar(&f.rpcURL, "rpc-url", "", "JSON-RPC endpoint used by the rpc submitter")
	flags.DurationVar(&f.confirmTimeout, "confirm-timeout", 0, "Maximum wait for a receipt (0 waits indefinitely)")
	flags.StringVarP(&f.keyPath, "key-path", "k", "", "Path to the wallet key file (prompted when empty)")
	flags.StringVar(&f.passphrase, "passphrase", "", "Passphrase for an Age-encrypted key file")
	if batch {
		flags.IntVarP(&f.txns, "txns", "n", 0, "Number of transactions to send")
		flags.StringVarP(&f.output, "output", "o", "", "Append results to this file")
		flags.StringVar(&f.format, "format", "", "Report format: text, json or yaml")
	}
}

// apply copies explicitly set flags over the loaded configuration.
func (f *runFlags) apply(flags *pflag.FlagSet) func(cfg *config.Config) {
	return func(cfg *config.Config) {
		if flags.Changed("chain") {
			cfg.Chain = f.chain
		}
		if flags.Changed("target") {
			cfg.Target = f.target
		}
		if flags.Changed("contract") {
			cfg.SetContract(cfg.Chain, f.contract)
		}
		if flags.Changed("txns") {
			cfg.Txns = f.txns
		}
		if flags.Changed("submitter") {
			cfg.Submitter = f.submitter
		}
		if flags.Changed("rpc-url") {
			cfg.RPCURL = f.rpcURL
		}
		if flags.Changed("confirm-timeout") {
			cfg.ConfirmTimeout = f.confirmTimeout
		}
		if flags.Changed("output") {
			cfg.OutputFile = f.output
		}
		if flags.Changed("format") {
			cfg.OutputFormat = f.format
		}
	}
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	var cmd = &cobra.Command{
		Use:   "run",
		Short: "Fire a concurrent batch of mints and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cleanup, ctx, cancel, err := setupRunner(cmd, f)
			if err != nil {
				return err
			}
			defer cancel()
			defer cleanup()

			_, err = r.Run(ctx)
			return err
		},
	}
	f.register(cmd.Flags(), true)
	return cmd
}

func newSingleCmd() *cobra.Command {
	f := &runFlags{}
	var cmd = &cobra.Command{
		Use:   "single",
		Short: "Send one mint and print its outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cleanup, ctx, cancel, err := setupRunner(cmd, f)
			if err != nil {
				return err
			}
			defer cancel()
			defer cleanup()

			_, err = r.RunSingle(ctx)
			return err
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func setupRunner(cmd *cobra.Command, f *runFlags) (*runner.Runner, func(), context.Context, context.CancelFunc, error) {
	cfg, err := loadConfig(f.apply(cmd.Flags()))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	key, err := client.LoadPrivateKey(client.KeySource{Path: f.keyPath, Passphrase: f.passphrase})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	r, cleanup, err := runner.Setup(ctx, cfg, key)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, err
	}
	return r, cleanup, ctx, cancel, nil
}
