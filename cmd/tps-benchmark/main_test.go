package main

import (
	"context"
	"testing"
	"time"

	"github.com/0xsequence/tps-reporter/pkg/chain"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parseFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	var (
		cfg    *config.Config
		cfgErr error
	)
	app := newApp()
	app.Action = func(ctx context.Context, cmd *cli.Command) error {
		cfg, cfgErr = configFromFlags(cmd)
		return nil
	}
	require.NoError(t, app.Run(context.Background(), append([]string{"tps-benchmark"}, args...)))
	return cfg, cfgErr
}

func TestConfigFromFlags_Defaults(t *testing.T) {
	cfg, err := parseFlags(t)
	require.NoError(t, err)

	assert.Equal(t, chain.DefaultChain, cfg.Chain)
	assert.Equal(t, chain.DefaultTarget, cfg.Target)
	assert.Equal(t, chain.DefaultTxns, cfg.Txns)
	assert.Equal(t, config.SubmitterRPC, cfg.Submitter)
	assert.Equal(t, config.StorageTypeNone, cfg.StorageType)
	assert.Equal(t, time.Second, cfg.ReceiptPollInterval)
	assert.Nil(t, cfg.Contracts)
}

func TestConfigFromFlags_Overrides(t *testing.T) {
	cfg, err := parseFlags(t,
		"--chain", "base",
		"-n", "25",
		"--contract", "0x1111111111111111111111111111111111111111",
		"--submitter", "relayer",
		"--confirm-timeout", "2m",
		"--format", "yaml",
	)
	require.NoError(t, err)

	assert.Equal(t, "base", cfg.Chain)
	assert.Equal(t, 25, cfg.Txns)
	assert.Equal(t, config.SubmitterRelayer, cfg.Submitter)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmTimeout)
	assert.Equal(t, config.FormatYAML, cfg.OutputFormat)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Contracts["base"])
}

func TestConfigFromFlags_ContractOverrideWithMixedCaseChain(t *testing.T) {
	cfg, err := parseFlags(t,
		"--chain", "Polygon",
		"--contract", "0x1111111111111111111111111111111111111111",
	)
	require.NoError(t, err)

	c, err := chain.Lookup(cfg.Chain)
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.ContractFor(c.Name))
}

func TestConfigFromFlags_Invalid(t *testing.T) {
	_, err := parseFlags(t, "-n", "0")
	assert.ErrorContains(t, err, "txns must be at least 1")

	_, err = parseFlags(t, "--format", "csv")
	assert.ErrorContains(t, err, "invalid output_format")
}
