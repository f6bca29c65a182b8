package main

import (
	"fmt"
	"os"

	"github.com/0xsequence/tps-reporter/cmd/cli/wallet"
	"github.com/0xsequence/tps-reporter/pkg/config"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	// Version information
	VERSION = "0.1.0"
)

var (
	configFile string
	debug      bool
)

func main() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSingleCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(wallet.NewWalletCmd())
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tps-cli",
	Short:        "TPS reporter",
	Long:         "Measure ERC-1155 mint throughput and latency on EVM chains",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display detailed version information",
	Long:  "Display detailed version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tps-cli version %s\n", VERSION)
	},
}

// loadConfig reads the config file and environment, applies overrides from
// flags, then validates the merged result.
func loadConfig(overrides func(cfg *config.Config)) (*config.Config, error) {
	config.SetEnvConfigPath(configFile)
	if _, err := config.Load(); err != nil {
		return nil, err
	}
	if overrides != nil {
		config.Update(overrides)
	}

	cfg := config.GetConfig()
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	logger.Init(cfg.Environment, debug)
	return cfg, nil
}
