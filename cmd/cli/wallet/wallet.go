package wallet

import (
	"github.com/spf13/cobra"
)

const DefaultKeyFile = "benchmark_wallet.key"

// NewWalletCmd creates the benchmark wallet command group
func NewWalletCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "wallet",
		Short: "Benchmark wallet commands",
		Long:  "Commands for creating and inspecting the EOA wallet that signs benchmark transactions",
	}

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newAddressCmd())

	return cmd
}
