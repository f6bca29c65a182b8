package wallet

import (
	"fmt"

	"github.com/0xsequence/tps-reporter/cmd/cli/utils"
	"github.com/0xsequence/tps-reporter/pkg/client"
	"github.com/0xsequence/tps-reporter/pkg/filesystem"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		outputDir string
		fileName  string
		encrypt   bool
		overwrite bool
	)

	var cmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a benchmark wallet key, optionally Age-encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			var passphrase string
			if encrypt {
				var err error
				passphrase, err = utils.RequestPassword()
				if err != nil {
					return err
				}
			} else {
				fmt.Println("WARNING: Private key will NOT be encrypted. This is not recommended for funded wallets.")
				fmt.Println("Use --encrypt flag to enable encryption.")
			}

			outputPath, err := filesystem.SafePath(outputDir, fileName)
			if err != nil {
				return err
			}
			address, err := generateWallet(outputPath, passphrase, overwrite)
			if err != nil {
				return err
			}
			fmt.Printf("Generated wallet %s: %s\n", address, outputPath)
			fmt.Println("Fund this address with native gas before running a benchmark.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for the key file")
	cmd.Flags().StringVar(&fileName, "name", DefaultKeyFile, "Key file name")
	cmd.Flags().BoolVarP(&encrypt, "encrypt", "e", false, "Encrypt private key with Age (recommended)")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "f", false, "Overwrite the key file if it already exists")

	return cmd
}

func generateWallet(path, passphrase string, overwrite bool) (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	if err := client.WriteKeyFile(path, key, passphrase, overwrite); err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func newAddressCmd() *cobra.Command {
	var (
		keyPath    string
		passphrase string
	)

	var cmd = &cobra.Command{
		Use:   "address",
		Short: "Print the address of a wallet key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := client.LoadPrivateKey(client.KeySource{Path: keyPath, Passphrase: passphrase})
			if err != nil {
				return err
			}
			fmt.Println(crypto.PubkeyToAddress(key.PublicKey).Hex())
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyPath, "key-path", "k", DefaultKeyFile, "Path to the wallet key file")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase for an encrypted key (prompted when empty)")

	return cmd
}
