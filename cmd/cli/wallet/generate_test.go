package wallet

import (
	"path/filepath"
	"testing"

	"github.com/0xsequence/tps-reporter/pkg/client"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWallet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "wallet.key")

	address, err := generateWallet(path, "", false)
	require.NoError(t, err)

	key, err := client.LoadPrivateKey(client.KeySource{Path: path})
	require.NoError(t, err)
	assert.Equal(t, address, crypto.PubkeyToAddress(key.PublicKey).Hex())

	_, err = generateWallet(path, "", false)
	assert.ErrorContains(t, err, "already exists")

	second, err := generateWallet(path, "", true)
	require.NoError(t, err)
	assert.NotEqual(t, address, second)
}

func TestGenerateWallet_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.key.age")

	address, err := generateWallet(path, "correct-horse-battery!", false)
	require.NoError(t, err)

	key, err := client.LoadPrivateKey(client.KeySource{Path: path, Passphrase: "correct-horse-battery!"})
	require.NoError(t, err)
	assert.Equal(t, address, crypto.PubkeyToAddress(key.PublicKey).Hex())
}
