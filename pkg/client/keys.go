package client

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"github.com/0xsequence/tps-reporter/pkg/filesystem"
	"github.com/0xsequence/tps-reporter/pkg/logger"
	"github.com/0xsequence/tps-reporter/pkg/security"
	"github.com/ethereum/go-ethereum/crypto"
)

const ageHeader = "age-encryption.org/v1"

// KeySource describes where the signing key comes from. With no Path the key is
// read from the terminal.
type KeySource struct {
	Path string
	// Passphrase decrypts an age encrypted key file. Prompted for when empty.
	Passphrase string
}

// LoadPrivateKey resolves a secp256k1 signing key from a hex file, an age
// encrypted hex file, or a hidden terminal prompt.
func LoadPrivateKey(src KeySource) (*ecdsa.PrivateKey, error) {
	if src.Path == "" {
		secret, err := security.ReadSecret("Private key for EOA wallet: ")
		if err != nil {
			return nil, err
		}
		defer security.ZeroBytes(secret)
		return ParsePrivateKey(string(secret))
	}

	data, err := filesystem.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	defer security.ZeroBytes(data)

	if !bytes.HasPrefix(data, []byte(ageHeader)) {
		return ParsePrivateKey(string(data))
	}

	logger.Infof("Using age-encrypted private key %s", src.Path)
	passphrase := src.Passphrase
	if passphrase == "" {
		secret, err := security.ReadSecret("Enter passphrase to decrypt private key: ")
		if err != nil {
			return nil, err
		}
		passphrase = string(secret)
		security.ZeroBytes(secret)
	}
	defer security.ZeroString(&passphrase)

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity for decryption: %w", err)
	}
	decrypter, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}
	plain, err := io.ReadAll(decrypter)
	if err != nil {
		return nil, fmt.Errorf("failed to read decrypted key: %w", err)
	}
	defer security.ZeroBytes(plain)

	return ParsePrivateKey(string(plain))
}

// ParsePrivateKey accepts a hex key with or without 0x prefix.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, errors.New("private key is empty")
	}
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// WriteKeyFile stores key as hex at path. A non-empty passphrase encrypts the file
// with age.
func WriteKeyFile(path string, key *ecdsa.PrivateKey, passphrase string, overwrite bool) error {
	if err := filesystem.ValidateFilePath(path); err != nil {
		return fmt.Errorf("invalid key file path: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("key file %s already exists. Use --overwrite to force", path)
	}
	if err := filesystem.EnsureParentDir(path); err != nil {
		return err
	}

	keyHex := []byte(fmt.Sprintf("%x", crypto.FromECDSA(key)))
	defer security.ZeroBytes(keyHex)

	if passphrase == "" {
		return os.WriteFile(path, keyHex, 0600)
	}

	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create encrypted key file: %w", err)
	}
	defer outFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create scrypt recipient: %w", err)
	}
	w, err := age.Encrypt(outFile, recipient)
	if err != nil {
		return fmt.Errorf("failed to create age encryption writer: %w", err)
	}
	if _, err := w.Write(keyHex); err != nil {
		return fmt.Errorf("failed to write encrypted key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize age encryption: %w", err)
	}
	return nil
}
