package types

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignedMessage is anything that carries a payload to verify and its signature.
type SignedMessage interface {
	// Raw returns the canonical byte slice that was signed.
	Raw() ([]byte, error)
	// Sig returns the signature over Raw().
	Sig() []byte
}

// Sign computes a recoverable secp256k1 signature over keccak256(msg.Raw()).
func Sign(msg SignedMessage, key *ecdsa.PrivateKey) ([]byte, error) {
	raw, err := msg.Raw()
	if err != nil {
		return nil, fmt.Errorf("raw payload error: %w", err)
	}
	sig, err := crypto.Sign(crypto.Keccak256(raw), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

// Recover returns the address that produced msg.Sig().
func Recover(msg SignedMessage) (common.Address, error) {
	raw, err := msg.Raw()
	if err != nil {
		return common.Address{}, fmt.Errorf("raw payload error: %w", err)
	}
	pub, err := crypto.SigToPub(crypto.Keccak256(raw), msg.Sig())
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
