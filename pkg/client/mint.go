package client

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc1155MintABI = `[{
	"type": "function",
	"name": "mint",
	"stateMutability": "nonpayable",
	"inputs": [
		{"name": "to", "type": "address"},
		{"name": "tokenId", "type": "uint256"},
		{"name": "amount", "type": "uint256"},
		{"name": "data", "type": "bytes"}
	],
	"outputs": []
}]`

// Defaults for the benchmark mint call.
var (
	DefaultTokenID  = big.NewInt(1)
	DefaultAmount   = big.NewInt(1)
	DefaultMintData = []byte{0x00}
)

var mintABI = mustParseABI(erc1155MintABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

// MintPayload encodes mint(address,uint256,uint256,bytes) calldata.
func MintPayload(to common.Address, tokenID, amount *big.Int, data []byte) ([]byte, error) {
	payload, err := mintABI.Pack("mint", to, tokenID, amount, data)
	if err != nil {
		return nil, fmt.Errorf("encode mint call: %w", err)
	}
	return payload, nil
}

// DefaultMintPayload mints one unit of token 1 to the target.
func DefaultMintPayload(to common.Address) ([]byte, error) {
	return MintPayload(to, DefaultTokenID, DefaultAmount, DefaultMintData)
}
