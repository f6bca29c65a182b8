package chain

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultChain  = "arbitrum"
	DefaultTarget = "0xa2A7cD4302836767D194e2321E34B834494e0a28"
	DefaultTxns   = 100
)

var ErrUnknownChain = errors.New("unknown chain")

// Chain is a supported benchmark network.
type Chain struct {
	Name string
	ID   uint64
	// Contract is the default ERC-1155 mint contract. Empty when none is deployed.
	Contract string
}

var chains = map[string]Chain{
	"mainnet":       {Name: "mainnet", ID: 1},
	"polygon":       {Name: "polygon", ID: 137},
	"polygon-zkevm": {Name: "polygon-zkevm", ID: 1101},
	"arbitrum":      {Name: "arbitrum", ID: 42161, Contract: "0x5f87ca3003ec99ff76ec34c2837bc87178abfdeb"},
	"arbitrum-nova": {Name: "arbitrum-nova", ID: 42170},
	"optimism":      {Name: "optimism", ID: 10},
	"bsc":           {Name: "bsc", ID: 56},
	"avalanche":     {Name: "avalanche", ID: 43114},
	"base":          {Name: "base", ID: 8453},
}

// Lookup resolves a chain by its case-insensitive name.
func Lookup(name string) (Chain, error) {
	c, ok := chains[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Chain{}, fmt.Errorf("%w %q, must be one of: %s", ErrUnknownChain, name, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Names lists supported chains in a stable order.
func Names() []string {
	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolveContract picks the override when set, else the chain default, and checks
// that the result is a hex address.
func (c Chain) ResolveContract(override string) (common.Address, error) {
	addr := c.Contract
	if override != "" {
		addr = override
	}
	if addr == "" {
		return common.Address{}, fmt.Errorf("no mint contract configured for chain %s", c.Name)
	}
	return ParseAddress(addr)
}

// ParseAddress validates a hex encoded account address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
