// models/chains.go
package models

import (
	"fmt"
	"sort"
)

// ChainInfo describes one blockchain the service can mint on. StablecoinAddress
// is the canonical USDC contract on that chain, used for balance checks when a
// request opts into stablecoin-funded minting.
type ChainInfo struct {
	Name              string
	Testnet           bool
	NativeSymbol      string
	StablecoinSymbol  string
	StablecoinAddress string
}

// SupportedChains is keyed by the provider's blockchain identifier.
var SupportedChains = map[string]ChainInfo{
	"ETH-SEPOLIA": {
		Name:              "ETH-SEPOLIA",
		Testnet:           true,
		NativeSymbol:      "ETH",
		StablecoinSymbol:  "USDC",
		StablecoinAddress: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
	},
	"ETH": {
		Name:              "ETH",
		NativeSymbol:      "ETH",
		StablecoinSymbol:  "USDC",
		StablecoinAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
	},
	"MATIC-AMOY": {
		Name:              "MATIC-AMOY",
		Testnet:           true,
		NativeSymbol:      "POL",
		StablecoinSymbol:  "USDC",
		StablecoinAddress: "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
	},
	"MATIC": {
		Name:              "MATIC",
		NativeSymbol:      "POL",
		StablecoinSymbol:  "USDC",
		StablecoinAddress: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
	},
	"ARB-SEPOLIA": {
		Name:              "ARB-SEPOLIA",
		Testnet:           true,
		NativeSymbol:      "ETH",
		StablecoinSymbol:  "USDC",
		StablecoinAddress: "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d",
	},
	"ARB": {
		Name:              "ARB",
		NativeSymbol:      "ETH",
		StablecoinSymbol:  "USDC",
		StablecoinAddress: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
	},
}

// ChainByName resolves a blockchain identifier or returns ErrUnsupportedChain.
func ChainByName(name string) (ChainInfo, error) {
	info, ok := SupportedChains[name]
	if !ok {
		return ChainInfo{}, fmt.Errorf("blockchain %q: %w", name, ErrUnsupportedChain)
	}
	return info, nil
}

// ChainNames returns the supported identifiers sorted, for error messages
// and the health endpoint.
func ChainNames() []string {
	names := make([]string, 0, len(SupportedChains))
	for name := range SupportedChains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
