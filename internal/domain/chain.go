package domain

import (
	"sort"
	"strings"
)

// Chain describes a supported EVM network.
type Chain struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	ChainID        uint64 `json:"chain_id"`
	Explorer       string `json:"explorer"`
	CoingeckoID    string `json:"coingecko_id"`
	NativeDecimals int    `json:"native_decimals"`
}

var chains = map[string]Chain{
	"ethereum": {
		Key:            "ethereum",
		Name:           "Ethereum",
		Symbol:         "ETH",
		ChainID:        1,
		Explorer:       "https://etherscan.io",
		CoingeckoID:    "ethereum",
		NativeDecimals: 18,
	},
	"bsc": {
		Key:            "bsc",
		Name:           "BNB Chain",
		Symbol:         "BNB",
		ChainID:        56,
		Explorer:       "https://bscscan.com",
		CoingeckoID:    "binancecoin",
		NativeDecimals: 18,
	},
	"polygon": {
		Key:            "polygon",
		Name:           "Polygon",
		Symbol:         "MATIC",
		ChainID:        137,
		Explorer:       "https://polygonscan.com",
		CoingeckoID:    "matic-network",
		NativeDecimals: 18,
	},
}

// LookupChain finds a chain by key, case-insensitively.
func LookupChain(key string) (Chain, bool) {
	chain, ok := chains[strings.ToLower(strings.TrimSpace(key))]
	return chain, ok
}

// LookupChainID finds a chain by its numeric id.
func LookupChainID(id uint64) (Chain, bool) {
	for _, chain := range chains {
		if chain.ChainID == id {
			return chain, true
		}
	}
	return Chain{}, false
}

// SupportedChains returns all chains ordered by chain id.
func SupportedChains() []Chain {
	list := make([]Chain, 0, len(chains))
	for _, chain := range chains {
		list = append(list, chain)
	}
	sort.Slice(list, func(a, b int) bool {
		return list[a].ChainID < list[b].ChainID
	})
	return list
}

// ExplorerTxURL links a transaction hash on the chain's block explorer.
func (c Chain) ExplorerTxURL(hash string) string {
	return strings.TrimRight(c.Explorer, "/") + "/tx/" + hash
}
