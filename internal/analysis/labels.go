package analysis

import (
	"strings"
	"sync"
)

// LabelBook maps well-known addresses to display names. It also carries the
// router and marketplace sets used by the categorizer. A LabelBook is never
// mutated after construction, so it can be shared freely.
type LabelBook struct {
	labels       map[string]string
	routers      map[string]struct{}
	marketplaces map[string]struct{}
}

// NewLabelBook copies the given tables, normalizing every address to lowercase.
func NewLabelBook(labels map[string]string, routers, marketplaces []string) *LabelBook {
	book := &LabelBook{
		labels:       make(map[string]string, len(labels)),
		routers:      make(map[string]struct{}, len(routers)),
		marketplaces: make(map[string]struct{}, len(marketplaces)),
	}
	for address, name := range labels {
		book.labels[normalizeAddress(address)] = name
	}
	for _, address := range routers {
		book.routers[normalizeAddress(address)] = struct{}{}
	}
	for _, address := range marketplaces {
		book.marketplaces[normalizeAddress(address)] = struct{}{}
	}
	return book
}

// Resolve returns the display name for address, if known.
func (b *LabelBook) Resolve(address string) (string, bool) {
	if address == "" {
		return "", false
	}
	name, ok := b.labels[normalizeAddress(address)]
	return name, ok
}

// IsRouter reports whether address is a known DEX router.
func (b *LabelBook) IsRouter(address string) bool {
	if address == "" {
		return false
	}
	_, ok := b.routers[normalizeAddress(address)]
	return ok
}

// IsMarketplace reports whether address is a known NFT marketplace.
func (b *LabelBook) IsMarketplace(address string) bool {
	if address == "" {
		return false
	}
	_, ok := b.marketplaces[normalizeAddress(address)]
	return ok
}

// Len reports how many labelled addresses the book holds.
func (b *LabelBook) Len() int {
	return len(b.labels)
}

var defaultLabelBook = sync.OnceValue(func() *LabelBook {
	return NewLabelBook(knownLabels, knownRouters, knownMarketplaces)
})

// DefaultLabelBook returns the process-wide built-in label table.
func DefaultLabelBook() *LabelBook {
	return defaultLabelBook()
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

var knownLabels = map[string]string{
	// exchanges
	"0x28c6c06298d514db089934071355e5743bf21d60": "Binance Hot Wallet",
	"0x21a31ee1afc51d94c2efccaa2092ad1028285549": "Binance Hot Wallet 2",
	"0xdfd5293d8e347dfe59e90efd55b2956a1343963d": "Binance Hot Wallet 3",
	"0x56eddb7aa87536c09ccc2793473599fd21a8b17f": "Binance Hot Wallet 4",
	"0x9696f59e4d72e237be84ffd425dcad154bf96976": "Binance Hot Wallet 5",
	"0xa9d1e08c7793af67e9d92fe308d5697fb81d3e43": "Coinbase Commerce",
	"0x503828976d22510aad0201ac7ec88293211d23da": "Coinbase",
	"0x71660c4005ba85c37ccec55d0c4493e66fe775d3": "Coinbase 3",
	"0xfbb1b73c4f0bda4f67dca266ce6ef42f520fbb98": "Bittrex",
	"0x2910543af39aba0cd09dbb2d50200b3e800a63d2": "Kraken",
	"0x267be1c1d684f78cb4f6a176c4911b741e4ffdc0": "Kraken 4",

	// dex routers
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2 Router",
	"0xe592427a0aece92de3edee1f18e0157c05861564": "Uniswap V3 Router",
	"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45": "Uniswap Universal Router",
	"0xef1c6e67703c7bd7107eed8303fbe6ec2554bf6b": "Uniswap Universal Router 2",
	"0x3fc91a3afd70395cd496c647d5a6cc9d4b2b7fad": "Uniswap Universal Router 3",
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f": "SushiSwap Router",
	"0x10ed43c718714eb63d5aa57b78b54704e256024e": "PancakeSwap V2 Router",
	"0x13f4ea83d0bd40e75c8222255bc855a974568dd4": "PancakeSwap V3 Router",
	"0xa5e0829caced8ffdd4de3c43696c57f7d7a678ff": "QuickSwap Router",
	"0x1111111254eeb25477b68fb85ed929f73a960582": "1inch V5 Router",
	"0x111111125421ca6dc452d289314280a0f8842a65": "1inch V6 Router",
	"0xbebc44782c7db0a1a60cb6fe97d0b483032f8e6b": "Curve 3pool",
	"0xd51a44d3fae010294c616388b506acda1bfaae46": "Curve Tricrypto2",
	"0x99a58482bd75cbab83b27ec03ca68ff489b5788f": "Curve Router",

	// nft marketplaces
	"0x00000000000000adc04c56bf30ac9d3c0aaf14dc": "OpenSea Seaport 1.5",
	"0x00000000000001ad428e4906ae43d8f9852d0dd6": "OpenSea Seaport 1.6",
	"0x00000000006c3852cbef3e08e8df289169ede581": "OpenSea Seaport 1.1",
	"0x0000000000000ad24e80fd803c6ac37206a95221": "LooksRare Exchange",
	"0x29469395eaf6f95920e59f858042f0e28d98a20b": "Blur Marketplace",
	"0x39da41747a83aee658334415666f3ef92dd0d541": "Blur Bidding",
	"0xb2ecfe4e4d61f8790bbb9de2d1259b9e2410cea5": "Blur Marketplace 2",

	// lending
	"0x7d2768de32b0b80b7a3454c06bdac94a69ddc7a9": "Aave V2 Lending Pool",
	"0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2": "Aave V3 Pool",
	"0x3d9819210a31b4961b30ef54be2aed79b9c9cd3b": "Compound Comptroller",
	"0xc3d688b66703497daa19211eedff47f25384cdc3": "Compound V3 cUSDCv3",
	"0xa17581a9e3356d9a858b789d68b4d866e593ae94": "Compound V3 cWETHv3",

	// tokens
	"0xdac17f958d2ee523a2206206994597c13d831ec7": "Tether (USDT)",
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": "USD Coin (USDC)",
	"0x6b175474e89094c44da98b954eedeac495271d0f": "DAI Stablecoin",
	"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599": "Wrapped BTC (WBTC)",
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": "Wrapped ETH (WETH)",
	"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9": "Aave Token (AAVE)",
}

var knownRouters = []string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d",
	"0xe592427a0aece92de3edee1f18e0157c05861564",
	"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45",
	"0xef1c6e67703c7bd7107eed8303fbe6ec2554bf6b",
	"0x3fc91a3afd70395cd496c647d5a6cc9d4b2b7fad",
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f",
	"0x10ed43c718714eb63d5aa57b78b54704e256024e",
	"0x13f4ea83d0bd40e75c8222255bc855a974568dd4",
	"0xa5e0829caced8ffdd4de3c43696c57f7d7a678ff",
	"0x1111111254eeb25477b68fb85ed929f73a960582",
	"0x111111125421ca6dc452d289314280a0f8842a65",
	"0xbebc44782c7db0a1a60cb6fe97d0b483032f8e6b",
	"0xd51a44d3fae010294c616388b506acda1bfaae46",
	"0x99a58482bd75cbab83b27ec03ca68ff489b5788f",
}

var knownMarketplaces = []string{
	"0x00000000000000adc04c56bf30ac9d3c0aaf14dc",
	"0x00000000000001ad428e4906ae43d8f9852d0dd6",
	"0x00000000006c3852cbef3e08e8df289169ede581",
	"0x0000000000000ad24e80fd803c6ac37206a95221",
	"0x29469395eaf6f95920e59f858042f0e28d98a20b",
	"0x39da41747a83aee658334415666f3ef92dd0d541",
	"0xb2ecfe4e4d61f8790bbb9de2d1259b9e2410cea5",
}
