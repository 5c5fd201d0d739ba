package analysis

import (
	"testing"

	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Received 1.5 ETH from Binance Hot Wallet", Describe(DescribeInput{
		Type:      domain.TypeTransfer,
		Direction: domain.DirectionIn,
		Value:     "1.5",
		Symbol:    "ETH",
		From:      "0x28c6c06298d514db089934071355e5743bf21d60",
		FromLabel: "Binance Hot Wallet",
	}))

	assert.Equal(t, "Sent 2 ETH to 0x5555…5555", Describe(DescribeInput{
		Type:      domain.TypeTransfer,
		Direction: domain.DirectionOut,
		Value:     "2",
		Symbol:    "ETH",
		To:        someContract,
	}))

	assert.Equal(t, "Swapped on Uniswap V2 Router", Describe(DescribeInput{
		Type:    domain.TypeSwap,
		To:      uniswapV2Router,
		ToLabel: "Uniswap V2 Router",
	}))

	assert.Equal(t, "Approved 0x5555…5555 to spend Tether USD", Describe(DescribeInput{
		Type:      domain.TypeApproval,
		To:        someContract,
		TokenName: "Tether USD",
		Symbol:    "USDT",
	}))

	assert.Equal(t, "Spam token received", Describe(DescribeInput{Type: domain.TypeSpam}))
	assert.Equal(t, "Contract interaction with 0x5555…5555", Describe(DescribeInput{
		Type: domain.TypeContractInteraction,
		To:   someContract,
	}))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x1234…cdef", ShortAddress("0x1234567890abcdef"))
	assert.Equal(t, "0x123", ShortAddress("0x123"))
	assert.Equal(t, "", ShortAddress(""))
}

func TestDefaultLabelBook(t *testing.T) {
	book := DefaultLabelBook()

	name, ok := book.Resolve("0x7A250D5630B4CF539739DF2C5DACB4C659F2488D")
	assert.True(t, ok)
	assert.Equal(t, "Uniswap V2 Router", name)
	assert.True(t, book.IsRouter(uniswapV2Router))
	assert.True(t, book.IsMarketplace(seaport15))
	assert.False(t, book.IsRouter(""))
	assert.Greater(t, book.Len(), 30)
}
