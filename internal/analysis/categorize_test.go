package analysis

import (
	"testing"

	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
)

const (
	uniswapV2Router = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	seaport15       = "0x00000000000000adc04c56bf30ac9d3c0aaf14dc"
	someContract    = "0x5555555555555555555555555555555555555555"
)

func TestClassify(t *testing.T) {
	categorizer := NewCategorizer(nil, nil)

	cases := []struct {
		name string
		tx   domain.RawTransaction
		want domain.TransactionType
	}{
		{
			name: "approve selector",
			tx:   domain.RawTransaction{To: someContract, Value: "0", Input: "0x095ea7b3000000"},
			want: domain.TypeApproval,
		},
		{
			name: "transfer selector upper case",
			tx:   domain.RawTransaction{To: someContract, Value: "0", Input: "0xA9059CBB000000"},
			want: domain.TypeTransfer,
		},
		{
			name: "swap selector",
			tx:   domain.RawTransaction{To: someContract, Value: "0", Input: "0x38ed1739000000"},
			want: domain.TypeSwap,
		},
		{
			name: "router with dust value",
			tx:   domain.RawTransaction{To: uniswapV2Router, Value: "1", Input: "0x"},
			want: domain.TypeSwap,
		},
		{
			name: "nft feed",
			tx:   domain.RawTransaction{To: someContract, Value: "0", Input: "0x", Source: domain.SourceNFT},
			want: domain.TypeNFT,
		},
		{
			name: "marketplace",
			tx:   domain.RawTransaction{To: seaport15, Value: "1000000000000000000", Input: "0xfb0f3ee1"},
			want: domain.TypeNFT,
		},
		{
			name: "dust without router",
			tx:   domain.RawTransaction{To: someContract, Value: "1", Input: "0x"},
			want: domain.TypeSpam,
		},
		{
			name: "plain value transfer",
			tx:   domain.RawTransaction{To: someContract, Value: "1000000000000000000", Input: "0x"},
			want: domain.TypeTransfer,
		},
		{
			name: "unknown call",
			tx:   domain.RawTransaction{To: someContract, Value: "0", Input: "0xdeadbeef00"},
			want: domain.TypeContractInteraction,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, categorizer.Classify(tc.tx))
		})
	}
}

func TestClassifyAlwaysReturnsKnownType(t *testing.T) {
	categorizer := NewCategorizer(nil, nil)
	known := []domain.TransactionType{
		domain.TypeTransfer,
		domain.TypeSwap,
		domain.TypeNFT,
		domain.TypeApproval,
		domain.TypeContractInteraction,
		domain.TypeSpam,
	}

	inputs := []domain.RawTransaction{
		{},
		{Value: "garbage", Input: "zz"},
		{Value: "-1", Input: "0x12"},
		{To: uniswapV2Router},
		{Value: "0x0", Input: "0x1234567"},
	}
	for _, tx := range inputs {
		assert.Contains(t, known, categorizer.Classify(tx))
	}
}

func TestMethodSelector(t *testing.T) {
	selector, ok := MethodSelector("0xA9059CBB0000")
	assert.True(t, ok)
	assert.Equal(t, "0xa9059cbb", selector)

	_, ok = MethodSelector("0x")
	assert.False(t, ok)
}
