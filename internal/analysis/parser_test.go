package analysis

import (
	"fmt"
	"testing"

	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ethereum(t *testing.T) domain.Chain {
	t.Helper()
	chain, ok := domain.LookupChain("ethereum")
	require.True(t, ok)
	return chain
}

func TestParseSwapThroughRouter(t *testing.T) {
	parser := NewParser(ParserConfig{})
	batch := []domain.RawTransaction{{
		Hash:      "0xswap",
		TimeStamp: "1770734040",
		From:      subjectWallet,
		To:        uniswapV2Router,
		Value:     "0",
		Input:     "0x38ed17390000000000000000000000000000000000000000",
		GasUsed:   "150000",
		GasPrice:  "20000000000",
		IsError:   "0",
	}}

	parsed := parser.Parse(batch, subjectWallet, ethereum(t), 2000)
	require.Len(t, parsed, 1)

	tx := parsed[0]
	assert.Equal(t, domain.TypeSwap, tx.Type)
	assert.Equal(t, domain.DirectionOut, tx.Direction)
	assert.Equal(t, "Swapped on Uniswap V2 Router", tx.Description)
	assert.False(t, tx.IsSpam)
	assert.False(t, tx.IsPoisoning)
	assert.Equal(t, "Uniswap V2 Router", tx.ToLabel)
	assert.Equal(t, "Feb 10, 2026 • 2:34 PM", tx.Date)
	assert.Equal(t, "0.003", tx.GasUsed)
	assert.Equal(t, "6.00", tx.GasUSD)
	assert.Equal(t, domain.StatusSuccess, tx.Status)
	assert.Equal(t, "https://etherscan.io/tx/0xswap", tx.ExplorerURL)
	assert.Equal(t, "Ethereum", tx.Chain)
	assert.Equal(t, "ETH", tx.TokenSymbol)
}

func TestParseFlagsAddressPoisoning(t *testing.T) {
	parser := NewParser(ParserConfig{})
	batch := []domain.RawTransaction{
		{Hash: "0xlure", From: payeeLookalike, To: subjectWallet, Value: "1", Input: "0x"},
		{Hash: "0xpay", From: subjectWallet, To: payee, Value: "1000000000000000000", Input: "0x"},
	}

	parsed := parser.Parse(batch, subjectWallet, ethereum(t), 0)
	require.Len(t, parsed, 2)

	assert.True(t, parsed[0].IsPoisoning)
	assert.Equal(t, payee, parsed[0].PoisoningTarget)
	assert.True(t, parsed[0].IsSpam)
	assert.Equal(t, domain.DirectionIn, parsed[0].Direction)

	assert.False(t, parsed[1].IsPoisoning)
	assert.Equal(t, domain.TypeTransfer, parsed[1].Type)
	assert.Equal(t, "1", parsed[1].Value)
	assert.Empty(t, parsed[1].ValueUSD)
}

func TestParsePricesNativeValueOnly(t *testing.T) {
	parser := NewParser(ParserConfig{})
	batch := []domain.RawTransaction{
		{Hash: "0xnative", From: someContract, To: subjectWallet, Value: "1000000000000000000", Input: "0x"},
		{
			Hash:         "0xtoken",
			From:         someContract,
			To:           subjectWallet,
			Value:        "2500000",
			Input:        "0x",
			TokenName:    "USD Coin",
			TokenSymbol:  "USDC",
			TokenDecimal: "6",
			Source:       domain.SourceFungible,
		},
	}

	parsed := parser.Parse(batch, subjectWallet, ethereum(t), 2000)
	require.Len(t, parsed, 2)

	assert.Equal(t, "2000.00", parsed[0].ValueUSD)
	assert.Equal(t, "Received 1 ETH from 0x5555…5555", parsed[0].Description)

	assert.Equal(t, "2.5", parsed[1].Value)
	assert.Empty(t, parsed[1].ValueUSD)
	assert.Equal(t, "USDC", parsed[1].TokenSymbol)
	assert.Equal(t, "USD Coin", parsed[1].Token)
}

func TestParseDegradesMalformedFields(t *testing.T) {
	parser := NewParser(ParserConfig{})
	batch := []domain.RawTransaction{{
		Hash:        "0xbroken",
		TimeStamp:   "yesterday",
		BlockNumber: "-",
		Value:       "lots",
		GasUsed:     "?",
		IsError:     "1",
	}}

	parsed := parser.Parse(batch, subjectWallet, ethereum(t), 2000)
	require.Len(t, parsed, 1)

	tx := parsed[0]
	assert.Equal(t, "0", tx.Value)
	assert.Equal(t, int64(0), tx.Timestamp)
	assert.Equal(t, uint64(0), tx.BlockNumber)
	assert.Equal(t, domain.StatusFailed, tx.Status)
	assert.Empty(t, tx.GasUSD)
}

func TestParsePreservesOrderAcrossWorkers(t *testing.T) {
	batch := make([]domain.RawTransaction, 64)
	for i := range batch {
		batch[i] = domain.RawTransaction{
			Hash:        fmt.Sprintf("0x%04d", i),
			BlockNumber: fmt.Sprintf("%d", 1000+i),
			From:        someContract,
			To:          subjectWallet,
			Value:       fmt.Sprintf("%d000000000000000", i+1),
			Input:       "0x",
		}
	}

	sequential := NewParser(ParserConfig{}).Parse(batch, subjectWallet, ethereum(t), 2000)
	parallel := NewParser(ParserConfig{Workers: 8}).Parse(batch, subjectWallet, ethereum(t), 2000)

	require.Len(t, parallel, len(batch))
	for i, tx := range parallel {
		assert.Equal(t, batch[i].Hash, tx.Hash)
		assert.Equal(t, uint64(1000+i), tx.BlockNumber)
	}
	assert.Equal(t, sequential, parallel)
}

func TestParseEmptyBatch(t *testing.T) {
	parsed := NewParser(ParserConfig{}).Parse(nil, subjectWallet, ethereum(t), 2000)
	assert.NotNil(t, parsed)
	assert.Empty(t, parsed)
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, domain.DirectionSelf, DirectionOf(subjectWallet, subjectWallet, subjectWallet))
	assert.Equal(t, domain.DirectionOut, DirectionOf("0x1111111111111111111111111111111111111111", payee, "0X1111111111111111111111111111111111111111"))
	assert.Equal(t, domain.DirectionIn, DirectionOf(payee, subjectWallet, subjectWallet))
	assert.Equal(t, domain.DirectionIn, DirectionOf(payee, stranger, subjectWallet))
}

func TestSummarize(t *testing.T) {
	parsed := []domain.ParsedTransaction{
		{Hash: "a", IsSpam: true},
		{Hash: "b", IsSpam: true, IsPoisoning: true},
		{Hash: "c"},
	}

	summary := Summarize(subjectWallet, "ethereum", parsed)
	assert.Equal(t, 3, summary.TotalTransactions)
	assert.Equal(t, 2, summary.SpamCount)
	assert.Equal(t, 1, summary.PoisoningCount)
	assert.Equal(t, "ethereum", summary.Chain)

	empty := Summarize(subjectWallet, "ethereum", nil)
	assert.NotNil(t, empty.Transactions)
	assert.Zero(t, empty.TotalTransactions)
}
