package analysis

import (
	"math/big"
	"testing"

	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestSpamDustBoundary(t *testing.T) {
	detector := NewSpamDetector(SpamConfig{})

	atThreshold := domain.RawTransaction{Value: "1000000000000", Input: "0x"}
	belowThreshold := domain.RawTransaction{Value: "999999999999", Input: "0x"}

	assert.False(t, detector.IsSpam(atThreshold))
	assert.True(t, detector.IsSpam(belowThreshold))
}

func TestSpamKeywordsAreCaseInsensitive(t *testing.T) {
	detector := NewSpamDetector(SpamConfig{})
	tx := domain.RawTransaction{
		Value:     "5000000000000000000",
		Input:     "0x",
		TokenName: "Visit Rewards-ETH.COM",
	}
	assert.True(t, detector.IsSpam(tx))

	tx.TokenName = "Tether USD"
	assert.False(t, detector.IsSpam(tx))
}

func TestSpamContracts(t *testing.T) {
	detector := NewSpamDetector(SpamConfig{
		Contracts: []string{"0xABCDEF0000000000000000000000000000000001"},
	})
	tx := domain.RawTransaction{
		Value:           "5000000000000000000",
		Input:           "0x",
		ContractAddress: "0xabcdef0000000000000000000000000000000001",
	}
	assert.True(t, detector.IsSpam(tx))
}

func TestSpamZeroValueWithoutCallData(t *testing.T) {
	detector := NewSpamDetector(SpamConfig{})

	assert.True(t, detector.IsSpam(domain.RawTransaction{Value: "0", Input: "0x"}))
	assert.False(t, detector.IsSpam(domain.RawTransaction{Value: "0", Input: "0xa9059cbb0000"}))
}

func TestSpamCustomThreshold(t *testing.T) {
	detector := NewSpamDetector(SpamConfig{DustThreshold: big.NewInt(100)})

	assert.Equal(t, int64(100), detector.dustThreshold().Int64())
	assert.True(t, detector.IsSpam(domain.RawTransaction{Value: "99", Input: "0x"}))
	assert.False(t, detector.IsSpam(domain.RawTransaction{Value: "100", Input: "0x"}))
}

func TestSpamExtraKeywordsKeepDefaults(t *testing.T) {
	detector := NewSpamDetector(SpamConfig{Keywords: []string{"SCAM", "airdrop", ""}})
	tx := domain.RawTransaction{Value: "5000000000000000000", Input: "0x"}

	tx.TokenName = "Free AIRDROP visit claim.com"
	assert.True(t, detector.IsSpam(tx))

	tx.TokenName = "Totally Not A Scam"
	assert.True(t, detector.IsSpam(tx))

	tx.TokenName = "Tether USD"
	assert.False(t, detector.IsSpam(tx))

	assert.Len(t, detector.keywords, len(DefaultSpamKeywords)+1)
}
