package analysis

import (
	"strings"

	"walletclear/internal/domain"
)

const selectorLength = 10

// DefaultSelectors maps 4-byte method selectors to transaction types.
var DefaultSelectors = map[string]domain.TransactionType{
	"0xa9059cbb": domain.TypeTransfer, // transfer(address,uint256)
	"0x095ea7b3": domain.TypeApproval, // approve(address,uint256)
	"0x7ff36ab5": domain.TypeSwap,     // swapExactETHForTokens
	"0x38ed1739": domain.TypeSwap,     // swapExactTokensForTokens
	"0x8803dbee": domain.TypeSwap,     // swapTokensForExactTokens
	"0x18cbafe5": domain.TypeSwap,     // swapExactTokensForETH
	"0xfb3bdb41": domain.TypeSwap,     // swapETHForExactTokens
}

// Categorizer assigns exactly one TransactionType to a raw record. Rules are
// checked in order and the first match wins: selector, router, nft, spam,
// plain transfer, contract interaction.
type Categorizer struct {
	labels    *LabelBook
	spam      *SpamDetector
	selectors map[string]domain.TransactionType
}

// NewCategorizer falls back to the default label book and spam rules when
// either argument is nil.
func NewCategorizer(labels *LabelBook, spam *SpamDetector) *Categorizer {
	if labels == nil {
		labels = DefaultLabelBook()
	}
	if spam == nil {
		spam = NewSpamDetector(SpamConfig{})
	}
	return &Categorizer{labels: labels, spam: spam, selectors: DefaultSelectors}
}

// Classify returns the type of the first matching rule.
func (c *Categorizer) Classify(tx domain.RawTransaction) domain.TransactionType {
	if selector, ok := MethodSelector(tx.Input); ok {
		if txType, ok := c.selectors[selector]; ok {
			return txType
		}
	}

	if c.labels.IsRouter(tx.To) {
		return domain.TypeSwap
	}

	if tx.Source == domain.SourceNFT || c.labels.IsMarketplace(tx.To) {
		return domain.TypeNFT
	}

	if c.spam.IsSpam(tx) {
		return domain.TypeSpam
	}

	if !hasCallData(tx.Input) && ParseUint(tx.Value).Sign() > 0 {
		return domain.TypeTransfer
	}

	return domain.TypeContractInteraction
}

// MethodSelector returns the lowercase 0x-prefixed 4-byte selector of input.
func MethodSelector(input string) (string, bool) {
	if len(input) < selectorLength {
		return "", false
	}
	return strings.ToLower(input[:selectorLength]), true
}
