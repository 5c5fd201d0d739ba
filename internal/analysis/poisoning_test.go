package analysis

import (
	"testing"

	"walletclear/internal/domain"

	"github.com/stretchr/testify/assert"
)

const (
	subjectWallet  = "0x1111111111111111111111111111111111111111"
	payee          = "0xaaaa120000000000000000000000000000cd1111"
	payeeLookalike = "0xaaaa12ffffffffffffffffffffffffffffcd1111"
	stranger       = "0x9999990000000000000000000000000000777777"
)

func TestSimilarAddress(t *testing.T) {
	assert.True(t, SimilarAddress(payee, payeeLookalike))
	assert.True(t, SimilarAddress(payeeLookalike, payee))
	assert.True(t, SimilarAddress("0xAAAA12FFFFFFFFFFFFFFFFFFFFFFFFFFFFCD1111", payee))
	assert.False(t, SimilarAddress(payee, payee))
	assert.False(t, SimilarAddress(payee, stranger))
	assert.False(t, SimilarAddress("", payee))
	assert.False(t, SimilarAddress("0xaa", "0xab"))
}

func TestDetectPoisoning(t *testing.T) {
	batch := []domain.RawTransaction{
		{From: subjectWallet, To: payee, Value: "1000000000000000000"},
		{From: payeeLookalike, To: subjectWallet, Value: "1"},
	}
	index := NewSentToIndex(batch, subjectWallet, nil)

	assert.Equal(t, []string{payee}, index.sentTo())
	assert.Equal(t, PoisoningResult{}, index.Detect(batch[0]))
	assert.Equal(t, PoisoningResult{IsPoisoning: true, Target: payee}, index.Detect(batch[1]))
}

func TestDetectPoisoningRequiresHistory(t *testing.T) {
	batch := []domain.RawTransaction{
		{From: payeeLookalike, To: subjectWallet, Value: "1"},
		{From: stranger, To: subjectWallet, Value: "0"},
	}
	index := NewSentToIndex(batch, subjectWallet, nil)

	assert.Empty(t, index.sentTo())
	for _, tx := range batch {
		assert.False(t, index.Detect(tx).IsPoisoning)
	}
}

func TestDetectPoisoningIgnoresLargeValues(t *testing.T) {
	batch := []domain.RawTransaction{
		{From: subjectWallet, To: payee, Value: "1000000000000000000"},
		{From: payeeLookalike, To: subjectWallet, Value: "1000000000000000"},
	}
	index := NewSentToIndex(batch, subjectWallet, nil)

	assert.False(t, index.Detect(batch[1]).IsPoisoning)
}

func TestSentToIndexKeepsFirstSeenOrder(t *testing.T) {
	batch := []domain.RawTransaction{
		{From: subjectWallet, To: stranger},
		{From: subjectWallet, To: payee},
		{From: subjectWallet, To: stranger},
		{From: payee, To: subjectWallet},
	}
	index := NewSentToIndex(batch, subjectWallet, nil)

	assert.Equal(t, []string{stranger, payee}, index.sentTo())
}
