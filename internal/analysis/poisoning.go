package analysis

import (
	"math/big"
	"strings"

	"walletclear/internal/domain"
)

// DefaultPoisoningDustThreshold is 1e15 wei (0.001 of an 18-decimal native token).
var DefaultPoisoningDustThreshold = big.NewInt(1_000_000_000_000_000)

const (
	similarPrefixLength = 8
	similarSuffixLength = 6
)

type PoisoningResult struct {
	IsPoisoning bool
	Target      string
}

// SentToIndex is the read-only view of every address the subject wallet has
// paid within a batch. Build it once per batch, then call Detect per record.
type SentToIndex struct {
	subject    string
	dust       *big.Int
	recipients []string
}

// NewSentToIndex scans batch for records sent by subject and collects their
// recipients in first-seen order. A nil threshold uses
// DefaultPoisoningDustThreshold.
func NewSentToIndex(batch []domain.RawTransaction, subject string, threshold *big.Int) *SentToIndex {
	if threshold == nil {
		threshold = DefaultPoisoningDustThreshold
	}
	index := &SentToIndex{
		subject: normalizeAddress(subject),
		dust:    new(big.Int).Set(threshold),
	}
	seen := make(map[string]struct{})
	for _, tx := range batch {
		if normalizeAddress(tx.From) != index.subject {
			continue
		}
		recipient := normalizeAddress(tx.To)
		if recipient == "" {
			continue
		}
		if _, ok := seen[recipient]; ok {
			continue
		}
		seen[recipient] = struct{}{}
		index.recipients = append(index.recipients, recipient)
	}
	return index
}

func (i *SentToIndex) sentTo() []string {
	out := make([]string, len(i.recipients))
	copy(out, i.recipients)
	return out
}

// Detect flags an incoming dust record whose sender looks like an address the
// subject has paid before. The first similar recipient becomes the target.
func (i *SentToIndex) Detect(tx domain.RawTransaction) PoisoningResult {
	if i.subject == "" || normalizeAddress(tx.To) != i.subject {
		return PoisoningResult{}
	}
	sender := normalizeAddress(tx.From)
	if sender == i.subject {
		return PoisoningResult{}
	}
	if ParseUint(tx.Value).Cmp(i.dust) >= 0 {
		return PoisoningResult{}
	}
	for _, recipient := range i.recipients {
		if SimilarAddress(sender, recipient) {
			return PoisoningResult{IsPoisoning: true, Target: recipient}
		}
	}
	return PoisoningResult{}
}

// SimilarAddress reports whether two different addresses share the first
// eight characters (0x plus six hex digits) and the last six characters.
func SimilarAddress(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == "" || b == "" || a == b {
		return false
	}
	if len(a) < similarPrefixLength || len(b) < similarPrefixLength {
		return false
	}
	return a[:similarPrefixLength] == b[:similarPrefixLength] &&
		a[len(a)-similarSuffixLength:] == b[len(b)-similarSuffixLength:]
}
