package application

import (
	"sort"
	"strconv"
	"strings"

	"walletclear/internal/domain"
)

// MergeFeeds combines the native, fungible and NFT feeds of one wallet into a
// single history ordered newest first. Rows without a source are tagged with
// the feed they came from. Equal timestamps keep feed order, and a repeated
// (hash, source) pair keeps only its first row.
func MergeFeeds(native, fungible, nft []domain.RawTransaction) []domain.RawTransaction {
	merged := make([]domain.RawTransaction, 0, len(native)+len(fungible)+len(nft))
	merged = appendFeed(merged, native, domain.SourceNative)
	merged = appendFeed(merged, fungible, domain.SourceFungible)
	merged = appendFeed(merged, nft, domain.SourceNFT)

	sort.SliceStable(merged, func(i, j int) bool {
		return feedTimestamp(merged[i]) > feedTimestamp(merged[j])
	})

	type feedKey struct {
		hash   string
		source domain.SourceKind
	}
	seen := make(map[feedKey]struct{}, len(merged))
	out := merged[:0]
	for _, tx := range merged {
		hash := strings.ToLower(strings.TrimSpace(tx.Hash))
		if hash != "" {
			key := feedKey{hash: hash, source: tx.Source}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, tx)
	}
	return out
}

func appendFeed(dst, feed []domain.RawTransaction, source domain.SourceKind) []domain.RawTransaction {
	for _, tx := range feed {
		if tx.Source == "" {
			tx.Source = source
		}
		dst = append(dst, tx)
	}
	return dst
}

func feedTimestamp(tx domain.RawTransaction) int64 {
	ts, err := strconv.ParseInt(strings.TrimSpace(tx.TimeStamp), 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
