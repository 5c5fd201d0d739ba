package analysis

import (
	"math/big"
	"strings"

	"walletclear/internal/domain"
)

// DefaultSpamDustThreshold is 1e12 wei (0.000001 of an 18-decimal native token).
var DefaultSpamDustThreshold = big.NewInt(1_000_000_000_000)

// DefaultSpamKeywords are lowercase fragments that mark a token name as spam.
var DefaultSpamKeywords = []string{
	"visit",
	"claim",
	"free",
	"reward",
	"airdrop",
	"www.",
	".com",
	".io",
	".org",
	".net",
	".xyz",
	"bonus",
	"voucher",
	"$ ",
}

// SpamConfig tunes a SpamDetector. Keywords extend DefaultSpamKeywords
// rather than replacing them.
type SpamConfig struct {
	DustThreshold *big.Int
	Keywords      []string
	Contracts     []string
}

// SpamDetector flags records that look like unsolicited spam.
type SpamDetector struct {
	dust      *big.Int
	keywords  []string
	contracts map[string]struct{}
}

// NewSpamDetector builds a detector. A nil threshold falls back to
// DefaultSpamDustThreshold. Configured keywords are lowercased and added to
// DefaultSpamKeywords, skipping duplicates.
func NewSpamDetector(cfg SpamConfig) *SpamDetector {
	dust := DefaultSpamDustThreshold
	if cfg.DustThreshold != nil {
		dust = cfg.DustThreshold
	}
	detector := &SpamDetector{
		dust:      new(big.Int).Set(dust),
		keywords:  make([]string, 0, len(DefaultSpamKeywords)+len(cfg.Keywords)),
		contracts: make(map[string]struct{}, len(cfg.Contracts)),
	}
	seen := make(map[string]struct{}, cap(detector.keywords))
	for _, keyword := range append(append([]string{}, DefaultSpamKeywords...), cfg.Keywords...) {
		keyword = strings.ToLower(keyword)
		if keyword == "" {
			continue
		}
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		detector.keywords = append(detector.keywords, keyword)
	}
	for _, contract := range cfg.Contracts {
		if contract = normalizeAddress(contract); contract != "" {
			detector.contracts[contract] = struct{}{}
		}
	}
	return detector
}

// IsSpam reports whether any spam heuristic fires for tx.
func (d *SpamDetector) IsSpam(tx domain.RawTransaction) bool {
	value := ParseUint(tx.Value)

	if value.Sign() > 0 && value.Cmp(d.dust) < 0 {
		return true
	}

	if name := strings.ToLower(tx.TokenName); name != "" {
		for _, keyword := range d.keywords {
			if strings.Contains(name, keyword) {
				return true
			}
		}
	}

	if len(d.contracts) > 0 {
		if _, ok := d.contracts[normalizeAddress(tx.ContractAddress)]; ok {
			return true
		}
	}

	return value.Sign() == 0 && !hasCallData(tx.Input)
}

func (d *SpamDetector) dustThreshold() *big.Int {
	return new(big.Int).Set(d.dust)
}

func hasCallData(input string) bool {
	return len(input) > 2
}
