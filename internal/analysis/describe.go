package analysis

import (
	"fmt"

	"walletclear/internal/domain"
)

// DescribeInput carries the classified fields a description is built from.
type DescribeInput struct {
	Type      domain.TransactionType
	Direction domain.Direction
	Value     string
	Symbol    string
	From      string
	To        string
	FromLabel string
	ToLabel   string
	TokenName string
}

// Describe renders a one-line summary of a classified record.
func Describe(in DescribeInput) string {
	from := displayName(in.FromLabel, in.From)
	to := displayName(in.ToLabel, in.To)

	switch in.Type {
	case domain.TypeTransfer:
		if in.Direction == domain.DirectionIn {
			return fmt.Sprintf("Received %s %s from %s", in.Value, in.Symbol, from)
		}
		return fmt.Sprintf("Sent %s %s to %s", in.Value, in.Symbol, to)
	case domain.TypeSwap:
		return "Swapped on " + to
	case domain.TypeApproval:
		asset := in.TokenName
		if asset == "" {
			asset = in.Symbol
		}
		return fmt.Sprintf("Approved %s to spend %s", to, asset)
	case domain.TypeNFT:
		return "NFT transaction on " + to
	case domain.TypeSpam:
		return "Spam token received"
	default:
		return "Contract interaction with " + to
	}
}

// ShortAddress renders 0x1a2b…3c4d for anything at least ten characters long.
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

func displayName(label, address string) string {
	if label != "" {
		return label
	}
	return ShortAddress(address)
}
