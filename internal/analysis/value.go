package analysis

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// NativeDecimals is the scale of native-token minor units (wei).
	NativeDecimals = 18
	// maxFractionDigits caps the displayed fractional precision.
	maxFractionDigits = 6
	maxDecimals       = 77
)

// ParseUint reads an unsigned minor-unit amount. Decimal strings and
// 0x-prefixed hex are accepted; anything else, including negative numbers,
// reads as zero.
func ParseUint(raw string) *big.Int {
	raw = strings.TrimSpace(raw)
	value := new(big.Int)
	if raw == "" || raw == "0x" {
		return value
	}
	var ok bool
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		_, ok = value.SetString(raw[2:], 16)
	} else {
		_, ok = value.SetString(raw, 10)
	}
	if !ok || value.Sign() < 0 {
		return new(big.Int)
	}
	return value
}

// ScaleDown renders an integer minor-unit amount as a decimal string with the
// point placed decimals digits from the right. The fraction is truncated to
// six digits and trailing zeros are dropped.
func ScaleDown(raw string, decimals int) string {
	value := ParseUint(raw)
	if value.Sign() == 0 {
		return "0"
	}
	digits := value.String()
	if decimals <= 0 {
		return digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals+1-len(digits)) + digits
	}
	intPart := digits[:len(digits)-decimals]
	fracPart := digits[len(digits)-decimals:]
	if len(fracPart) > maxFractionDigits {
		fracPart = fracPart[:maxFractionDigits]
	}
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// ToUSD multiplies a decimal amount by a unit price and rounds to cents.
// It reports false when either side is not positive: an unknown price is a
// normal "no value" state.
func ToUSD(amount string, unitPrice float64) (string, bool) {
	if !(unitPrice > 0) {
		return "", false
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || parsed.Sign() <= 0 {
		return "", false
	}
	return parsed.Mul(decimal.NewFromFloat(unitPrice)).StringFixed(2), true
}

// GasCost returns gasUsed*gasPrice scaled to native units.
func GasCost(gasUsed, gasPrice string) string {
	cost := new(big.Int).Mul(ParseUint(gasUsed), ParseUint(gasPrice))
	return ScaleDown(cost.String(), NativeDecimals)
}

// TokenDecimals returns the record's token scale, defaulting to 18.
func TokenDecimals(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NativeDecimals
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 || value > maxDecimals {
		return NativeDecimals
	}
	return value
}
