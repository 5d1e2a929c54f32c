package chain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	looperr "github.com/loopfi/loopchain/pkg/errors"
)

// FormatBalance converts a smallest-unit integer amount to a decimal string
// with the given number of decimal places. The conversion is exact: it works
// on the base-10 digits of raw and never goes through floating point.
// Trailing fractional zeros are removed, so zero renders as "0" and
// 1500000000000000000 with 18 decimals renders as "1.5".
// A negative decimals value is treated as zero.
func FormatBalance(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	if raw.Sign() < 0 {
		return "-" + FormatBalance(new(big.Int).Abs(raw), decimals)
	}

	str := raw.String()
	if decimals <= 0 {
		return str
	}

	// Pad so there is at least one integer digit
	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	pos := len(str) - decimals
	intPart := str[:pos]
	fracPart := strings.TrimRight(str[pos:], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// ParseBalance is the inverse of FormatBalance: it converts a decimal string
// into a smallest-unit integer. Inputs carrying more fractional digits than
// decimals are rejected rather than truncated, as are negative amounts.
func ParseBalance(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || decimals < 0 {
		return nil, looperr.ErrInvalidAmount
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, looperr.WithDetails(looperr.ErrInvalidAmount, map[string]string{
			"amount": amount,
		})
	}
	if d.IsNegative() {
		return nil, looperr.WithDetails(looperr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": "negative amount",
		})
	}

	scaled := d.Shift(int32(decimals)) //nolint:gosec // decimals bounded by config validation
	if !scaled.IsInteger() {
		return nil, looperr.WithDetails(looperr.ErrInvalidAmount, map[string]string{
			"amount": amount,
			"reason": "more fractional digits than the unit supports",
		})
	}

	return scaled.BigInt(), nil
}

// IsZero reports whether raw equals the additive identity. A nil amount is zero.
func IsZero(raw *big.Int) bool {
	return raw == nil || raw.Sign() == 0
}
