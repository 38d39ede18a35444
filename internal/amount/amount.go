// Package amount converts between human decimal strings and raw integer
// token amounts.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountOverflow = errors.New("amount does not fit in u64")
)

var maxRaw = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// Parse converts "12.5" into raw units for a token with the given decimals.
// Only digits and a single '.' are accepted; fractional digits beyond
// decimals are truncated.
func Parse(s string, decimals uint8) (uint64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	raw := d.Shift(int32(decimals)).Truncate(0)
	if raw.GreaterThan(maxRaw) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, strings.TrimSpace(s))
	}
	return raw.BigInt().Uint64(), nil
}

// ParseDecimal validates s with the same syntax as Parse and returns its
// exact value.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}

	left, right, _ := strings.Cut(s, ".")
	if left == "" && right == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if left == "" {
		left = "0"
	}
	if right == "" {
		right = "0"
	}

	d, err := decimal.NewFromString(left + "." + right)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Format renders raw units as a decimal string with trailing fractional
// zeros trimmed.
func Format(raw uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals)).String()
}
