package amm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrSlippageOutOfRange = errors.New("slippage must be between 0 and 100 percent")

var (
	hundred   = decimal.NewFromInt(100)
	maxUint64 = fromUint64(^uint64(0))
)

// DefaultSlippage is the tolerance applied when none is configured.
var DefaultSlippage = decimal.RequireFromString("0.1")

// ParseSlippage parses a percent string such as "0.5" and checks its range.
func ParseSlippage(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrSlippageOutOfRange, s)
	}
	if err := ValidateSlippage(p); err != nil {
		return decimal.Zero, err
	}
	return p, nil
}

func ValidateSlippage(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrSlippageOutOfRange, p.String())
	}
	return nil
}

// MinAmountOut returns floor(amountOut * (100 - p) / 100). The result never
// exceeds amountOut.
func MinAmountOut(amountOut uint64, p decimal.Decimal) (uint64, error) {
	if err := ValidateSlippage(p); err != nil {
		return 0, err
	}
	v := fromUint64(amountOut).Mul(hundred.Sub(p)).Shift(-2).Floor()
	return toUint64(v)
}

// MaxAmountIn returns ceil(amountIn * (100 + p) / 100). The result is never
// below amountIn.
func MaxAmountIn(amountIn uint64, p decimal.Decimal) (uint64, error) {
	if err := ValidateSlippage(p); err != nil {
		return 0, err
	}
	v := fromUint64(amountIn).Mul(hundred.Add(p)).Shift(-2).Ceil()
	return toUint64(v)
}

func toUint64(v decimal.Decimal) (uint64, error) {
	if v.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("%w: %s does not fit in u64", ErrOverflow, v.String())
	}
	return v.BigInt().Uint64(), nil
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
