package amm

import (
	"errors"
	"fmt"
	"math"

	"lukechampine.com/uint128"
)

var (
	ErrZeroAmount     = errors.New("amount must be greater than zero")
	ErrEmptyReserves  = errors.New("pool reserves must be non-zero")
	ErrExceedsReserve = errors.New("requested output exceeds pool reserve")
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrInvalidFee     = errors.New("invalid fee schedule")
)

// FeeSchedule is the pool trade fee expressed as Numerator/Denominator of the
// gross input amount.
type FeeSchedule struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFees matches the Raydium AMM v4 LIQUIDITY_FEES constants (0.25%).
var DefaultFees = FeeSchedule{Numerator: 25, Denominator: 10000}

func (f FeeSchedule) Validate() error {
	if f.Denominator == 0 {
		return fmt.Errorf("%w: denominator is zero", ErrInvalidFee)
	}
	if f.Numerator >= f.Denominator {
		return fmt.Errorf("%w: %d/%d takes the whole input", ErrInvalidFee, f.Numerator, f.Denominator)
	}
	return nil
}

// Bps returns the fee rounded down to basis points.
func (f FeeSchedule) Bps() uint64 {
	if f.Denominator == 0 {
		return 0
	}
	return f.Numerator * 10000 / f.Denominator
}

// SwapQuote is the result of pricing one trade against a reserve snapshot.
// For exact-in quotes AmountIn is the caller's gross input; for exact-out
// quotes it is the gross input required to receive AmountOut.
type SwapQuote struct {
	AmountIn    uint64  `json:"amount_in"`
	AmountOut   uint64  `json:"amount_out"`
	Fee         uint64  `json:"fee"`
	Price       float64 `json:"price"`        // OUT per IN at the current reserves
	PriceImpact float64 `json:"price_impact"` // percent
}

// Quoter prices constant-product trades. It is pure and safe for concurrent use.
type Quoter struct {
	fees FeeSchedule
}

func NewQuoter(fees FeeSchedule) (*Quoter, error) {
	if err := fees.Validate(); err != nil {
		return nil, err
	}
	return &Quoter{fees: fees}, nil
}

// MustQuoter is NewQuoter for fee schedules known to be valid at compile time.
func MustQuoter(fees FeeSchedule) *Quoter {
	q, err := NewQuoter(fees)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Quoter) Fees() FeeSchedule { return q.fees }

// Fee returns ceil(amount * num / den).
func (q *Quoter) Fee(amount uint64) (uint64, error) {
	fee := mulDivCeil(uint128.From64(amount), q.fees.Numerator, q.fees.Denominator)
	return narrow(fee, "fee")
}

// ExactIn quotes selling exactly amountIn of the input token.
//
//	fee = ceil(amountIn * num / den)
//	net = amountIn - fee
//	out = floor(net * reserveOut / (reserveIn + net))
func (q *Quoter) ExactIn(amountIn, reserveIn, reserveOut uint64, decimalsIn, decimalsOut uint8) (SwapQuote, error) {
	if amountIn == 0 {
		return SwapQuote{}, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return SwapQuote{}, ErrEmptyReserves
	}

	fee, err := q.Fee(amountIn)
	if err != nil {
		return SwapQuote{}, err
	}
	net := amountIn - fee

	num := uint128.From64(net).Mul64(reserveOut)
	den := uint128.From64(reserveIn).Add64(net)
	out, err := narrow(num.Div(den), "amount out")
	if err != nil {
		return SwapQuote{}, err
	}

	price := SpotPrice(reserveIn, reserveOut, decimalsIn, decimalsOut)
	return SwapQuote{
		AmountIn:    amountIn,
		AmountOut:   out,
		Fee:         fee,
		Price:       price,
		PriceImpact: priceImpact(price, net, out, decimalsIn, decimalsOut),
	}, nil
}

// ExactOut quotes buying exactly amountOut of the output token.
//
//	net   = ceil(reserveIn * amountOut / (reserveOut - amountOut))
//	gross = ceil(net * den / (den - num)), bumped by one if the fee on gross
//	        would leave less than net
func (q *Quoter) ExactOut(amountOut, reserveIn, reserveOut uint64, decimalsIn, decimalsOut uint8) (SwapQuote, error) {
	if amountOut == 0 {
		return SwapQuote{}, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return SwapQuote{}, ErrEmptyReserves
	}
	if amountOut >= reserveOut {
		return SwapQuote{}, fmt.Errorf("%w: want %d, reserve %d", ErrExceedsReserve, amountOut, reserveOut)
	}

	netWide := mulDivCeil(uint128.From64(reserveIn), amountOut, reserveOut-amountOut)
	net, err := narrow(netWide, "net input")
	if err != nil {
		return SwapQuote{}, err
	}
	if net == 0 {
		return SwapQuote{}, fmt.Errorf("%w: net input rounds to zero", ErrZeroAmount)
	}

	grossWide := mulDivCeil(uint128.From64(net), q.fees.Denominator, q.fees.Denominator-q.fees.Numerator)
	gross, err := narrow(grossWide, "gross input")
	if err != nil {
		return SwapQuote{}, err
	}
	fee, err := q.Fee(gross)
	if err != nil {
		return SwapQuote{}, err
	}
	if gross-fee < net {
		if gross == math.MaxUint64 {
			return SwapQuote{}, fmt.Errorf("%w: gross input", ErrOverflow)
		}
		gross++
		if fee, err = q.Fee(gross); err != nil {
			return SwapQuote{}, err
		}
	}

	price := SpotPrice(reserveIn, reserveOut, decimalsIn, decimalsOut)
	return SwapQuote{
		AmountIn:    gross,
		AmountOut:   amountOut,
		Fee:         fee,
		Price:       price,
		PriceImpact: priceImpact(price, gross-fee, amountOut, decimalsIn, decimalsOut),
	}, nil
}

// SpotPrice returns units of the output token per unit of the input token,
// both scaled by their decimals.
func SpotPrice(reserveIn, reserveOut uint64, decimalsIn, decimalsOut uint8) float64 {
	in := float64(reserveIn) / math.Pow10(int(decimalsIn))
	if in == 0 {
		return 0
	}
	return (float64(reserveOut) / math.Pow10(int(decimalsOut))) / in
}

func priceImpact(price float64, netIn, out uint64, decimalsIn, decimalsOut uint8) float64 {
	exec := SpotPrice(netIn, out, decimalsIn, decimalsOut)
	if price == 0 {
		return 0
	}
	return (price - exec) / price * 100
}

// mulDivCeil computes ceil(a * b / d) in 128 bits. a*b never exceeds
// (2^64-1)^2 when a fits in 64 bits; callers keep a below 2^64.
func mulDivCeil(a uint128.Uint128, b, d uint64) uint128.Uint128 {
	q, r := a.Mul64(b).QuoRem64(d)
	if r != 0 {
		q = q.Add64(1)
	}
	return q
}

func narrow(v uint128.Uint128, what string) (uint64, error) {
	if v.Hi != 0 {
		return 0, fmt.Errorf("%w: %s does not fit in u64", ErrOverflow, what)
	}
	return v.Lo, nil
}
