package models

import "time"

// TradeEvent is a completed swap as recorded in the trade journal. Amounts
// are raw integer units of their mints.
type TradeEvent struct {
	Signature    string    `json:"signature"`
	Timestamp    time.Time `json:"timestamp"`
	Cluster      string    `json:"cluster"`
	Wallet       string    `json:"wallet"`
	Side         string    `json:"side"` // "buy" or "sell"
	Pair         string    `json:"pair"`
	Pool         string    `json:"pool"`
	TokenIn      string    `json:"token_in"`
	TokenOut     string    `json:"token_out"`
	AmountIn     uint64    `json:"amount_in"`
	AmountOut    uint64    `json:"amount_out"`
	MinAmountOut uint64    `json:"min_amount_out,omitempty"`
	MaxAmountIn  uint64    `json:"max_amount_in,omitempty"`
	Fee          uint64    `json:"fee"`
	Price        float64   `json:"price"`
	PriceImpact  float64   `json:"price_impact"`
	Slippage     string    `json:"slippage"`
	Dex          string    `json:"dex"`
}
