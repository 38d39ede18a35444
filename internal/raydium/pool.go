// Package raydium models Raydium AMM v4 constant-product pools: pool keys,
// reserve snapshots and swap instruction assembly.
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// AmmV4ProgramID is the Raydium liquidity pool v4 program.
var AmmV4ProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

// Mint is a token mint and its decimals as recorded for a pool slot.
type Mint struct {
	Address  solana.PublicKey
	Decimals uint8
}

// Pool holds every account a v4 swap touches. Base is the "coin" side and
// Quote the "pc" side in Raydium's naming.
type Pool struct {
	Name       string
	ProgramID  solana.PublicKey
	ID         solana.PublicKey
	Authority  solana.PublicKey
	OpenOrders solana.PublicKey
	BaseVault  solana.PublicKey
	QuoteVault solana.PublicKey
	BaseMint   Mint
	QuoteMint  Mint

	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// HasMint reports whether mint sits in the base or quote slot.
func (p *Pool) HasMint(mint solana.PublicKey) bool {
	return p.BaseMint.Address.Equals(mint) || p.QuoteMint.Address.Equals(mint)
}

// IsBase reports whether mint is the pool's base mint.
func (p *Pool) IsBase(mint solana.PublicKey) bool {
	return p.BaseMint.Address.Equals(mint)
}

// MintsMatch reports whether the pool trades exactly the pair {a, b}, in
// either slot order.
func (p *Pool) MintsMatch(a, b solana.PublicKey) bool {
	return (p.BaseMint.Address.Equals(a) && p.QuoteMint.Address.Equals(b)) ||
		(p.BaseMint.Address.Equals(b) && p.QuoteMint.Address.Equals(a))
}

// ReserveSnapshot is the pool's vault balances at one point in time, in raw
// units.
type ReserveSnapshot struct {
	Base  uint64 `json:"base"`
	Quote uint64 `json:"quote"`
	Slot  uint64 `json:"slot,omitempty"`
}

// Oriented returns (reserveIn, reserveOut) for a trade whose input is the
// base mint when inputIsBase is true.
func (r ReserveSnapshot) Oriented(inputIsBase bool) (reserveIn, reserveOut uint64) {
	if inputIsBase {
		return r.Base, r.Quote
	}
	return r.Quote, r.Base
}
