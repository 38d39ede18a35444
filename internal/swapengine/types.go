package swapengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/aman-zulfiqar/wmgr/internal/raydium"
	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var (
	ErrPoolMismatch     = errors.New("raydium pool mints do not match SOL/USDC")
	ErrMintNotInPool    = errors.New("mint not found in Raydium pool")
	ErrMintOwner        = errors.New("mint is not owned by the SPL Token program")
	ErrMintDecimals     = errors.New("mint decimals do not match the pool configuration")
	ErrSimulationFailed = rpc.ErrSimulationFailed
	ErrInvalidSide      = errors.New("invalid side (use buy or sell)")
	ErrInvalidToken     = errors.New("invalid token (use sol or usdc)")
	ErrNotConfigured    = errors.New("swapengine: trading requires a signer and a confirmer")
)

// MintOwnerError reports a pool mint owned by a program other than SPL
// Token, such as Token-2022.
type MintOwnerError struct {
	Label string
	Mint  solana.PublicKey
	Owner solana.PublicKey
}

func (e *MintOwnerError) Error() string {
	return fmt.Sprintf("%s mint %s is not owned by the SPL Token program (owner: %s). Raydium AMM v4 only supports SPL Token mints.",
		e.Label, e.Mint, e.Owner)
}

func (e *MintOwnerError) Is(target error) bool { return target == ErrMintOwner }

// Side is the direction of a trade relative to the named token.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(s))); side {
	case SideBuy, SideSell:
		return side, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Token is one side of the SOL/USDC pair.
type Token string

const (
	TokenSOL  Token = "sol"
	TokenUSDC Token = "usdc"
)

func ParseToken(s string) (Token, error) {
	switch t := Token(strings.ToLower(strings.TrimSpace(s))); t {
	case TokenSOL, TokenUSDC:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidToken, s)
}

func (t Token) Symbol() string {
	return strings.ToUpper(string(t))
}

func (t Token) Other() Token {
	if t == TokenSOL {
		return TokenUSDC
	}
	return TokenSOL
}

// TradeRequest is a buy or sell of Amount (human units) of Token.
//
// Selling X spends exactly Amount of X. Buying X receives exactly Amount of
// X and spends the other token.
type TradeRequest struct {
	Side     Side
	Token    Token
	Amount   string
	Slippage decimal.Decimal
}

// Validate performs the checks that need no network access.
func (r TradeRequest) Validate() error {
	if _, err := ParseSide(string(r.Side)); err != nil {
		return err
	}
	if _, err := ParseToken(string(r.Token)); err != nil {
		return err
	}
	d, err := amount.ParseDecimal(r.Amount)
	if err != nil {
		return err
	}
	if d.IsZero() {
		return amm.ErrZeroAmount
	}
	return amm.ValidateSlippage(r.Slippage)
}

// tokens returns (input, output) for the request.
func (r TradeRequest) tokens() (Token, Token) {
	if r.Side == SideBuy {
		return r.Token.Other(), r.Token
	}
	return r.Token, r.Token.Other()
}

// State is a step of the trade state machine.
type State int

const (
	StateResolvePool State = iota
	StateValidateSide
	StateComputeQuote
	StateApplySlippage
	StateValidateMintOwnership
	StateBuildInstructions
	StateSimulate
	StateConfirm
	StateSendAndConfirm
	StateDone
	StateAborted
)

var stateNames = [...]string{
	"ResolvePool",
	"ValidateSide",
	"ComputeQuote",
	"ApplySlippage",
	"ValidateMintOwnership",
	"BuildInstructions",
	"Simulate",
	"Confirm",
	"SendAndConfirm",
	"Done",
	"Aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Observer is told about every state the machine enters.
type Observer func(State)

type Status string

const (
	StatusDone    Status = "done"
	StatusAborted Status = "aborted"
)

// Abort describes why a run ended without a signature. Declined runs carry
// no error.
type Abort struct {
	State    State
	Err      error
	Declined bool
	Logs     []string
}

// Result is the terminal outcome of one run.
type Result struct {
	Status    Status
	Signature solana.Signature
	Abort     *Abort
	Summary   *TradeSummary
	Quote     *amm.SwapQuote
	Kind      raydium.SwapKind
}

func (r *Result) Done() bool { return r.Status == StatusDone }

// Preview is a slippage-bounded quote with no chain side effects.
type Preview struct {
	Side         Side                    `json:"side"`
	Token        Token                   `json:"token"`
	Pool         string                  `json:"pool"`
	InputMint    string                  `json:"input_mint"`
	OutputMint   string                  `json:"output_mint"`
	Reserves     raydium.ReserveSnapshot `json:"reserves"`
	Quote        amm.SwapQuote           `json:"quote"`
	MinAmountOut uint64                  `json:"min_amount_out,omitempty"`
	MaxAmountIn  uint64                  `json:"max_amount_in,omitempty"`
	Slippage     string                  `json:"slippage"`
	Summary      *TradeSummary           `json:"summary"`
}

// PriceQuote is the pool spot price of Token in the other token.
type PriceQuote struct {
	Token         Token   `json:"token"`
	Other         Token   `json:"other"`
	OtherPerToken float64 `json:"other_per_token"`
	TokenPerOther float64 `json:"token_per_other"`
	Slot          uint64  `json:"slot,omitempty"`
}
