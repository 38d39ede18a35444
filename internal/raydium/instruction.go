package raydium

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/wmgr/internal/spl"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AMM v4 instruction tags.
const (
	TagSwapBaseIn  uint8 = 9
	TagSwapBaseOut uint8 = 11
)

// SwapKind selects between the two v4 swap instructions. Exactly one
// direction is encoded: ExactIn spends AmountIn and accepts no less than
// MinAmountOut; ExactOut receives AmountOut and spends at most MaxAmountIn.
type SwapKind struct {
	ExactOut bool

	AmountIn     uint64
	MinAmountOut uint64

	MaxAmountIn uint64
	AmountOut   uint64
}

func ExactIn(amountIn, minAmountOut uint64) SwapKind {
	return SwapKind{AmountIn: amountIn, MinAmountOut: minAmountOut}
}

func ExactOut(maxAmountIn, amountOut uint64) SwapKind {
	return SwapKind{ExactOut: true, MaxAmountIn: maxAmountIn, AmountOut: amountOut}
}

// InputAmount is the most the trade can take from the source account; it
// is also the lamport amount wrapped when the input is SOL.
func (k SwapKind) InputAmount() uint64 {
	if k.ExactOut {
		return k.MaxAmountIn
	}
	return k.AmountIn
}

func (k SwapKind) String() string {
	if k.ExactOut {
		return fmt.Sprintf("SwapBaseOut{max_in=%d out=%d}", k.MaxAmountIn, k.AmountOut)
	}
	return fmt.Sprintf("SwapBaseIn{in=%d min_out=%d}", k.AmountIn, k.MinAmountOut)
}

// payload is tag followed by two little-endian u64 values.
func (k SwapKind) payload() ([]byte, error) {
	tag, a, b := TagSwapBaseIn, k.AmountIn, k.MinAmountOut
	if k.ExactOut {
		tag, a, b = TagSwapBaseOut, k.MaxAmountIn, k.AmountOut
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(tag); err != nil {
		return nil, fmt.Errorf("failed to encode tag: %w", err)
	}
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("failed to encode first amount: %w", err)
	}
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("failed to encode second amount: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildSwapInstructions returns, in order: an idempotent ATA create for the
// input mint, one for the output mint when its ATA differs, the wSOL wrap
// (transfer plus SyncNative) when the input is SOL, and the swap itself.
func BuildSwapInstructions(
	pool *Pool,
	owner solana.PublicKey,
	inputMint solana.PublicKey,
	outputMint solana.PublicKey,
	kind SwapKind,
) ([]solana.Instruction, error) {
	if pool == nil {
		return nil, errors.New("pool cannot be nil")
	}
	if owner.IsZero() {
		return nil, errors.New("owner is zero")
	}

	sourceATA, err := spl.FindAssociatedTokenAddress(owner, inputMint)
	if err != nil {
		return nil, fmt.Errorf("derive source ata: %w", err)
	}
	destATA, err := spl.FindAssociatedTokenAddress(owner, outputMint)
	if err != nil {
		return nil, fmt.Errorf("derive destination ata: %w", err)
	}

	ixs := make([]solana.Instruction, 0, 5)
	ixs = append(ixs, spl.NewCreateIdempotentATAIx(owner, sourceATA, owner, inputMint))
	if !destATA.Equals(sourceATA) {
		ixs = append(ixs, spl.NewCreateIdempotentATAIx(owner, destATA, owner, outputMint))
	}

	if spl.IsNative(inputMint) {
		ixs = append(ixs,
			spl.NewSystemTransferIx(owner, sourceATA, kind.InputAmount()),
			spl.NewSyncNativeIx(sourceATA),
		)
	}

	swapIx, err := NewSwapInstruction(pool, owner, sourceATA, destATA, kind)
	if err != nil {
		return nil, err
	}
	return append(ixs, swapIx), nil
}

// NewSwapInstruction builds the bare v4 swap instruction.
// Account order:
// 0. token program
// 1. amm id (w)
// 2. amm authority
// 3. amm open orders (w)
// 4. coin vault (w)
// 5. pc vault (w)
// 6. market program
// 7. market id (w)
// 8. bids (w)
// 9. asks (w)
// 10. event queue (w)
// 11. market base vault (w)
// 12. market quote vault (w)
// 13. market authority
// 14. user source (w)
// 15. user destination (w)
// 16. owner (signer)
func NewSwapInstruction(pool *Pool, owner, source, destination solana.PublicKey, kind SwapKind) (solana.Instruction, error) {
	data, err := kind.payload()
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(spl.TokenProgramID),
		solana.Meta(pool.ID).WRITE(),
		solana.Meta(pool.Authority),
		solana.Meta(pool.OpenOrders).WRITE(),
		solana.Meta(pool.BaseVault).WRITE(),
		solana.Meta(pool.QuoteVault).WRITE(),
		solana.Meta(pool.MarketProgramID),
		solana.Meta(pool.MarketID).WRITE(),
		solana.Meta(pool.MarketBids).WRITE(),
		solana.Meta(pool.MarketAsks).WRITE(),
		solana.Meta(pool.MarketEventQueue).WRITE(),
		solana.Meta(pool.MarketBaseVault).WRITE(),
		solana.Meta(pool.MarketQuoteVault).WRITE(),
		solana.Meta(pool.MarketAuthority),
		solana.Meta(source).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	}

	return solana.NewInstruction(pool.ProgramID, accounts, data), nil
}
