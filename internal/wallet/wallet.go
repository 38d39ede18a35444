package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const DefaultConfirmTimeout = 60 * time.Second

// Chain is the subset of the Solana RPC client the wallet uses.
type Chain interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.AccountInfo, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction, timeout time.Duration) (solana.Signature, error)
}

// Wallet builds, signs and submits transactions for one keypair.
type Wallet struct {
	chain          Chain
	signer         *Signer
	confirmTimeout time.Duration
	logger         *logrus.Logger
}

func New(chain Chain, signer *Signer, logger *logrus.Logger) *Wallet {
	if logger == nil {
		logger = logrus.New()
	}
	return &Wallet{
		chain:          chain,
		signer:         signer,
		confirmTimeout: DefaultConfirmTimeout,
		logger:         logger,
	}
}

// WithConfirmTimeout sets how long sends wait for confirmation.
func (w *Wallet) WithConfirmTimeout(d time.Duration) *Wallet {
	if d > 0 {
		w.confirmTimeout = d
	}
	return w
}

func (w *Wallet) Address() string             { return w.signer.PublicKey().String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.signer.PublicKey() }
func (w *Wallet) Signer() *Signer             { return w.signer }

// BuildTransaction creates a transaction paid by the wallet, stamped with a
// fresh blockhash and signed.
func (w *Wallet) BuildTransaction(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error) {
	recentBlockhash, err := w.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recentBlockhash,
		solana.TransactionPayer(w.signer.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := w.signer.SignTx(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SignAndSend builds a signed transaction and waits for confirmation.
func (w *Wallet) SignAndSend(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	tx, err := w.BuildTransaction(ctx, instructions)
	if err != nil {
		return solana.Signature{}, err
	}
	return w.chain.SendAndConfirm(ctx, tx, w.confirmTimeout)
}

// Balances is the SOL and USDC holding of one address.
type Balances struct {
	Address      string `json:"address"`
	Lamports     uint64 `json:"lamports"`
	SOL          string `json:"sol"`
	USDCRaw      uint64 `json:"usdc_raw"`
	USDC         string `json:"usdc"`
	USDCDecimals uint8  `json:"usdc_decimals"`
}

// FetchBalances reads the SOL balance of owner and the balance of owner's
// associated account for usdcMint. A missing ATA reads as zero.
func FetchBalances(ctx context.Context, chain Chain, owner, usdcMint solana.PublicKey) (*Balances, error) {
	lamports, err := chain.GetBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch SOL balance: %w", err)
	}

	decimals := MintDecimals(ctx, chain, usdcMint)

	ata, err := spl.FindAssociatedTokenAddress(owner, usdcMint)
	if err != nil {
		return nil, fmt.Errorf("derive usdc ata: %w", err)
	}

	var usdcRaw uint64
	info, err := chain.GetAccountInfo(ctx, ata)
	switch {
	case errors.Is(err, rpc.ErrAccountNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to fetch USDC account: %w", err)
	default:
		acc, err := spl.DecodeTokenAccount(info.Data)
		if err != nil {
			return nil, err
		}
		usdcRaw = acc.Amount
	}

	return &Balances{
		Address:      owner.String(),
		Lamports:     lamports,
		SOL:          amount.Format(lamports, spl.SOLDecimals),
		USDCRaw:      usdcRaw,
		USDC:         amount.Format(usdcRaw, decimals),
		USDCDecimals: decimals,
	}, nil
}

// MintDecimals reads the decimals of mint, falling back to six when the
// account cannot be read or decoded.
func MintDecimals(ctx context.Context, chain Chain, mint solana.PublicKey) uint8 {
	info, err := chain.GetAccountInfo(ctx, mint)
	if err != nil {
		return spl.USDCDecimals
	}
	m, err := spl.DecodeMint(info.Data)
	if err != nil {
		return spl.USDCDecimals
	}
	return m.Decimals
}

// SendSOL transfers a human SOL amount to the recipient address.
func (w *Wallet) SendSOL(ctx context.Context, to, amountStr string) (solana.Signature, error) {
	recipient, err := spl.ParseAddress("recipient", to)
	if err != nil {
		return solana.Signature{}, err
	}
	lamports, err := amount.Parse(amountStr, spl.SOLDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	w.logger.WithFields(logrus.Fields{
		"to":       recipient.String(),
		"lamports": lamports,
	}).Debug("sending SOL")

	ix := spl.NewSystemTransferIx(w.signer.PublicKey(), recipient, lamports)
	return w.SignAndSend(ctx, []solana.Instruction{ix})
}

// SendToken transfers a human amount of mint to the recipient's associated
// token account, creating both ATAs idempotently first.
func (w *Wallet) SendToken(ctx context.Context, to string, mint solana.PublicKey, amountStr string) (solana.Signature, error) {
	recipient, err := spl.ParseAddress("recipient", to)
	if err != nil {
		return solana.Signature{}, err
	}

	decimals := MintDecimals(ctx, w.chain, mint)
	raw, err := amount.Parse(amountStr, decimals)
	if err != nil {
		return solana.Signature{}, err
	}

	owner := w.signer.PublicKey()
	fromATA, err := spl.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive sender ata: %w", err)
	}
	toATA, err := spl.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive recipient ata: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"to":       recipient.String(),
		"mint":     mint.String(),
		"amount":   raw,
		"decimals": decimals,
	}).Debug("sending token")

	ixs := []solana.Instruction{
		spl.NewCreateIdempotentATAIx(owner, fromATA, owner, mint),
		spl.NewCreateIdempotentATAIx(owner, toATA, recipient, mint),
		spl.NewTransferCheckedIx(fromATA, mint, toATA, owner, raw, decimals),
	}
	return w.SignAndSend(ctx, ixs)
}
