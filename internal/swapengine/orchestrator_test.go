package swapengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/aman-zulfiqar/wmgr/internal/raydium"
	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/aman-zulfiqar/wmgr/internal/wallet"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var token2022 = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

type fakePools struct {
	pool     *raydium.Pool
	reserves raydium.ReserveSnapshot
	err      error
	fetches  int
}

func (f *fakePools) FetchPool(_ context.Context, _ solana.PublicKey) (*raydium.Pool, error) {
	f.fetches++
	return f.pool, f.err
}

func (f *fakePools) FetchReserves(_ context.Context, _ *raydium.Pool) (raydium.ReserveSnapshot, error) {
	return f.reserves, nil
}

type fakeChain struct {
	owners   map[solana.PublicKey]solana.PublicKey
	decimals map[solana.PublicKey]uint8
	sim      *rpc.SimulationResult
	simErr   error
	sendErr  error

	calls []string
	sent  []*solana.Transaction
}

func (f *fakeChain) GetAccountInfo(_ context.Context, pk solana.PublicKey) (*rpc.AccountInfo, error) {
	f.calls = append(f.calls, "getAccountInfo")
	owner, ok := f.owners[pk]
	if !ok {
		owner = spl.TokenProgramID
	}
	decimals, ok := f.decimals[pk]
	if !ok {
		decimals = spl.USDCDecimals
		if pk.Equals(spl.NativeMint) {
			decimals = spl.SOLDecimals
		}
	}

	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(&token.Mint{Decimals: decimals, IsInitialized: true}); err != nil {
		return nil, err
	}
	return &rpc.AccountInfo{Owner: owner, Data: buf.Bytes()}, nil
}

func (f *fakeChain) GetLatestBlockhash(_ context.Context) (solana.Hash, error) {
	f.calls = append(f.calls, "getLatestBlockhash")
	return solana.HashFromBytes(bytes.Repeat([]byte{7}, 32)), nil
}

func (f *fakeChain) SimulateTransaction(_ context.Context, tx *solana.Transaction) (*rpc.SimulationResult, error) {
	f.calls = append(f.calls, "simulate")
	if f.sim == nil {
		return &rpc.SimulationResult{Success: true, Logs: []string{"Program log: ok"}}, nil
	}
	return f.sim, f.simErr
}

func (f *fakeChain) SendAndConfirm(_ context.Context, tx *solana.Transaction, _ time.Duration) (solana.Signature, error) {
	f.calls = append(f.calls, "send")
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], f.sendErr
}

type fakeConfirmer struct {
	answer bool
	err    error
	got    *TradeSummary
}

func (f *fakeConfirmer) Confirm(_ context.Context, s *TradeSummary) (bool, error) {
	f.got = s
	return f.answer, f.err
}

type recorder struct {
	trades []*models.TradeEvent
}

func (r *recorder) Record(_ context.Context, t *models.TradeEvent) {
	r.trades = append(r.trades, t)
}

func solUsdcPool(t *testing.T) *raydium.Pool {
	reg, err := raydium.NewRegistryFromConfigs(raydium.DefaultPools())
	require.NoError(t, err)
	pool, err := reg.FindByName("SOL/USDC")
	require.NoError(t, err)
	return pool
}

type harness struct {
	pools     *fakePools
	chain     *fakeChain
	confirmer *fakeConfirmer
	recorder  *recorder
	states    []State
	orch      *Orchestrator
	signer    *wallet.Signer
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		pools: &fakePools{
			pool:     solUsdcPool(t),
			reserves: raydium.ReserveSnapshot{Base: 10_000_000_000, Quote: 1_000_000_000, Slot: 42},
		},
		chain: &fakeChain{
			owners:   map[solana.PublicKey]solana.PublicKey{},
			decimals: map[solana.PublicKey]uint8{},
		},
		confirmer: &fakeConfirmer{answer: true},
		recorder:  &recorder{},
		signer:    wallet.NewSigner(solana.NewWallet().PrivateKey),
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h.orch = NewOrchestrator(h.pools, h.chain, h.signer, h.confirmer, OrchestratorConfig{
		PoolID:   h.pools.pool.ID,
		USDCMint: spl.USDCMainnet,
		Cluster:  "mainnet-beta",
		Quoter:   amm.MustQuoter(amm.DefaultFees),
		Recorder: h.recorder,
		Observer: func(s State) { h.states = append(h.states, s) },
		Logger:   logger,
	})
	return h
}

func sellSOL(amt, slippage string) TradeRequest {
	return TradeRequest{
		Side:     SideSell,
		Token:    TokenSOL,
		Amount:   amt,
		Slippage: decimal.RequireFromString(slippage),
	}
}

func TestExecute_SellSOL(t *testing.T) {
	h := newHarness(t)

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.NoError(t, err)
	require.True(t, res.Done())
	assert.Nil(t, res.Abort)

	assert.Equal(t, []State{
		StateResolvePool, StateValidateSide, StateComputeQuote, StateApplySlippage,
		StateValidateMintOwnership, StateBuildInstructions, StateSimulate,
		StateConfirm, StateSendAndConfirm, StateDone,
	}, h.states)

	require.NotNil(t, res.Quote)
	assert.Equal(t, uint64(90_702_432), res.Quote.AmountOut)
	assert.False(t, res.Kind.ExactOut)
	assert.Equal(t, uint64(1_000_000_000), res.Kind.AmountIn)
	assert.Equal(t, uint64(89_795_407), res.Kind.MinAmountOut)
	assert.Less(t, res.Kind.MinAmountOut, res.Quote.AmountOut)

	require.Len(t, h.chain.sent, 1)
	tx := h.chain.sent[0]
	assert.Equal(t, res.Signature, tx.Signatures[0])
	assert.NoError(t, tx.VerifySignatures())
	assert.Len(t, tx.Message.Instructions, 5, "two ATA creates, wrap, sync, swap")

	require.NotNil(t, h.confirmer.got)
	assert.Equal(t, "SOL", h.confirmer.got.InputSymbol)
	assert.Equal(t, "89.795407", h.confirmer.got.OutputMin)

	require.Len(t, h.recorder.trades, 1)
	tr := h.recorder.trades[0]
	assert.Equal(t, res.Signature.String(), tr.Signature)
	assert.Equal(t, "sell", tr.Side)
	assert.Equal(t, "SOL", tr.TokenIn)
	assert.Equal(t, "USDC", tr.TokenOut)
	assert.Equal(t, "raydium", tr.Dex)
}

func TestExecute_SimulatesAndConfirmsBeforeSend(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Execute(context.Background(), sellSOL("1", "0.5"))
	require.NoError(t, err)

	sim, send := -1, -1
	for i, c := range h.chain.calls {
		switch c {
		case "simulate":
			sim = i
		case "send":
			send = i
		}
	}
	require.GreaterOrEqual(t, sim, 0)
	assert.Greater(t, send, sim)

	// a fresh blockhash is fetched for the send
	assert.Equal(t, "getLatestBlockhash", h.chain.calls[send-1])
}

func TestExecute_BuySOLIsExactOut(t *testing.T) {
	h := newHarness(t)

	req := TradeRequest{Side: SideBuy, Token: TokenSOL, Amount: "1", Slippage: decimal.RequireFromString("1")}
	res, err := h.orch.Execute(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Done())

	assert.True(t, res.Kind.ExactOut)
	assert.Equal(t, uint64(1_000_000_000), res.Kind.AmountOut)
	assert.GreaterOrEqual(t, res.Kind.MaxAmountIn, res.Quote.AmountIn)

	require.Len(t, h.chain.sent, 1)
	assert.Len(t, h.chain.sent[0].Message.Instructions, 3, "no wrap when spending USDC")

	s := h.confirmer.got
	assert.Equal(t, SideBuy, s.Side)
	assert.Equal(t, "USDC", s.InputSymbol)
	assert.Equal(t, "SOL", s.OutputSymbol)
	assert.Equal(t, "1", s.OutputExpected)
}

func TestExecute_DeclineIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.confirmer.answer = false

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, res.Status)
	require.NotNil(t, res.Abort)
	assert.True(t, res.Abort.Declined)
	assert.Equal(t, StateConfirm, res.Abort.State)
	assert.NoError(t, res.Abort.Err)

	assert.Empty(t, h.chain.sent)
	assert.Empty(t, h.recorder.trades)
	assert.Equal(t, StateAborted, h.states[len(h.states)-1])
}

func TestExecute_ConfirmerError(t *testing.T) {
	h := newHarness(t)
	h.confirmer.err = errors.New("stdin closed")

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.Error(t, err)
	assert.Equal(t, StateConfirm, res.Abort.State)
	assert.False(t, res.Abort.Declined)
	assert.Empty(t, h.chain.sent)
}

func TestExecute_SimulationFailure(t *testing.T) {
	h := newHarness(t)
	h.chain.sim = &rpc.SimulationResult{
		Error: "InstructionError",
		Logs:  []string{"Program log: Error: exceeds desired slippage limit"},
	}
	h.chain.simErr = fmt.Errorf("%w: InstructionError", rpc.ErrSimulationFailed)

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.ErrorIs(t, err, ErrSimulationFailed)
	assert.Equal(t, StateSimulate, res.Abort.State)
	assert.Equal(t, h.chain.sim.Logs, res.Abort.Logs)

	assert.Nil(t, h.confirmer.got, "never asked to confirm")
	assert.Empty(t, h.chain.sent)
}

func TestExecute_PoolMismatch(t *testing.T) {
	h := newHarness(t)
	pool := *h.pools.pool
	pool.QuoteMint.Address = spl.USDCDevnet
	h.pools.pool = &pool

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.ErrorIs(t, err, ErrPoolMismatch)
	assert.Equal(t, StateResolvePool, res.Abort.State)
	assert.NotContains(t, h.chain.calls, "simulate")
}

func TestExecute_MintNotInPool(t *testing.T) {
	h := newHarness(t)
	h.orch.cfg.USDCMint = spl.USDCDevnet
	pool := *h.pools.pool
	pool.QuoteMint.Address = spl.USDCDevnet
	pool.BaseMint.Address = solana.NewWallet().PublicKey()
	h.pools.pool = &pool

	// the pool must still match the pair to pass ResolvePool
	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.ErrorIs(t, err, ErrPoolMismatch)
	assert.Equal(t, StateResolvePool, res.Abort.State)

	rp := &resolvedPool{pool: &pool}
	_, err = h.orch.validateSide(rp, sellSOL("1", "1"))
	require.ErrorIs(t, err, ErrMintNotInPool)
	assert.Equal(t, "input mint not found in Raydium pool", err.Error())

	buy := TradeRequest{Side: SideBuy, Token: TokenSOL}
	_, err = h.orch.validateSide(rp, buy)
	require.ErrorIs(t, err, ErrMintNotInPool)
	assert.Equal(t, "output mint not found in Raydium pool", err.Error())
}

func TestExecute_MintOwner(t *testing.T) {
	h := newHarness(t)
	h.chain.owners[spl.USDCMainnet] = token2022

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.ErrorIs(t, err, ErrMintOwner)
	assert.Equal(t, StateValidateMintOwnership, res.Abort.State)

	var owner *MintOwnerError
	require.ErrorAs(t, err, &owner)
	assert.Equal(t, "output", owner.Label)
	assert.True(t, strings.HasSuffix(err.Error(), "Raydium AMM v4 only supports SPL Token mints."))
	assert.NotContains(t, h.chain.calls, "simulate")
}

func TestExecute_InvalidRequest(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		req  TradeRequest
		want error
	}{
		{"side", TradeRequest{Side: "hold", Token: TokenSOL, Amount: "1"}, ErrInvalidSide},
		{"token", TradeRequest{Side: SideSell, Token: "bonk", Amount: "1"}, ErrInvalidToken},
		{"slippage", TradeRequest{Side: SideSell, Token: TokenSOL, Amount: "1", Slippage: decimal.NewFromInt(101)}, amm.ErrSlippageOutOfRange},
		{"amount syntax", TradeRequest{Side: SideSell, Token: TokenSOL, Amount: "1,5"}, amount.ErrInvalidAmount},
		{"zero amount", TradeRequest{Side: SideSell, Token: TokenSOL, Amount: "0"}, amm.ErrZeroAmount},
		{"zero with fraction", TradeRequest{Side: SideBuy, Token: TokenUSDC, Amount: "0.0"}, amm.ErrZeroAmount},
		{"zero with leading zeros", TradeRequest{Side: SideSell, Token: TokenSOL, Amount: "000"}, amm.ErrZeroAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.orch.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateResolvePool, res.Abort.State)
		})
	}
	assert.Empty(t, h.chain.calls)
	assert.Zero(t, h.pools.fetches)
}

func TestPreview_ZeroAmountMakesNoCalls(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Preview(context.Background(), sellSOL("0.000", "1"))
	require.ErrorIs(t, err, amm.ErrZeroAmount)
	assert.Zero(t, h.pools.fetches)
}

func TestExecute_MintDecimalsMismatch(t *testing.T) {
	h := newHarness(t)
	h.chain.decimals[spl.USDCMainnet] = 9

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.ErrorIs(t, err, ErrMintDecimals)
	assert.Equal(t, StateValidateMintOwnership, res.Abort.State)
	assert.Contains(t, err.Error(), "output mint")
	assert.NotContains(t, h.chain.calls, "simulate")
	assert.Empty(t, h.chain.sent)
}

func TestExecute_SendErrorKeepsSignature(t *testing.T) {
	h := newHarness(t)
	h.chain.sendErr = errors.New("transaction confirmation timeout")

	res, err := h.orch.Execute(context.Background(), sellSOL("1", "1"))
	require.Error(t, err)
	assert.Equal(t, StateSendAndConfirm, res.Abort.State)
	require.Len(t, h.chain.sent, 1)
	assert.Equal(t, h.chain.sent[0].Signatures[0], res.Signature)
	assert.False(t, res.Done())
	assert.Empty(t, h.recorder.trades)
}

func TestExecute_AmountUsesFixedSideDecimals(t *testing.T) {
	h := newHarness(t)

	// a buy of USDC fixes the USDC side, whose 6 decimals truncate this to zero
	req := TradeRequest{Side: SideBuy, Token: TokenUSDC, Amount: "0.0000001", Slippage: decimal.NewFromInt(1)}
	res, err := h.orch.Execute(context.Background(), req)
	require.ErrorIs(t, err, amm.ErrZeroAmount)
	assert.Equal(t, StateComputeQuote, res.Abort.State)

	// the same string is 100 lamports of SOL
	res, err = h.orch.Execute(context.Background(), sellSOL("0.0000001", "1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.Kind.AmountIn)
}

func TestExecute_RequiresSignerAndConfirmer(t *testing.T) {
	h := newHarness(t)
	o := NewOrchestrator(h.pools, h.chain, nil, nil, OrchestratorConfig{PoolID: h.pools.pool.ID})

	_, err := o.Execute(context.Background(), sellSOL("1", "1"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPreview(t *testing.T) {
	h := newHarness(t)

	p, err := h.orch.Preview(context.Background(), sellSOL("1", "1"))
	require.NoError(t, err)
	assert.Equal(t, "SOL/USDC", p.Pool)
	assert.Equal(t, spl.NativeMint.String(), p.InputMint)
	assert.Equal(t, uint64(89_795_407), p.MinAmountOut)
	assert.Zero(t, p.MaxAmountIn)
	assert.Equal(t, uint64(42), p.Reserves.Slot)
	assert.Equal(t, "1", p.Slippage)

	assert.Empty(t, h.chain.calls, "preview never touches the chain")
	assert.Equal(t, StateApplySlippage, h.states[len(h.states)-1])
}

func TestPrice(t *testing.T) {
	h := newHarness(t)

	p, err := h.orch.Price(context.Background(), TokenSOL)
	require.NoError(t, err)
	assert.Equal(t, TokenUSDC, p.Other)
	assert.InDelta(t, 100.0, p.OtherPerToken, 1e-9)
	assert.InDelta(t, 0.01, p.TokenPerOther, 1e-12)

	p, err = h.orch.Price(context.Background(), TokenUSDC)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, p.OtherPerToken, 1e-12)

	h.pools.reserves = raydium.ReserveSnapshot{}
	_, err = h.orch.Price(context.Background(), TokenSOL)
	assert.ErrorIs(t, err, amm.ErrEmptyReserves)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ValidateMintOwnership", StateValidateMintOwnership.String())
	assert.Equal(t, "Aborted", StateAborted.String())
	assert.Equal(t, "State(99)", State(99).String())
}
