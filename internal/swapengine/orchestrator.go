package swapengine

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/amount"
	"github.com/aman-zulfiqar/wmgr/internal/metrics"
	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/aman-zulfiqar/wmgr/internal/raydium"
	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PoolSource resolves pool keys and live reserves.
type PoolSource interface {
	FetchPool(ctx context.Context, id solana.PublicKey) (*raydium.Pool, error)
	FetchReserves(ctx context.Context, pool *raydium.Pool) (raydium.ReserveSnapshot, error)
}

// Chain is the RPC surface the state machine needs.
type Chain interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.AccountInfo, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*rpc.SimulationResult, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction, timeout time.Duration) (solana.Signature, error)
}

type Signer interface {
	PublicKey() solana.PublicKey
	SignTx(tx *solana.Transaction) error
}

// Recorder receives completed trades. Implementations must not fail the
// trade.
type Recorder interface {
	Record(ctx context.Context, trade *models.TradeEvent)
}

type OrchestratorConfig struct {
	PoolID         solana.PublicKey
	USDCMint       solana.PublicKey
	Cluster        string
	Quoter         *amm.Quoter
	ConfirmTimeout time.Duration

	Recorder Recorder
	Observer Observer
	Metrics  *metrics.Metrics
	Logger   *logrus.Logger
}

// Orchestrator runs one trade through ResolvePool .. SendAndConfirm. Each
// step consumes the typed output of the step before it, so a transaction
// can only reach send through simulate and confirm.
type Orchestrator struct {
	pools     PoolSource
	chain     Chain
	signer    Signer
	confirmer Confirmer
	cfg       OrchestratorConfig
	logger    *logrus.Logger
}

func NewOrchestrator(pools PoolSource, chain Chain, signer Signer, confirmer Confirmer, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Quoter == nil {
		cfg.Quoter = amm.MustQuoter(amm.DefaultFees)
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.USDCMint.IsZero() {
		cfg.USDCMint = spl.USDCMainnet
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Orchestrator{
		pools:     pools,
		chain:     chain,
		signer:    signer,
		confirmer: confirmer,
		cfg:       cfg,
		logger:    cfg.Logger,
	}
}

// Stage values. Each is only produced by the step of the same name.
type (
	resolvedPool struct {
		pool     *raydium.Pool
		reserves raydium.ReserveSnapshot
	}

	sidedTrade struct {
		*resolvedPool
		side                    Side
		inputToken, outputToken Token
		input, output           raydium.Mint
		inputIsBase             bool
	}

	quotedTrade struct {
		*sidedTrade
		quote amm.SwapQuote
	}

	boundedTrade struct {
		*quotedTrade
		slippage decimal.Decimal
		kind     raydium.SwapKind
		summary  *TradeSummary
	}

	verifiedTrade struct {
		*boundedTrade
	}

	builtTrade struct {
		*verifiedTrade
		instructions []solana.Instruction
	}

	simulatedTrade struct {
		*builtTrade
		simulation *rpc.SimulationResult
	}

	confirmedTrade struct {
		*simulatedTrade
	}
)

// Execute runs the full state machine. A declined confirmation returns an
// aborted Result with a nil error.
func (o *Orchestrator) Execute(ctx context.Context, req TradeRequest) (*Result, error) {
	if o.signer == nil || o.confirmer == nil {
		return nil, ErrNotConfigured
	}

	res := &Result{}
	if err := req.Validate(); err != nil {
		return o.abort(res, req, StateResolvePool, err, nil)
	}

	bt, state, err := o.prepare(ctx, req)
	if err != nil {
		return o.abort(res, req, state, err, nil)
	}
	res.Summary = bt.summary
	res.Quote = &bt.quote
	res.Kind = bt.kind

	o.enter(StateValidateMintOwnership)
	vt, err := o.validateMintOwnership(ctx, bt)
	if err != nil {
		return o.abort(res, req, StateValidateMintOwnership, err, nil)
	}

	o.enter(StateBuildInstructions)
	built, err := o.buildInstructions(vt)
	if err != nil {
		return o.abort(res, req, StateBuildInstructions, err, nil)
	}

	o.enter(StateSimulate)
	sim, logs, err := o.simulate(ctx, built)
	if err != nil {
		return o.abort(res, req, StateSimulate, err, logs)
	}

	o.enter(StateConfirm)
	confirmed, err := o.confirm(ctx, sim)
	if err != nil {
		return o.abort(res, req, StateConfirm, err, nil)
	}
	if confirmed == nil {
		return o.decline(res, req)
	}

	o.enter(StateSendAndConfirm)
	sig, err := o.send(ctx, confirmed)
	if err != nil {
		// a submitted transaction may still land after a confirmation timeout
		res.Signature = sig
		return o.abort(res, req, StateSendAndConfirm, err, nil)
	}

	res.Status = StatusDone
	res.Signature = sig
	o.enter(StateDone)
	o.cfg.Metrics.RecordTrade(string(req.Side), string(StatusDone))
	o.record(ctx, req, confirmed, sig)
	return res, nil
}

// Preview runs ResolvePool .. ApplySlippage only.
func (o *Orchestrator) Preview(ctx context.Context, req TradeRequest) (*Preview, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	bt, state, err := o.prepare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", state, err)
	}

	p := &Preview{
		Side:       req.Side,
		Token:      req.Token,
		Pool:       bt.pool.Name,
		InputMint:  bt.input.Address.String(),
		OutputMint: bt.output.Address.String(),
		Reserves:   bt.reserves,
		Quote:      bt.quote,
		Slippage:   bt.slippage.String(),
		Summary:    bt.summary,
	}
	if bt.kind.ExactOut {
		p.MaxAmountIn = bt.kind.MaxAmountIn
	} else {
		p.MinAmountOut = bt.kind.MinAmountOut
	}
	return p, nil
}

// Price returns the spot price of token in the other token of the pair.
func (o *Orchestrator) Price(ctx context.Context, token Token) (*PriceQuote, error) {
	if _, err := ParseToken(string(token)); err != nil {
		return nil, err
	}

	rp, err := o.resolvePool(ctx)
	if err != nil {
		return nil, err
	}
	if rp.reserves.Base == 0 || rp.reserves.Quote == 0 {
		return nil, amm.ErrEmptyReserves
	}

	mint := o.mintFor(token)
	if !rp.pool.HasMint(mint) {
		return nil, fmt.Errorf("token %w", ErrMintNotInPool)
	}

	isBase := rp.pool.IsBase(mint)
	tokenMint, otherMint := rp.pool.QuoteMint, rp.pool.BaseMint
	if isBase {
		tokenMint, otherMint = rp.pool.BaseMint, rp.pool.QuoteMint
	}
	reserveToken, reserveOther := rp.reserves.Oriented(isBase)

	otherPerToken := amm.SpotPrice(reserveToken, reserveOther, tokenMint.Decimals, otherMint.Decimals)
	return &PriceQuote{
		Token:         token,
		Other:         token.Other(),
		OtherPerToken: otherPerToken,
		TokenPerOther: 1 / otherPerToken,
		Slot:          rp.reserves.Slot,
	}, nil
}

// prepare runs the read-only states and reports the state that failed.
func (o *Orchestrator) prepare(ctx context.Context, req TradeRequest) (*boundedTrade, State, error) {
	start := time.Now()

	o.enter(StateResolvePool)
	rp, err := o.resolvePool(ctx)
	if err != nil {
		return nil, StateResolvePool, err
	}

	o.enter(StateValidateSide)
	st, err := o.validateSide(rp, req)
	if err != nil {
		return nil, StateValidateSide, err
	}

	o.enter(StateComputeQuote)
	qt, err := o.computeQuote(st, req.Amount)
	if err != nil {
		return nil, StateComputeQuote, err
	}

	o.enter(StateApplySlippage)
	bt, err := o.applySlippage(qt, req.Slippage)
	if err != nil {
		return nil, StateApplySlippage, err
	}

	o.cfg.Metrics.RecordQuote(string(req.Side), time.Since(start), bt.quote.PriceImpact)
	return bt, StateApplySlippage, nil
}

func (o *Orchestrator) resolvePool(ctx context.Context) (*resolvedPool, error) {
	pool, err := o.pools.FetchPool(ctx, o.cfg.PoolID)
	if err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}
	if !pool.MintsMatch(spl.NativeMint, o.cfg.USDCMint) {
		return nil, ErrPoolMismatch
	}

	reserves, err := o.pools.FetchReserves(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("fetch reserves: %w", err)
	}

	o.logger.WithFields(logrus.Fields{
		"pool":  pool.Name,
		"base":  reserves.Base,
		"quote": reserves.Quote,
		"slot":  reserves.Slot,
	}).Debug("pool resolved")

	return &resolvedPool{pool: pool, reserves: reserves}, nil
}

func (o *Orchestrator) validateSide(rp *resolvedPool, req TradeRequest) (*sidedTrade, error) {
	inTok, outTok := req.tokens()
	inMint, outMint := o.mintFor(inTok), o.mintFor(outTok)

	if !rp.pool.HasMint(inMint) {
		return nil, fmt.Errorf("input %w", ErrMintNotInPool)
	}
	if !rp.pool.HasMint(outMint) {
		return nil, fmt.Errorf("output %w", ErrMintNotInPool)
	}

	inputIsBase := rp.pool.IsBase(inMint)
	input, output := rp.pool.QuoteMint, rp.pool.BaseMint
	if inputIsBase {
		input, output = rp.pool.BaseMint, rp.pool.QuoteMint
	}

	return &sidedTrade{
		resolvedPool: rp,
		side:         req.Side,
		inputToken:   inTok,
		outputToken:  outTok,
		input:        input,
		output:       output,
		inputIsBase:  inputIsBase,
	}, nil
}

// computeQuote prices a sell as exact-in and a buy as exact-out. The
// amount is parsed with the decimals of the side it fixes.
func (o *Orchestrator) computeQuote(st *sidedTrade, amountStr string) (*quotedTrade, error) {
	reserveIn, reserveOut := st.reserves.Oriented(st.inputIsBase)
	dIn, dOut := st.input.Decimals, st.output.Decimals

	var (
		q   amm.SwapQuote
		err error
	)
	if st.side == SideSell {
		amountIn, perr := amount.Parse(amountStr, dIn)
		if perr != nil {
			return nil, perr
		}
		q, err = o.cfg.Quoter.ExactIn(amountIn, reserveIn, reserveOut, dIn, dOut)
	} else {
		amountOut, perr := amount.Parse(amountStr, dOut)
		if perr != nil {
			return nil, perr
		}
		q, err = o.cfg.Quoter.ExactOut(amountOut, reserveIn, reserveOut, dIn, dOut)
	}
	if err != nil {
		return nil, err
	}
	return &quotedTrade{sidedTrade: st, quote: q}, nil
}

func (o *Orchestrator) applySlippage(qt *quotedTrade, p decimal.Decimal) (*boundedTrade, error) {
	var (
		kind          raydium.SwapKind
		minOut, maxIn = qt.quote.AmountOut, qt.quote.AmountIn
		err           error
	)
	if qt.side == SideSell {
		minOut, err = amm.MinAmountOut(qt.quote.AmountOut, p)
		kind = raydium.ExactIn(qt.quote.AmountIn, minOut)
	} else {
		maxIn, err = amm.MaxAmountIn(qt.quote.AmountIn, p)
		kind = raydium.ExactOut(maxIn, qt.quote.AmountOut)
	}
	if err != nil {
		return nil, err
	}

	summary := newTradeSummary(qt.side, qt.inputToken, qt.outputToken,
		qt.input.Decimals, qt.output.Decimals, qt.quote, minOut, maxIn, p)

	return &boundedTrade{quotedTrade: qt, slippage: p, kind: kind, summary: summary}, nil
}

func (o *Orchestrator) validateMintOwnership(ctx context.Context, bt *boundedTrade) (*verifiedTrade, error) {
	for _, m := range []struct {
		label string
		mint  raydium.Mint
	}{
		{"input", bt.input},
		{"output", bt.output},
	} {
		info, err := o.chain.GetAccountInfo(ctx, m.mint.Address)
		if err != nil {
			return nil, fmt.Errorf("fetch %s mint: %w", m.label, err)
		}
		if !info.Owner.Equals(spl.TokenProgramID) {
			return nil, &MintOwnerError{Label: m.label, Mint: m.mint.Address, Owner: info.Owner}
		}

		// amounts were scaled with the pool's decimals
		onChain, err := spl.DecodeMint(info.Data)
		if err != nil {
			return nil, fmt.Errorf("%s mint: %w", m.label, err)
		}
		if onChain.Decimals != m.mint.Decimals {
			return nil, fmt.Errorf("%w: %s mint %s has %d decimals, pool config says %d",
				ErrMintDecimals, m.label, m.mint.Address, onChain.Decimals, m.mint.Decimals)
		}
	}
	return &verifiedTrade{boundedTrade: bt}, nil
}

func (o *Orchestrator) buildInstructions(vt *verifiedTrade) (*builtTrade, error) {
	ixs, err := raydium.BuildSwapInstructions(
		vt.pool,
		o.signer.PublicKey(),
		vt.input.Address,
		vt.output.Address,
		vt.kind,
	)
	if err != nil {
		return nil, fmt.Errorf("build instructions: %w", err)
	}
	return &builtTrade{verifiedTrade: vt, instructions: ixs}, nil
}

// simulate signs a fresh transaction and dry-runs it. Program logs are
// returned alongside a simulation error.
func (o *Orchestrator) simulate(ctx context.Context, bt *builtTrade) (*simulatedTrade, []string, error) {
	tx, err := o.signedTx(ctx, bt.instructions)
	if err != nil {
		return nil, nil, err
	}

	sim, err := o.chain.SimulateTransaction(ctx, tx)
	if err != nil {
		var logs []string
		if sim != nil {
			logs = sim.Logs
		}
		return nil, logs, err
	}
	if !sim.Success {
		return nil, sim.Logs, fmt.Errorf("%w: %s", ErrSimulationFailed, sim.Error)
	}

	o.logger.WithField("units", sim.UnitsConsumed).Debug("simulation ok")
	return &simulatedTrade{builtTrade: bt, simulation: sim}, nil, nil
}

// confirm returns nil without error when the user declines.
func (o *Orchestrator) confirm(ctx context.Context, st *simulatedTrade) (*confirmedTrade, error) {
	ok, err := o.confirmer.Confirm(ctx, st.summary)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &confirmedTrade{simulatedTrade: st}, nil
}

// send re-signs with a fresh blockhash, submits and waits for confirmation.
func (o *Orchestrator) send(ctx context.Context, ct *confirmedTrade) (solana.Signature, error) {
	tx, err := o.signedTx(ctx, ct.instructions)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := o.chain.SendAndConfirm(ctx, tx, o.cfg.ConfirmTimeout)
	if err != nil {
		return sig, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

func (o *Orchestrator) signedTx(ctx context.Context, ixs []solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := o.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(o.signer.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := o.signer.SignTx(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (o *Orchestrator) mintFor(t Token) solana.PublicKey {
	if t == TokenSOL {
		return spl.NativeMint
	}
	return o.cfg.USDCMint
}

func (o *Orchestrator) enter(s State) {
	o.logger.WithField("state", s.String()).Debug("trade state")
	o.cfg.Metrics.RecordStateTransition(s.String())
	if o.cfg.Observer != nil {
		o.cfg.Observer(s)
	}
}

func (o *Orchestrator) abort(res *Result, req TradeRequest, state State, err error, logs []string) (*Result, error) {
	res.Status = StatusAborted
	res.Abort = &Abort{State: state, Err: err, Logs: logs}

	o.logger.WithError(err).WithField("state", state.String()).Debug("trade aborted")
	o.enter(StateAborted)
	o.cfg.Metrics.RecordTrade(string(req.Side), string(StatusAborted))
	return res, err
}

func (o *Orchestrator) decline(res *Result, req TradeRequest) (*Result, error) {
	res.Status = StatusAborted
	res.Abort = &Abort{State: StateConfirm, Declined: true}

	o.enter(StateAborted)
	o.cfg.Metrics.RecordTrade(string(req.Side), "declined")
	return res, nil
}

func (o *Orchestrator) record(ctx context.Context, req TradeRequest, ct *confirmedTrade, sig solana.Signature) {
	if o.cfg.Recorder == nil {
		return
	}
	o.cfg.Recorder.Record(ctx, &models.TradeEvent{
		Signature:    sig.String(),
		Timestamp:    time.Now().UTC(),
		Cluster:      o.cfg.Cluster,
		Wallet:       o.signer.PublicKey().String(),
		Side:         string(req.Side),
		Pair:         ct.pool.Name,
		Pool:         ct.pool.ID.String(),
		TokenIn:      ct.inputToken.Symbol(),
		TokenOut:     ct.outputToken.Symbol(),
		AmountIn:     ct.quote.AmountIn,
		AmountOut:    ct.quote.AmountOut,
		MinAmountOut: ct.kind.MinAmountOut,
		MaxAmountIn:  ct.kind.MaxAmountIn,
		Fee:          ct.quote.Fee,
		Price:        ct.quote.Price,
		PriceImpact:  ct.quote.PriceImpact,
		Slippage:     ct.slippage.String(),
		Dex:          "raydium",
	})
}
