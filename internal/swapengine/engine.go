package swapengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/amm"
	"github.com/aman-zulfiqar/wmgr/internal/cache"
	"github.com/aman-zulfiqar/wmgr/internal/config"
	"github.com/aman-zulfiqar/wmgr/internal/metrics"
	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/aman-zulfiqar/wmgr/internal/raydium"
	"github.com/aman-zulfiqar/wmgr/internal/rpc"
	"github.com/aman-zulfiqar/wmgr/internal/spl"
	"github.com/aman-zulfiqar/wmgr/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// ErrJournalDisabled is returned by trade history reads when Redis is not
// configured.
var ErrJournalDisabled = errors.New("trade journal is not configured (set REDIS_ADDR)")

// Engine wires the RPC client, pool registry, quoter and trade journal.
type Engine struct {
	cfg     EngineConfig
	rpc     *rpc.Client
	raydium *raydium.Client
	pool    *raydium.Pool
	quoter  *amm.Quoter
	redis   *cache.RedisJournal
	journal *cache.Journal
	logger  *logrus.Logger
}

// EngineConfig holds configuration for the swap engine
type EngineConfig struct {
	Cluster    config.Cluster
	Commitment rpc.Commitment

	// RPC settings
	HTTPTimeout    time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	RPCRateLimit   float64
	RPCBurst       int
	ConfirmTimeout time.Duration

	// Pools and fees
	PoolConfigPath string
	Fees           amm.FeeSchedule

	// Journal; empty addresses disable a sink
	RedisAddr  string
	ClickHouse cache.ClickHouseConfig

	Metrics *metrics.Metrics
	Logger  *logrus.Logger
}

// NewEngineConfig combines process config with a resolved cluster.
func NewEngineConfig(cfg *config.Config, cluster config.Cluster, commitment rpc.Commitment) EngineConfig {
	return EngineConfig{
		Cluster:        cluster,
		Commitment:     commitment,
		HTTPTimeout:    cfg.HTTPTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		RPCRateLimit:   cfg.RPCRateLimit,
		RPCBurst:       cfg.RPCBurst,
		ConfirmTimeout: cfg.ConfirmTimeout,
		PoolConfigPath: cfg.PoolConfigPath,
		Fees:           amm.FeeSchedule{Numerator: cfg.FeeNumerator, Denominator: cfg.FeeDenominator},
		RedisAddr:      cfg.RedisAddr,
		ClickHouse: cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
	}
}

// NewEngine creates a new swap engine with all dependencies. Journal sinks
// that cannot be reached are logged and left out.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Fees == (amm.FeeSchedule{}) {
		cfg.Fees = amm.DefaultFees
	}
	logger := cfg.Logger

	// 1. Quoter
	quoter, err := amm.NewQuoter(cfg.Fees)
	if err != nil {
		return nil, err
	}

	// 2. RPC client
	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:           cfg.Cluster.RPCURL,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		Commitment:        cfg.Commitment,
		RequestsPerSecond: cfg.RPCRateLimit,
		Burst:             cfg.RPCBurst,
		Metrics:           cfg.Metrics,
		Logger:            logger,
	})

	// 3. Pool registry
	registry, err := raydium.NewRegistry(cfg.PoolConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool registry: %w", err)
	}
	pool, err := registry.FindByMints(spl.NativeMint, cfg.Cluster.USDCMint)
	if err != nil {
		// ResolvePool rejects this pool with ErrPoolMismatch
		pool, err = registry.FindByID(solana.MustPublicKeyFromBase58(raydium.SOLUSDCPoolID))
		if err != nil {
			return nil, err
		}
	}

	e := &Engine{
		cfg:     cfg,
		rpc:     rpcClient,
		raydium: raydium.NewClient(rpcClient, registry),
		pool:    pool,
		quoter:  quoter,
		logger:  logger,
	}

	// 4. Journal sinks
	var sinks []cache.Sink
	if cfg.RedisAddr != "" {
		rj := cache.NewRedisJournal(cfg.RedisAddr, logger)
		if err := rj.Ping(ctx); err != nil {
			logger.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, trade journal disabled")
			_ = rj.Close()
		} else {
			e.redis = rj
			sinks = append(sinks, rj)
		}
	}
	if cfg.ClickHouse.Addr != "" {
		ch, err := cache.NewClickHouseStore(ctx, cfg.ClickHouse, logger)
		if err != nil {
			logger.WithError(err).WithField("addr", cfg.ClickHouse.Addr).Warn("clickhouse unavailable, trade store disabled")
		} else {
			sinks = append(sinks, ch)
		}
	}
	e.journal = cache.NewJournal(logger, cfg.Metrics, sinks...)

	logger.WithFields(logrus.Fields{
		"cluster": cfg.Cluster.Name,
		"rpc":     cfg.Cluster.RPCURL,
		"pool":    pool.Name,
		"sinks":   e.journal.Len(),
	}).Debug("engine ready")

	return e, nil
}

func (e *Engine) RPC() *rpc.Client           { return e.rpc }
func (e *Engine) Cluster() config.Cluster    { return e.cfg.Cluster }
func (e *Engine) Pool() *raydium.Pool        { return e.pool }
func (e *Engine) Pools() []raydium.Pool      { return e.raydium.Registry().All() }
func (e *Engine) Quoter() *amm.Quoter        { return e.quoter }
func (e *Engine) Redis() *cache.RedisJournal { return e.redis }

// Orchestrator returns a state machine bound to signer and confirmer.
func (e *Engine) Orchestrator(signer Signer, confirmer Confirmer, observer Observer) *Orchestrator {
	return NewOrchestrator(e.raydium, e.rpc, signer, confirmer, OrchestratorConfig{
		PoolID:         e.pool.ID,
		USDCMint:       e.cfg.Cluster.USDCMint,
		Cluster:        e.cfg.Cluster.Name,
		Quoter:         e.quoter,
		ConfirmTimeout: e.cfg.ConfirmTimeout,
		Recorder:       e.journal,
		Observer:       observer,
		Metrics:        e.cfg.Metrics,
		Logger:         e.logger,
	})
}

// Wallet binds signer to the engine's RPC client.
func (e *Engine) Wallet(signer *wallet.Signer) *wallet.Wallet {
	return wallet.New(e.rpc, signer, e.logger).WithConfirmTimeout(e.cfg.ConfirmTimeout)
}

// Quote previews a trade without signing anything.
func (e *Engine) Quote(ctx context.Context, req TradeRequest) (*Preview, error) {
	return e.Orchestrator(nil, nil, nil).Preview(ctx, req)
}

func (e *Engine) Price(ctx context.Context, token Token) (*PriceQuote, error) {
	return e.Orchestrator(nil, nil, nil).Price(ctx, token)
}

// RecentTrades reads the Redis journal, newest first.
func (e *Engine) RecentTrades(ctx context.Context, limit int) ([]*models.TradeEvent, error) {
	if e.redis == nil {
		return nil, ErrJournalDisabled
	}
	return e.redis.RecentTrades(ctx, limit)
}

// Close cleans up all resources
func (e *Engine) Close() error {
	if err := e.journal.Close(); err != nil {
		return fmt.Errorf("close errors: %w", err)
	}
	return nil
}
