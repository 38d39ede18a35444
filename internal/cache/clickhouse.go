package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/sirupsen/logrus"
)

const createTradesTable = `
	CREATE TABLE IF NOT EXISTS trades (
		signature      String,
		timestamp      DateTime64(3),
		cluster        LowCardinality(String),
		wallet         String,
		side           LowCardinality(String),
		pair           LowCardinality(String),
		pool           String,
		token_in       String,
		token_out      String,
		amount_in      UInt64,
		amount_out     UInt64,
		min_amount_out UInt64,
		max_amount_in  UInt64,
		fee            UInt64,
		price          Float64,
		price_impact   Float64,
		slippage       String,
		dex            LowCardinality(String)
	) ENGINE = MergeTree ORDER BY (timestamp, signature)
`

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore appends completed trades to the trades table.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*ClickHouseStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, createTradesTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create trades table: %w", err)
	}

	logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: logger}, nil
}

func (c *ClickHouseStore) Name() string { return "clickhouse" }

func (c *ClickHouseStore) Record(ctx context.Context, trade *models.TradeEvent) error {
	query := `
		INSERT INTO trades (
			signature, timestamp, cluster, wallet, side, pair, pool,
			token_in, token_out, amount_in, amount_out, min_amount_out,
			max_amount_in, fee, price, price_impact, slippage, dex
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		trade.Signature,
		trade.Timestamp,
		trade.Cluster,
		trade.Wallet,
		trade.Side,
		trade.Pair,
		trade.Pool,
		trade.TokenIn,
		trade.TokenOut,
		trade.AmountIn,
		trade.AmountOut,
		trade.MinAmountOut,
		trade.MaxAmountIn,
		trade.Fee,
		trade.Price,
		trade.PriceImpact,
		trade.Slippage,
		trade.Dex,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
