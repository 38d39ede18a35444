package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	recentTradesKey = "trades:recent"
	liveChannel     = "trades:live"

	// MaxRecentTrades bounds the recent-trades list.
	MaxRecentTrades = 100
)

// RedisJournal keeps the most recent trades in a capped list and fans each
// new trade out on a pub/sub channel.
type RedisJournal struct {
	client redis.UniversalClient
	logger *logrus.Logger
}

func NewRedisJournal(addr string, logger *logrus.Logger) *RedisJournal {
	return NewRedisJournalFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	}), logger)
}

func NewRedisJournalFromClient(client redis.UniversalClient, logger *logrus.Logger) *RedisJournal {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisJournal{client: client, logger: logger}
}

func (r *RedisJournal) Name() string { return "redis" }

func (r *RedisJournal) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Record pushes trade onto the recent list, trims it and publishes it.
func (r *RedisJournal) Record(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, recentTradesKey, data)
	pipe.LTrim(ctx, recentTradesKey, 0, MaxRecentTrades-1)
	pipe.Publish(ctx, liveChannel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"signature": trade.Signature,
		"side":      trade.Side,
	}).Debug("trade recorded in redis")
	return nil
}

// RecentTrades returns up to limit trades, newest first.
func (r *RedisJournal) RecentTrades(ctx context.Context, limit int) ([]*models.TradeEvent, error) {
	if limit <= 0 || limit > MaxRecentTrades {
		limit = MaxRecentTrades
	}

	vals, err := r.client.LRange(ctx, recentTradesKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent trades: %w", err)
	}

	out := make([]*models.TradeEvent, 0, len(vals))
	for _, v := range vals {
		var t models.TradeEvent
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			r.logger.WithError(err).Warn("skipping malformed trade entry")
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

func (r *RedisJournal) Close() error {
	return r.client.Close()
}
