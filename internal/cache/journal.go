package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/metrics"
	"github.com/aman-zulfiqar/wmgr/internal/models"
	"github.com/sirupsen/logrus"
)

// Sink is one destination for recorded trades.
type Sink interface {
	Name() string
	Record(ctx context.Context, trade *models.TradeEvent) error
	Close() error
}

// Journal writes each trade to every configured sink. Sink failures are
// logged and counted but never returned.
type Journal struct {
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

func NewJournal(logger *logrus.Logger, m *metrics.Metrics, sinks ...Sink) *Journal {
	if logger == nil {
		logger = logrus.New()
	}
	return &Journal{
		sinks:   sinks,
		timeout: 5 * time.Second,
		metrics: m,
		logger:  logger,
	}
}

// Record is best-effort.
func (j *Journal) Record(ctx context.Context, trade *models.TradeEvent) {
	for _, s := range j.sinks {
		sctx, cancel := context.WithTimeout(ctx, j.timeout)
		err := s.Record(sctx, trade)
		cancel()

		status := "ok"
		if err != nil {
			status = "error"
			j.logger.WithError(err).WithFields(logrus.Fields{
				"sink":      s.Name(),
				"signature": trade.Signature,
			}).Warn("failed to record trade")
		}
		j.metrics.RecordJournalWrite(s.Name(), status)
	}
}

func (j *Journal) Len() int { return len(j.sinks) }

func (j *Journal) Close() error {
	var errs []error
	for _, s := range j.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s close: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
