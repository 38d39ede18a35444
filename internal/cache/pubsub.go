package cache

import (
	"context"
	"encoding/json"

	"github.com/aman-zulfiqar/wmgr/internal/models"
)

// Subscribe delivers every trade published on the live channel to handler
// until ctx is cancelled.
func (r *RedisJournal) Subscribe(ctx context.Context, handler func(*models.TradeEvent)) error {
	pubsub := r.client.Subscribe(ctx, liveChannel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	r.logger.WithField("channel", liveChannel).Info("subscribed to trades")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var trade models.TradeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &trade); err != nil {
				r.logger.WithError(err).Warn("error unmarshaling trade")
				continue
			}
			handler(&trade)
		}
	}
}
