package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scryptex/bridge-middleware/internal/metrics"
	"github.com/scryptex/bridge-middleware/pkg/bridge"
	"github.com/scryptex/bridge-middleware/pkg/bridge/transfer"
)

const publishTimeout = 2 * time.Second

var _ transfer.Notifier = (*Broker)(nil)

// Broker fans updates out across server instances over a redis channel. Every instance,
// the publishing one included, delivers to its own hub from Run.
type Broker struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	logger  *zap.Logger
}

// NewBroker creates a broker publishing on channel and delivering into hub.
func NewBroker(client redis.UniversalClient, channel string, hub *Hub, logger *zap.Logger) *Broker {
	return &Broker{client: client, channel: channel, hub: hub, logger: logger}
}

// NotifyTransaction publishes the update of tx. If redis is unreachable the update is
// delivered locally only.
func (b *Broker) NotifyTransaction(tx *bridge.Transaction) {
	ev := NewEvent(tx)
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("Failed to encode event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		metrics.ErrorsTotal.WithLabelValues("notify", "publish").Inc()
		b.logger.Warn("Failed to publish event, delivering locally",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		b.hub.Deliver(ev)
	}
}

// Run delivers published events to the hub until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("Subscribed to event channel", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("Discarding malformed event", zap.Error(err))
				continue
			}
			b.hub.Deliver(&ev)
		}
	}
}
