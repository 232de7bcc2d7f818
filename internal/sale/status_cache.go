package sale

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-flash-sale/internal/kafka"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/ariefcatur/go-flash-sale/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// StatusCache consumes order events and keeps the redis order-status cache
// fresh, so status reads stay off the database between mutations.
type StatusCache struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderEvent is wired as the consumer handler for the orders topic.
func (c *StatusCache) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	switch env.EventType {
	case orders.EventOrderPlaced, orders.EventOrderCancelled, orders.EventOrderUpdated:
	default:
		return nil // ignore
	}

	// dedup by event_id
	dkey := fmt.Sprintf(redisx.KeyDedup, c.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, c.Redis, dkey)
	if exists {
		return nil
	}
	_ = c.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderEventPayload](env.Payload)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	return c.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, p.Status), redisx.TTLStatusCache).Err()
}
