package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventOrderUpdated   = "OrderUpdated"
	EventSaleEnded      = "SaleEnded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`   // uuid
	EventType     string          `json:"event_type"` // one of the consts above
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`    // e.g. "flash-sale-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id for order events
	Payload       json.RawMessage `json:"payload"`
}

// OrderEventPayload is shared by OrderPlaced, OrderCancelled and OrderUpdated.
type OrderEventPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int    `json:"price_cents"`
	Status     Status `json:"status"`
}

type SaleEndedPayload struct {
	ShippedOrders int64 `json:"shipped_orders"`
}
