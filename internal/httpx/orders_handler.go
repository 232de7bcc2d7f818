package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-flash-sale/internal/auth"
	kafkax "github.com/ariefcatur/go-flash-sale/internal/kafka"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/ariefcatur/go-flash-sale/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type OrdersHandler struct {
	Flow     *orders.Workflow
	Producer *kafkax.Producer
	Redis    *redis.Client
	Service  string
	Auth     func(http.Handler) http.Handler
}

type placeOrderReq struct {
	Quantity int    `json:"quantity"`
	Address  string `json:"address"`
}

type updateOrderReq struct {
	Quantity int `json:"quantity"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(gr chi.Router) {
		gr.Use(h.Auth)
		gr.Post("/orders/{productID}", h.placeOrder)
		gr.Get("/orders", h.orderHistory)
		gr.Get("/orders/{id}", h.viewOrder)
		gr.Put("/orders/{id}", h.updateOrder)
		gr.Delete("/orders/{id}", h.cancelOrder)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord, err := h.Flow.PlaceOrder(ctx, userID, chi.URLParam(r, "productID"), req.Quantity, req.Address)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.afterMutation(ctx, orders.EventOrderPlaced, ord, r.Header.Get("X-Request-Id"))
	writeJSON(w, http.StatusCreated, ord)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord, err := h.Flow.CancelOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	h.afterMutation(ctx, orders.EventOrderCancelled, ord, r.Header.Get("X-Request-Id"))
	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord, err := h.Flow.UpdateOrder(ctx, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.afterMutation(ctx, orders.EventOrderUpdated, ord, r.Header.Get("X-Request-Id"))
	writeJSON(w, http.StatusOK, ord)
}

func (h *OrdersHandler) viewOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	d, err := h.Flow.ViewOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *OrdersHandler) orderHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ds, err := h.Flow.OrderHistory(ctx, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// afterMutation caches the order's status for fast reads and publishes the
// event. Both are best-effort; the transaction already committed.
func (h *OrdersHandler) afterMutation(ctx context.Context, eventType string, ord orders.Order, traceID string) {
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, ord.ID)
		_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, ord.Status), redisx.TTLStatusCache).Err()
	}
	if h.Producer == nil {
		return
	}

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: ord.ID,
	}
	ev.Payload = kafkax.MustMarshal(orders.OrderEventPayload{
		OrderID:    ord.ID,
		UserID:     ord.UserID,
		ProductID:  ord.ProductID,
		Quantity:   ord.Quantity,
		PriceCents: ord.PriceCents,
		Status:     ord.Status,
	})
	h.Producer.Publish(orders.PartitionKey(ord.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
