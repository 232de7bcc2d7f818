package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
	"github.com/google/uuid"
)

const (
	// MinOrderQuantity..MaxOrderQuantity is the allowed quantity per order.
	MinOrderQuantity = 1
	MaxOrderQuantity = 5

	// MaxUnitsPerUser caps the total units a user may hold across active orders.
	MaxUnitsPerUser = 5
)

// Workflow orchestrates the order operations against a transactional Store.
// Every mutating operation re-checks its business rules on rows locked inside
// the active transaction, so concurrent requests serialize on the inventory
// and quota counters instead of racing on stale reads.
type Workflow struct {
	Store Store
}

func checkQuantity(qty int) error {
	if qty < MinOrderQuantity || qty > MaxOrderQuantity {
		return fmt.Errorf("quantity %d must be between %d and %d: %w",
			qty, MinOrderQuantity, MaxOrderQuantity, fault.ErrInvalidInput)
	}
	return nil
}

// PlaceOrder reserves qty units of a product for a user and creates a
// Processing order carrying the product's current price. Reservation, quota
// adjustment and order creation commit atomically or not at all.
func (w *Workflow) PlaceOrder(ctx context.Context, userID, productID string, qty int, address string) (Order, error) {
	if err := checkQuantity(qty); err != nil {
		return Order{}, err
	}
	if address == "" {
		return Order{}, fmt.Errorf("address is required: %w", fault.ErrInvalidInput)
	}

	var ord Order
	err := w.Store.Within(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.Inventory().Reserve(ctx, productID, qty)
		if err != nil {
			return err
		}
		if _, err := tx.Quotas().TryAdjust(ctx, userID, qty); err != nil {
			return err
		}
		now := time.Now().UTC()
		ord = Order{
			ID:         uuid.NewString(),
			UserID:     userID,
			ProductID:  productID,
			PriceCents: p.PriceCents,
			Quantity:   qty,
			Address:    address,
			Status:     StatusProcessing,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Records().Create(ctx, ord)
	})
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

// CancelOrder releases the order's units back to inventory and quota and
// marks it Cancelled. Shipped, Delivered and already-Cancelled orders are
// rejected, so a second cancel of the same order always fails.
func (w *Workflow) CancelOrder(ctx context.Context, orderID string) (Order, error) {
	var ord Order
	err := w.Store.Within(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		ord, err = tx.Records().ForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(ord.Status, StatusCancelled) {
			return fmt.Errorf("cannot cancel order in status %s: %w", ord.Status, fault.ErrInvalidState)
		}
		if err := tx.Inventory().Release(ctx, ord.ProductID, ord.Quantity); err != nil {
			return err
		}
		if _, err := tx.Quotas().TryAdjust(ctx, ord.UserID, -ord.Quantity); err != nil {
			return err
		}
		if err := tx.Records().MarkCancelled(ctx, orderID); err != nil {
			return err
		}
		ord.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

// UpdateOrder changes a Processing order's quantity, moving the difference
// through inventory and the user quota. Stock and quota are re-validated on
// locked rows, so growing an order can still fail with ErrOutOfStock or
// ErrQuotaExceeded.
func (w *Workflow) UpdateOrder(ctx context.Context, orderID string, newQty int) (Order, error) {
	if err := checkQuantity(newQty); err != nil {
		return Order{}, err
	}

	var ord Order
	err := w.Store.Within(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		ord, err = tx.Records().ForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !ord.Status.Mutable() {
			return fmt.Errorf("cannot update order in status %s: %w", ord.Status, fault.ErrInvalidState)
		}
		delta := newQty - ord.Quantity
		if delta == 0 {
			return nil
		}
		if delta > 0 {
			if _, err := tx.Inventory().Reserve(ctx, ord.ProductID, delta); err != nil {
				return err
			}
		} else {
			if err := tx.Inventory().Release(ctx, ord.ProductID, -delta); err != nil {
				return err
			}
		}
		if _, err := tx.Quotas().TryAdjust(ctx, ord.UserID, delta); err != nil {
			return err
		}
		if err := tx.Records().SetQuantity(ctx, orderID, newQty); err != nil {
			return err
		}
		ord.Quantity = newQty
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

// ViewOrder returns one order joined with its product and user.
func (w *Workflow) ViewOrder(ctx context.Context, orderID string) (Detail, error) {
	return w.Store.Detail(ctx, orderID)
}

// OrderHistory lists a user's orders. Zero orders is an empty slice, not an error.
func (w *Workflow) OrderHistory(ctx context.Context, userID string) ([]Detail, error) {
	return w.Store.HistoryByUser(ctx, userID)
}

// SaleEnd ships every Processing order in one bulk sweep and returns the
// number of orders affected. Called by the scheduler once the sale sells out.
func (w *Workflow) SaleEnd(ctx context.Context) (int64, error) {
	return w.Store.ShipAllProcessing(ctx)
}
