package orders

import "context"

// Inventory manages the per-product available-unit counter. Both methods run
// inside the transaction they were obtained from and must never let
// available_units go negative.
type Inventory interface {
	// Reserve locks the product row, rejects with fault.ErrNotFound or
	// fault.ErrOutOfStock, otherwise decrements available units by qty and
	// returns the locked product snapshot (price at reservation time).
	Reserve(ctx context.Context, productID string, qty int) (Product, error)

	// Release returns qty units to the product's available pool.
	Release(ctx context.Context, productID string, qty int) error
}

// Quotas tracks the running total of units each user has ordered across
// non-cancelled orders, capped at MaxUnitsPerUser.
type Quotas interface {
	// TryAdjust applies delta to the user's total. It rejects with
	// fault.ErrQuotaExceeded when the new total would fall outside
	// [0, MaxUnitsPerUser], fault.ErrNotFound when the user is unknown.
	// Returns the new total.
	TryAdjust(ctx context.Context, userID string, delta int) (int, error)
}

// Records holds the order rows themselves.
type Records interface {
	Create(ctx context.Context, o Order) error
	// ForUpdate loads an order with a row lock so status checks hold until commit.
	ForUpdate(ctx context.Context, orderID string) (Order, error)
	SetQuantity(ctx context.Context, orderID string, qty int) error
	MarkCancelled(ctx context.Context, orderID string) error
}

// Tx is one unit of work spanning the three stores. All mutations performed
// through it commit or roll back together.
type Tx interface {
	Inventory() Inventory
	Quotas() Quotas
	Records() Records
}

// Store is the transactional backing store the workflow runs against.
type Store interface {
	// Within runs fn inside a single serializable transaction. A nil return
	// commits; any error rolls everything back and is returned unchanged
	// (infrastructure failures are mapped to fault.ErrConflict or
	// fault.ErrUnavailable by the implementation).
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Detail reads one order joined with its product and user.
	Detail(ctx context.Context, orderID string) (Detail, error)

	// HistoryByUser lists a user's orders, newest first. Empty is not an error.
	HistoryByUser(ctx context.Context, userID string) ([]Detail, error)

	// ShipAllProcessing bulk-moves every Processing order to Shipped and
	// returns how many rows changed.
	ShipAllProcessing(ctx context.Context) (int64, error)
}
