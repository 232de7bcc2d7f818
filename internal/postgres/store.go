package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements orders.Store on top of a pgx pool. Mutating workflow
// operations run inside one serializable transaction; row locks (FOR UPDATE)
// on the product and user rows serialize the inventory and quota counters.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

var _ orders.Store = (*Store)(nil)

// Within opens one transaction, hands the bound stores to fn, and commits on
// a nil return. Rollback is deferred so every other exit path releases the
// transaction.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx orders.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, storeTx{tx}); err != nil {
		return wrapStoreErr(err)
	}
	return wrapStoreErr(tx.Commit(ctx))
}

// wrapStoreErr leaves business errors alone and maps the rest: commit
// serialization failures become Conflict, everything else Unavailable.
func wrapStoreErr(err error) error {
	if err == nil || fault.Any(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", fault.ErrConflict, pgErr.Message)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", fault.ErrConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
}

type storeTx struct{ tx pgx.Tx }

func (t storeTx) Inventory() orders.Inventory { return inventoryStore{t.tx} }
func (t storeTx) Quotas() orders.Quotas       { return quotaStore{t.tx} }
func (t storeTx) Records() orders.Records     { return recordStore{t.tx} }

type inventoryStore struct{ tx pgx.Tx }

func (s inventoryStore) lock(ctx context.Context, productID string) (orders.Product, error) {
	var p orders.Product
	err := s.tx.QueryRow(ctx, `
		SELECT id, name, price_cents, available_units, sold_units, created_at, updated_at
		FROM products WHERE id = $1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.AvailableUnits, &p.SoldUnits, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Product{}, fmt.Errorf("product %s: %w", productID, fault.ErrNotFound)
	}
	if err != nil {
		return orders.Product{}, err
	}
	return p, nil
}

func (s inventoryStore) Reserve(ctx context.Context, productID string, qty int) (orders.Product, error) {
	p, err := s.lock(ctx, productID)
	if err != nil {
		return orders.Product{}, err
	}
	if p.AvailableUnits < qty {
		return orders.Product{}, fmt.Errorf("product %s: need %d, have %d: %w",
			productID, qty, p.AvailableUnits, fault.ErrOutOfStock)
	}
	_, err = s.tx.Exec(ctx, `
		UPDATE products
		SET available_units = available_units - $2,
		    sold_units      = sold_units + $2,
		    updated_at      = now()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return orders.Product{}, err
	}
	p.AvailableUnits -= qty
	p.SoldUnits += qty
	return p, nil
}

func (s inventoryStore) Release(ctx context.Context, productID string, qty int) error {
	if _, err := s.lock(ctx, productID); err != nil {
		return err
	}
	_, err := s.tx.Exec(ctx, `
		UPDATE products
		SET available_units = available_units + $2,
		    sold_units      = GREATEST(sold_units - $2, 0),
		    updated_at      = now()
		WHERE id = $1`, productID, qty)
	return err
}

type quotaStore struct{ tx pgx.Tx }

func (s quotaStore) TryAdjust(ctx context.Context, userID string, delta int) (int, error) {
	var total int
	err := s.tx.QueryRow(ctx,
		`SELECT total_ordered FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", userID, fault.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	newTotal := total + delta
	if newTotal > orders.MaxUnitsPerUser || newTotal < 0 {
		return 0, fmt.Errorf("user %s: total %d with delta %+d breaks the %d-unit cap: %w",
			userID, total, delta, orders.MaxUnitsPerUser, fault.ErrQuotaExceeded)
	}
	_, err = s.tx.Exec(ctx,
		`UPDATE users SET total_ordered = $2, updated_at = now() WHERE id = $1`, userID, newTotal)
	if err != nil {
		return 0, err
	}
	return newTotal, nil
}

type recordStore struct{ tx pgx.Tx }

func (s recordStore) Create(ctx context.Context, o orders.Order) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, product_id, price_cents, quantity, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.UserID, o.ProductID, o.PriceCents, o.Quantity, o.Address, o.Status, o.CreatedAt, o.UpdatedAt)
	return err
}

func (s recordStore) ForUpdate(ctx context.Context, orderID string) (orders.Order, error) {
	var o orders.Order
	err := s.tx.QueryRow(ctx, `
		SELECT id, user_id, product_id, price_cents, quantity, address, status, created_at, updated_at
		FROM orders WHERE id = $1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.UserID, &o.ProductID, &o.PriceCents, &o.Quantity, &o.Address, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Order{}, fmt.Errorf("order %s: %w", orderID, fault.ErrNotFound)
	}
	if err != nil {
		return orders.Order{}, err
	}
	return o, nil
}

func (s recordStore) SetQuantity(ctx context.Context, orderID string, qty int) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE orders SET quantity = $2, updated_at = now() WHERE id = $1`, orderID, qty)
	return err
}

func (s recordStore) MarkCancelled(ctx context.Context, orderID string) error {
	_, err := s.tx.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, orders.StatusCancelled)
	return err
}

const detailQuery = `
	SELECT o.id, o.user_id, o.product_id, o.price_cents, o.quantity, o.address,
	       o.status, o.created_at, o.updated_at,
	       p.name, u.name, u.email
	FROM orders o
	JOIN products p ON p.id = o.product_id
	JOIN users u ON u.id = o.user_id`

func scanDetail(row pgx.Row) (orders.Detail, error) {
	var d orders.Detail
	err := row.Scan(&d.ID, &d.UserID, &d.ProductID, &d.PriceCents, &d.Quantity, &d.Address,
		&d.Status, &d.CreatedAt, &d.UpdatedAt,
		&d.ProductName, &d.UserName, &d.UserEmail)
	return d, err
}

func (s *Store) Detail(ctx context.Context, orderID string) (orders.Detail, error) {
	d, err := scanDetail(s.DB.QueryRow(ctx, detailQuery+` WHERE o.id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Detail{}, fmt.Errorf("order %s: %w", orderID, fault.ErrNotFound)
	}
	if err != nil {
		return orders.Detail{}, wrapStoreErr(err)
	}
	return d, nil
}

func (s *Store) HistoryByUser(ctx context.Context, userID string) ([]orders.Detail, error) {
	rows, err := s.DB.Query(ctx, detailQuery+` WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	out := []orders.Detail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, d)
	}
	return out, wrapStoreErr(rows.Err())
}

func (s *Store) ShipAllProcessing(ctx context.Context) (int64, error) {
	ct, err := s.DB.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE status = $2`,
		orders.StatusShipped, orders.StatusProcessing)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return ct.RowsAffected(), nil
}
