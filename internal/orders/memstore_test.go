package orders

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
)

// memStore is an in-memory Store with real transaction semantics: Within runs
// fn against a shadow copy and swaps it in only on success, so an abort leaves
// every counter exactly as it was. The mutex serializes transactions, which is
// as strong as the serializable isolation the pg store asks for.
type memStore struct {
	mu       sync.Mutex
	products map[string]Product
	quotas   map[string]int
	records  map[string]Order

	createErr error // injected infrastructure failure for Create
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]Product{},
		quotas:   map[string]int{},
		records:  map[string]Order{},
	}
}

func (s *memStore) Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shadow := &memTx{
		products:  maps.Clone(s.products),
		quotas:    maps.Clone(s.quotas),
		records:   maps.Clone(s.records),
		createErr: s.createErr,
	}
	if err := fn(ctx, shadow); err != nil {
		return err
	}
	s.products, s.quotas, s.records = shadow.products, shadow.quotas, shadow.records
	return nil
}

func (s *memStore) Detail(ctx context.Context, orderID string) (Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.records[orderID]
	if !ok {
		return Detail{}, fmt.Errorf("order %s: %w", orderID, fault.ErrNotFound)
	}
	return Detail{
		Order:       o,
		ProductName: s.products[o.ProductID].Name,
		UserName:    "user " + o.UserID,
		UserEmail:   o.UserID + "@example.com",
	}, nil
}

func (s *memStore) HistoryByUser(ctx context.Context, userID string) ([]Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Detail{}
	for _, o := range s.records {
		if o.UserID == userID {
			out = append(out, Detail{Order: o, ProductName: s.products[o.ProductID].Name})
		}
	}
	return out, nil
}

func (s *memStore) ShipAllProcessing(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, o := range s.records {
		if o.Status == StatusProcessing {
			o.Status = StatusShipped
			s.records[id] = o
			n++
		}
	}
	return n, nil
}

// test helpers

func (s *memStore) product(id string) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) quota(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotas[userID]
}

func (s *memStore) order(id string) Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type memTx struct {
	products  map[string]Product
	quotas    map[string]int
	records   map[string]Order
	createErr error
}

func (t *memTx) Inventory() Inventory { return t }
func (t *memTx) Quotas() Quotas       { return t }
func (t *memTx) Records() Records     { return t }

func (t *memTx) Reserve(ctx context.Context, productID string, qty int) (Product, error) {
	p, ok := t.products[productID]
	if !ok {
		return Product{}, fmt.Errorf("product %s: %w", productID, fault.ErrNotFound)
	}
	if p.AvailableUnits < qty {
		return Product{}, fmt.Errorf("product %s: need %d, have %d: %w", productID, qty, p.AvailableUnits, fault.ErrOutOfStock)
	}
	p.AvailableUnits -= qty
	p.SoldUnits += qty
	t.products[productID] = p
	return p, nil
}

func (t *memTx) Release(ctx context.Context, productID string, qty int) error {
	p, ok := t.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, fault.ErrNotFound)
	}
	p.AvailableUnits += qty
	if p.SoldUnits -= qty; p.SoldUnits < 0 {
		p.SoldUnits = 0
	}
	t.products[productID] = p
	return nil
}

func (t *memTx) TryAdjust(ctx context.Context, userID string, delta int) (int, error) {
	total, ok := t.quotas[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, fault.ErrNotFound)
	}
	newTotal := total + delta
	if newTotal > MaxUnitsPerUser || newTotal < 0 {
		return 0, fmt.Errorf("user %s: total %d with delta %+d breaks the %d-unit cap: %w",
			userID, total, delta, MaxUnitsPerUser, fault.ErrQuotaExceeded)
	}
	t.quotas[userID] = newTotal
	return newTotal, nil
}

func (t *memTx) Create(ctx context.Context, o Order) error {
	if t.createErr != nil {
		return t.createErr
	}
	t.records[o.ID] = o
	return nil
}

func (t *memTx) ForUpdate(ctx context.Context, orderID string) (Order, error) {
	o, ok := t.records[orderID]
	if !ok {
		return Order{}, fmt.Errorf("order %s: %w", orderID, fault.ErrNotFound)
	}
	return o, nil
}

func (t *memTx) SetQuantity(ctx context.Context, orderID string, qty int) error {
	o := t.records[orderID]
	o.Quantity = qty
	t.records[orderID] = o
	return nil
}

func (t *memTx) MarkCancelled(ctx context.Context, orderID string) error {
	o := t.records[orderID]
	o.Status = StatusCancelled
	t.records[orderID] = o
	return nil
}
