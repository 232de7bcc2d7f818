package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Seed bulk-creates n products whose randomized stock sums to exactly
// totalUnits, with randomized prices. Used when a sale opens.
func (r *Repo) Seed(ctx context.Context, n, totalUnits int) error {
	products, err := seedPlan(n, totalUnits, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.ID, p.Name, p.PriceCents, p.AvailableUnits, p.SoldUnits, p.CreatedAt, p.UpdatedAt})
	}
	_, err = r.DB.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "price_cents", "available_units", "sold_units", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	return nil
}

// seedPlan spreads totalUnits across n products, at least one unit each,
// summing exactly to totalUnits.
func seedPlan(n, totalUnits int, rnd *rand.Rand) ([]orders.Product, error) {
	if n < 1 || totalUnits < n {
		return nil, fmt.Errorf("need at least one unit per product (%d products, %d units): %w",
			n, totalUnits, fault.ErrInvalidInput)
	}

	now := time.Now().UTC()
	out := make([]orders.Product, 0, n)
	used := 0
	for i := 1; i <= n; i++ {
		var units int
		if i == n {
			units = totalUnits - used
		} else {
			// leave room for one unit per remaining product
			room := totalUnits - used - (n - i)
			if room < 1 {
				units = 1
			} else {
				units = rnd.Intn(room) + 1
			}
		}
		used += units
		out = append(out, orders.Product{
			ID:             uuid.NewString(),
			Name:           fmt.Sprintf("Product %d", i),
			PriceCents:     (rnd.Intn(1000) + 1) * 100,
			AvailableUnits: units,
			SoldUnits:      0,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return out, nil
}
