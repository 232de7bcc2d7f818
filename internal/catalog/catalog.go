// Package catalog serves the product listing side of the sale: paginated
// reads with a redis page cache, the sold/available totals, and the seeding
// routine that opens a sale with a fresh randomized catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-flash-sale/internal/fault"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/ariefcatur/go-flash-sale/internal/redisx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type Repo struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

type Page struct {
	Products      []orders.Product `json:"products"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"total_pages"`
	TotalProducts int              `json:"total_products"`
}

type Stats struct {
	TotalAvailable int `json:"total_available"`
	TotalSold      int `json:"total_sold"`
}

// List returns one page of products. Pages are cached in redis with a TTL;
// the DB stays the source of truth.
func (r *Repo) List(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	key := fmt.Sprintf(redisx.KeyProductPage, page, limit)
	if r.Redis != nil {
		if s, err := r.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var cached Page
			if json.Unmarshal([]byte(s), &cached) == nil {
				return cached, nil
			}
		}
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price_cents, available_units, sold_units, created_at, updated_at
		FROM products ORDER BY name
		LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	defer rows.Close()

	out := Page{Products: []orders.Product{}, Page: page, TotalProducts: total}
	out.TotalPages = (total + limit - 1) / limit
	for rows.Next() {
		var p orders.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.AvailableUnits, &p.SoldUnits, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return Page{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
		}
		out.Products = append(out.Products, p)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}

	if r.Redis != nil {
		if b, err := json.Marshal(out); err == nil {
			_ = r.Redis.Set(ctx, key, b, redisx.TTLProductPage).Err()
		}
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (orders.Product, error) {
	var p orders.Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, available_units, sold_units, created_at, updated_at
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.AvailableUnits, &p.SoldUnits, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.Product{}, fmt.Errorf("product %s: %w", id, fault.ErrNotFound)
	}
	if err != nil {
		return orders.Product{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	return p, nil
}

// Stats sums the available and sold unit counters across the catalog.
func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(available_units), 0), COALESCE(SUM(sold_units), 0)
		FROM products`).Scan(&s.TotalAvailable, &s.TotalSold)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	return s, nil
}

// Count is used by the scheduler to decide whether the sale has been seeded.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", fault.ErrUnavailable, err)
	}
	return n, nil
}
