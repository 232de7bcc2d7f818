// Package sale is the scheduler collaborator around the order core: it opens
// the sale by seeding the catalog and ends it once every unit is sold. The
// core itself holds no timers.
package sale

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-flash-sale/internal/catalog"
	kafkax "github.com/ariefcatur/go-flash-sale/internal/kafka"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Catalog is the slice of the catalog repo the scheduler needs.
type Catalog interface {
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (catalog.Stats, error)
	Seed(ctx context.Context, n, totalUnits int) error
}

// Sweeper ends the sale by bulk-shipping Processing orders.
type Sweeper interface {
	SaleEnd(ctx context.Context) (int64, error)
}

// Publisher matches kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Scheduler struct {
	Catalog Catalog
	Orders  Sweeper
	Events  Publisher // may be nil
	Service string

	Every          time.Duration
	SeedProducts   int
	SeedTotalUnits int
}

// Run seeds the catalog if the sale has not started, then sweeps on every
// tick until ctx is cancelled. Per-tick errors are logged and retried on the
// next tick; only ctx cancellation ends the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.startIfNeeded(ctx); err != nil {
		log.Printf("sale start: %v", err)
	}

	t := time.NewTicker(s.Every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("sale sweep: %v", err)
			}
		}
	}
}

func (s *Scheduler) startIfNeeded(ctx context.Context) error {
	n, err := s.Catalog.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := s.Catalog.Seed(ctx, s.SeedProducts, s.SeedTotalUnits); err != nil {
		return err
	}
	log.Printf("sale started: %d products, %d units", s.SeedProducts, s.SeedTotalUnits)
	return nil
}

// Tick ends the sale when the whole catalog is sold out: every Processing
// order ships in one bulk update. Idempotent; once everything has shipped
// the sweep affects zero rows.
func (s *Scheduler) Tick(ctx context.Context) error {
	st, err := s.Catalog.Stats(ctx)
	if err != nil {
		return err
	}
	if st.TotalAvailable > 0 || st.TotalSold == 0 {
		return nil
	}

	shipped, err := s.Orders.SaleEnd(ctx)
	if err != nil {
		return err
	}
	if shipped == 0 {
		return nil
	}
	log.Printf("sale ended: shipped %d orders", shipped)
	s.publishEnded(shipped)
	return nil
}

func (s *Scheduler) publishEnded(shipped int64) {
	if s.Events == nil {
		return
	}
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventSaleEnded,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.Service,
		Payload:      kafkax.MustMarshal(orders.SaleEndedPayload{ShippedOrders: shipped}),
	}
	s.Events.Publish([]byte(orders.EventSaleEnded), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventSaleEnded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
