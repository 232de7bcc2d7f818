package sale

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-flash-sale/internal/catalog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	count  int
	stats  catalog.Stats
	seeded bool
}

func (f *fakeCatalog) Count(ctx context.Context) (int, error)           { return f.count, nil }
func (f *fakeCatalog) Stats(ctx context.Context) (catalog.Stats, error) { return f.stats, nil }
func (f *fakeCatalog) Seed(ctx context.Context, n, totalUnits int) error {
	f.seeded = true
	f.count = n
	return nil
}

type fakeSweeper struct {
	shipped int64
	calls   int
}

func (f *fakeSweeper) SaleEnd(ctx context.Context) (int64, error) {
	f.calls++
	return f.shipped, nil
}

type fakePublisher struct{ published int }

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) { f.published++ }

func TestStartSeedsEmptyCatalog(t *testing.T) {
	cat := &fakeCatalog{count: 0}
	s := &Scheduler{Catalog: cat, Orders: &fakeSweeper{}, SeedProducts: 10, SeedTotalUnits: 100}

	require.NoError(t, s.startIfNeeded(context.Background()))
	assert.True(t, cat.seeded)

	// a seeded catalog stays as it is
	cat2 := &fakeCatalog{count: 5}
	s.Catalog = cat2
	require.NoError(t, s.startIfNeeded(context.Background()))
	assert.False(t, cat2.seeded)
}

func TestTickWhileStockRemains(t *testing.T) {
	sw := &fakeSweeper{}
	s := &Scheduler{
		Catalog: &fakeCatalog{stats: catalog.Stats{TotalAvailable: 3, TotalSold: 7}},
		Orders:  sw,
	}
	require.NoError(t, s.Tick(context.Background()))
	assert.Zero(t, sw.calls, "sale keeps running while units remain")
}

func TestTickBeforeSaleStarted(t *testing.T) {
	sw := &fakeSweeper{}
	s := &Scheduler{Catalog: &fakeCatalog{}, Orders: sw}
	require.NoError(t, s.Tick(context.Background()))
	assert.Zero(t, sw.calls, "nothing sold yet means nothing to end")
}

func TestTickEndsSoldOutSale(t *testing.T) {
	sw := &fakeSweeper{shipped: 4}
	pub := &fakePublisher{}
	s := &Scheduler{
		Catalog: &fakeCatalog{stats: catalog.Stats{TotalAvailable: 0, TotalSold: 10}},
		Orders:  sw,
		Events:  pub,
		Service: "test-worker",
	}
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, 1, sw.calls)
	assert.Equal(t, 1, pub.published)

	// once everything shipped, later ticks stay quiet
	sw.shipped = 0
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, 2, sw.calls)
	assert.Equal(t, 1, pub.published, "no event for an empty sweep")
}
