package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-flash-sale/internal/catalog"
	"github.com/ariefcatur/go-flash-sale/internal/config"
	kafkax "github.com/ariefcatur/go-flash-sale/internal/kafka"
	"github.com/ariefcatur/go-flash-sale/internal/orders"
	"github.com/ariefcatur/go-flash-sale/internal/postgres"
	"github.com/ariefcatur/go-flash-sale/internal/redisx"
	"github.com/ariefcatur/go-flash-sale/internal/sale"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer for sale.ended
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicSaleEnded, 1024)
	prod.Start(ctx)

	service := cfg.ServiceName + "-worker"

	// Scheduler: seeds the catalog at sale start, ships everything once sold out.
	sched := &sale.Scheduler{
		Catalog:        &catalog.Repo{DB: db, Redis: rdb},
		Orders:         &orders.Workflow{Store: postgres.NewStore(db)},
		Events:         prod,
		Service:        service,
		Every:          cfg.SaleCheckEvery,
		SeedProducts:   cfg.SeedProducts,
		SeedTotalUnits: cfg.SeedTotalUnits,
	}

	// Consumer keeping the order-status cache warm.
	group := getenv("WORKER_GROUP", "sale-worker")
	workers := getint("WORKER_CONSUMERS", 8)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrders, workers)
	cache := &sale.StatusCache{Redis: rdb, ServiceName: service}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("status consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrders, workers)
		return cons.Start(gctx, cache.HandleOrderEvent)
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down worker...")
	case <-gctx.Done():
	}
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Printf("worker exit: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
