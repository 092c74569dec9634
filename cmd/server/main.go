package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/godown-stock-ledger/internal/cache"
	"github.com/iliyamo/godown-stock-ledger/internal/config"
	"github.com/iliyamo/godown-stock-ledger/internal/database"
	"github.com/iliyamo/godown-stock-ledger/internal/handler"
	"github.com/iliyamo/godown-stock-ledger/internal/ledger"
	"github.com/iliyamo/godown-stock-ledger/internal/model"
	"github.com/iliyamo/godown-stock-ledger/internal/queue"
	"github.com/iliyamo/godown-stock-ledger/internal/repository"
	"github.com/iliyamo/godown-stock-ledger/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	godowns := repository.NewGodownRepo(db)
	stocks := repository.NewStockRepo(db)
	history := repository.NewHistoryRepo(db)
	brands := repository.NewBrandRepo(db)
	products := repository.NewProductRepo(db)
	bookings := repository.NewBookingRepo(db)
	dispatches := repository.NewDispatchRepo(db)

	refCache := cache.New(
		time.Duration(cfg.RefCacheTTLSec)*time.Second,
		nil, // production clock
		func(ctx context.Context) ([]string, []model.Brand, error) {
			types, err := products.ListTypes(ctx)
			if err != nil {
				return nil, nil, err
			}
			bs, err := brands.List(ctx)
			if err != nil {
				return nil, nil, err
			}
			return types, bs, nil
		},
	)

	coord := ledger.NewCoordinator(db, stocks, history, bookings)
	alloc := ledger.NewAllocator(db, stocks, history, brands)

	defaultPacking, err := decimal.NewFromString(cfg.PackingPercent)
	if err != nil {
		log.Fatalf("invalid BOOKING_PACKING_PERCENT %q: %v", cfg.PackingPercent, err)
	}

	// Redis is optional: a nil client disables the response cache and the
	// server keeps serving uncached.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()
	if rdb == nil {
		log.Println("redis unavailable, response cache disabled")
	}

	// The booking.created consumer writes the human-readable booking log.
	// It manages its own reconnects and never takes the server down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cacheCfg, rdb, router.Handlers{
		Godown:   handler.NewGodownHandler(godowns, stocks),
		Stock:    handler.NewStockHandler(db, alloc, coord, godowns, stocks, history, products, refCache),
		Booking:  handler.NewBookingHandler(coord, bookings, defaultPacking),
		Catalog:  handler.NewCatalogHandler(products, brands, refCache),
		Dispatch: handler.NewDispatchHandler(dispatches, bookings),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
