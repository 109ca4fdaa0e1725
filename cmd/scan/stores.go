package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/fixtures"
	"trade-promo-lab/internal/storage"
	chstore "trade-promo-lab/internal/storage/clickhouse"
	"trade-promo-lab/internal/storage/memory"
	pgstore "trade-promo-lab/internal/storage/postgres"
)

type stores struct {
	sales      storage.SalesStore
	products   storage.ProductStore
	promotions storage.PromotionStore
}

func openStores(ctx context.Context, logger zerolog.Logger, useMemory bool, postgresDSN, clickhouseDSN string) (*stores, func(), error) {
	if useMemory {
		products := memory.NewProductStore()
		promotions := memory.NewPromotionStore()
		sales := memory.NewSalesStore()
		if err := fixtures.Load(ctx, products, promotions, sales); err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		logger.Info().Msg("using in-memory storage with demo dataset")
		return &stores{sales: sales, products: products, promotions: promotions}, func() {}, nil
	}

	if postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required when not using --use-memory")
	}
	if clickhouseDSN == "" {
		return nil, nil, fmt.Errorf("--clickhouse-dsn is required when not using --use-memory")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	cleanup := func() {
		pool.Close()
		if err := conn.Close(); err != nil {
			logger.Warn().Err(err).Msg("close clickhouse connection")
		}
	}
	return &stores{
		sales:      chstore.NewSalesStore(conn),
		products:   pgstore.NewProductStore(pool),
		promotions: pgstore.NewPromotionStore(pool),
	}, cleanup, nil
}
