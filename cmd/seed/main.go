// Command seed applies the embedded schema migrations and loads data into
// the PostgreSQL/ClickHouse backends, either the built-in demo dataset or
// CSV files.
//
// CSV layouts (no header handling, first line is skipped):
//
//	products:   product_id,name,category,subcategory,brand,price
//	promotions: promotion_id,customer_id,product_ids(;-separated),start,end,discount_percent,status
//	sales:      date,product_id,customer_id,quantity,revenue
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/fixtures"
	"trade-promo-lab/internal/storage"
	chstore "trade-promo-lab/internal/storage/clickhouse"
	"trade-promo-lab/internal/storage/migrations"
	pgstore "trade-promo-lab/internal/storage/postgres"
)

const dateLayout = "2006-01-02"

func main() {
	tenantID := flag.String("tenant", fixtures.TenantID, "Tenant ID for loaded rows")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required)")

	demo := flag.Bool("demo", false, "Load the built-in demo dataset")
	productsCSV := flag.String("products-csv", "", "Path to products CSV")
	promotionsCSV := flag.String("promotions-csv", "", "Path to promotions CSV")
	salesCSV := flag.String("sales-csv", "", "Path to sales CSV")

	timeout := flag.Duration("timeout", 5*time.Minute, "Overall deadline")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal().Msg("--postgres-dsn and --clickhouse-dsn are required")
	}
	if !*demo && *productsCSV == "" && *promotionsCSV == "" && *salesCSV == "" {
		logger.Fatal().Msg("nothing to load: pass --demo or at least one CSV flag")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply postgres migrations")
	}
	logger.Info().Msg("postgres migrations applied")

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply clickhouse migrations")
	}
	defer conn.Close()
	logger.Info().Msg("clickhouse migrations applied")

	products := pgstore.NewProductStore(pool)
	promotions := pgstore.NewPromotionStore(pool)
	sales := chstore.NewSalesStore(conn)

	if *demo {
		if err := fixtures.Load(ctx, products, promotions, sales); err != nil {
			logger.Fatal().Err(err).Msg("load demo dataset")
		}
		logger.Info().Msg("demo dataset loaded")
		return
	}

	if *productsCSV != "" {
		n, err := loadProducts(ctx, products, *tenantID, *productsCSV)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *productsCSV).Msg("load products")
		}
		logger.Info().Int("rows", n).Msg("products loaded")
	}
	if *promotionsCSV != "" {
		n, err := loadPromotions(ctx, promotions, *tenantID, *promotionsCSV)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *promotionsCSV).Msg("load promotions")
		}
		logger.Info().Int("rows", n).Msg("promotions loaded")
	}
	if *salesCSV != "" {
		n, err := loadSales(ctx, sales, *tenantID, *salesCSV)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *salesCSV).Msg("load sales")
		}
		logger.Info().Int("rows", n).Msg("sales records loaded")
	}
}

// forEachRow streams CSV records, skipping the header line.
func forEachRow(path string, fields int, fn func(row []string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields

	count := 0
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if first {
			first = false
			continue
		}
		if err := fn(row); err != nil {
			return count, err
		}
		count++
	}
}

func loadProducts(ctx context.Context, store storage.ProductStore, tenantID, path string) (int, error) {
	return forEachRow(path, 6, func(row []string) error {
		price, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", row[0], err)
		}
		return store.Insert(ctx, &domain.Product{
			ProductID:   row[0],
			TenantID:    tenantID,
			Name:        row[1],
			Category:    row[2],
			Subcategory: row[3],
			Brand:       row[4],
			Price:       price,
		})
	})
}

func loadPromotions(ctx context.Context, store storage.PromotionStore, tenantID, path string) (int, error) {
	return forEachRow(path, 7, func(row []string) error {
		start, err := time.Parse(dateLayout, row[3])
		if err != nil {
			return fmt.Errorf("parse start date for %s: %w", row[0], err)
		}
		end, err := time.Parse(dateLayout, row[4])
		if err != nil {
			return fmt.Errorf("parse end date for %s: %w", row[0], err)
		}
		discount, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return fmt.Errorf("parse discount for %s: %w", row[0], err)
		}
		r := domain.NewDateRange(start, end)
		if !r.Valid() {
			return fmt.Errorf("promotion %s: start after end", row[0])
		}
		return store.Insert(ctx, &domain.Promotion{
			PromotionID:     row[0],
			TenantID:        tenantID,
			CustomerID:      row[1],
			ProductIDs:      strings.Split(row[2], ";"),
			Dates:           r,
			DiscountPercent: discount,
			Status:          domain.PromotionStatus(row[6]),
		})
	})
}

func loadSales(ctx context.Context, store storage.SalesStore, tenantID, path string) (int, error) {
	var batch []*domain.SalesRecord
	n, err := forEachRow(path, 5, func(row []string) error {
		date, err := time.Parse(dateLayout, row[0])
		if err != nil {
			return fmt.Errorf("parse date %q: %w", row[0], err)
		}
		qty, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return fmt.Errorf("parse quantity for %s/%s: %w", row[1], row[0], err)
		}
		revenue, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return fmt.Errorf("parse revenue for %s/%s: %w", row[1], row[0], err)
		}
		batch = append(batch, &domain.SalesRecord{
			Date:       domain.Day(date),
			ProductID:  row[1],
			CustomerID: row[2],
			TenantID:   tenantID,
			Quantity:   qty,
			Revenue:    revenue,
		})
		return nil
	})
	if err != nil {
		return n, err
	}
	if len(batch) == 0 {
		return 0, nil
	}
	return n, store.InsertBulk(ctx, batch)
}
