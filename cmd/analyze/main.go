package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/analysis"
	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/fixtures"
	"trade-promo-lab/internal/reporting"
	"trade-promo-lab/internal/storage"
	chstore "trade-promo-lab/internal/storage/clickhouse"
	"trade-promo-lab/internal/storage/memory"
	pgstore "trade-promo-lab/internal/storage/postgres"
)

const dateLayout = "2006-01-02"

func main() {
	// Analysis target: either a stored promotion or an ad-hoc window.
	tenantID := flag.String("tenant", fixtures.TenantID, "Tenant ID")
	promotionID := flag.String("promotion-id", "", "Promotion ID for a full analysis report")
	productID := flag.String("product", "", "Product ID for an ad-hoc baseline/incremental window")
	customerID := flag.String("customer", "", "Customer ID for the ad-hoc window")
	startDate := flag.String("start", "", "Window start date (YYYY-MM-DD)")
	endDate := flag.String("end", "", "Window end date (YYYY-MM-DD)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (products, promotions)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (sales history)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage seeded with the demo dataset")

	// Behavior
	configPath := flag.String("config", "", "Path to analysis config YAML (defaults apply when empty)")
	outputJSON := flag.Bool("json", false, "Output as JSON instead of markdown")
	csvMode := flag.String("csv", "", "Emit CSV instead: incremental or cannibalization (promotion mode only)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall deadline")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *promotionID == "" && (*productID == "" || *customerID == "" || *startDate == "" || *endDate == "") {
		logger.Fatal().Msg("either --promotion-id or all of --product/--customer/--start/--end are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	stores, cleanup, err := openStores(ctx, logger, *useMemory, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open stores")
	}
	defer cleanup()

	svc, err := analysis.NewService(stores.sales, stores.products, stores.promotions, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build analysis service")
	}

	if *promotionID != "" {
		report, err := svc.AnalyzePromotionByID(ctx, *tenantID, *promotionID)
		if err != nil {
			logger.Fatal().Err(err).Str("promotion_id", *promotionID).Msg("analyze promotion")
		}
		switch {
		case *csvMode == "incremental":
			fmt.Print(reporting.RenderIncrementalCSV(report))
		case *csvMode == "cannibalization":
			fmt.Print(reporting.RenderCannibalizationCSV(report))
		case *csvMode != "":
			logger.Fatal().Str("csv", *csvMode).Msg("unknown csv mode, want incremental or cannibalization")
		case *outputJSON:
			printJSON(report)
		default:
			fmt.Print(reporting.RenderMarkdown(report))
		}
		return
	}

	w, err := parseWindow(*tenantID, *productID, *customerID, *startDate, *endDate)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse window")
	}

	inc, err := svc.CalculateIncrementalVolume(ctx, w)
	if err != nil {
		logger.Fatal().Err(err).Str("product_id", *productID).Msg("calculate incremental volume")
	}
	if *outputJSON {
		printJSON(inc)
		return
	}
	printIncremental(w, inc)
}

// stores bundles the three repositories behind their interfaces so memory
// and database backends swap cleanly.
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

func parseWindow(tenantID, productID, customerID, start, end string) (domain.PromotionWindow, error) {
	startT, err := time.Parse(dateLayout, start)
	if err != nil {
		return domain.PromotionWindow{}, fmt.Errorf("parse start date: %w", err)
	}
	endT, err := time.Parse(dateLayout, end)
	if err != nil {
		return domain.PromotionWindow{}, fmt.Errorf("parse end date: %w", err)
	}
	r := domain.NewDateRange(startT, endT)
	if !r.Valid() {
		return domain.PromotionWindow{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return domain.PromotionWindow{
		TenantID:   tenantID,
		ProductID:  productID,
		CustomerID: customerID,
		Dates:      r,
	}, nil
}

func printJSON(v any) {
	output, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(output))
}

func printIncremental(w domain.PromotionWindow, inc *domain.IncrementalAnalysis) {
	fmt.Println()
	fmt.Println("=== Incremental Volume ===")
	fmt.Printf("Product:             %s\n", w.ProductID)
	fmt.Printf("Customer:            %s\n", w.CustomerID)
	fmt.Printf("Window:              %s .. %s\n", w.Dates.Start.Format(dateLayout), w.Dates.End.Format(dateLayout))
	fmt.Printf("Baseline Method:     %s\n", inc.Method)
	fmt.Printf("Baseline Quantity:   %.2f\n", inc.Summary.TotalBaselineQty)
	fmt.Printf("Actual Quantity:     %.2f\n", inc.Summary.TotalActualQty)
	fmt.Printf("Incremental Qty:     %.2f\n", inc.Summary.TotalIncrementalQty)
	fmt.Printf("Incremental Revenue: %.2f\n", inc.Summary.TotalIncrementalRevenue)
	fmt.Printf("Overall Lift:        %.1f%%\n", inc.Summary.OverallLiftPct)
}
