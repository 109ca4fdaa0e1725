package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/analysis"
	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/fixtures"
	"trade-promo-lab/internal/observability"
)

const dateLayout = "2006-01-02"

func main() {
	mode := flag.String("mode", "", "Scan mode: substitution, category-impact, forwardbuy, predict-cannibalization, predict-risk (required)")
	tenantID := flag.String("tenant", fixtures.TenantID, "Tenant ID")
	category := flag.String("category", "", "Category to scan (substitution, category-impact, forwardbuy)")
	productID := flag.String("product", "", "Product ID (predict modes, category-impact)")
	customerID := flag.String("customer", "", "Customer ID (substitution, category-impact, predict modes)")
	startDate := flag.String("start", "", "Scan range start (YYYY-MM-DD)")
	endDate := flag.String("end", "", "Scan range end (YYYY-MM-DD)")
	discountPct := flag.Float64("discount-pct", 0, "Planned discount percent (predict-risk)")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (products, promotions)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (sales history)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage seeded with the demo dataset")

	configPath := flag.String("config", "", "Path to analysis config YAML (defaults apply when empty)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while scanning")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall deadline")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *mode == "" {
		logger.Fatal().Msg("--mode is required")
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

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		logger.Info().Str("addr", *metricsAddr).Msg("serving metrics")
	}

	stores, cleanup, err := openStores(ctx, logger, *useMemory, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("open stores")
	}
	defer cleanup()

	svc, err := analysis.NewService(stores.sales, stores.products, stores.promotions, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build analysis service")
	}

	var result any
	switch *mode {
	case "substitution":
		r := mustParseRange(logger, *startDate, *endDate)
		requireFlags(logger, map[string]string{"--category": *category, "--customer": *customerID})
		result, err = svc.Cannibalization().SubstitutionMatrix(ctx, *tenantID, *category, *customerID, r)
	case "category-impact":
		r := mustParseRange(logger, *startDate, *endDate)
		requireFlags(logger, map[string]string{"--category": *category, "--customer": *customerID})
		result, err = svc.Cannibalization().CategoryImpact(ctx, *tenantID, *category, *customerID, r)
	case "forwardbuy":
		r := mustParseRange(logger, *startDate, *endDate)
		requireFlags(logger, map[string]string{"--category": *category})
		result, err = svc.ForwardBuy().CategoryScan(ctx, *tenantID, *category, r)
	case "predict-cannibalization":
		requireFlags(logger, map[string]string{"--product": *productID, "--customer": *customerID})
		result, err = svc.Cannibalization().PredictCannibalization(ctx, *tenantID, *productID, *customerID)
	case "predict-risk":
		requireFlags(logger, map[string]string{"--product": *productID, "--customer": *customerID})
		result, err = svc.ForwardBuy().PredictRisk(ctx, *tenantID, *productID, *customerID, *discountPct)
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown scan mode")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("mode", *mode).Msg("scan failed")
	}

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}

func requireFlags(logger zerolog.Logger, flags map[string]string) {
	for name, value := range flags {
		if value == "" {
			logger.Fatal().Msgf("%s is required for this mode", name)
		}
	}
}

func mustParseRange(logger zerolog.Logger, start, end string) domain.DateRange {
	if start == "" || end == "" {
		logger.Fatal().Msg("--start and --end are required for this mode")
	}
	startT, err := time.Parse(dateLayout, start)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse start date")
	}
	endT, err := time.Parse(dateLayout, end)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse end date")
	}
	r := domain.NewDateRange(startT, endT)
	if !r.Valid() {
		logger.Fatal().Msgf("start date %s is after end date %s", start, end)
	}
	return r
}
