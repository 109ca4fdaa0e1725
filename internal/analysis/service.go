// Package analysis composes the baseline estimator, incremental
// calculator, cannibalization analyzer, and forward-buy detector into a
// single promotion-analysis service with short-TTL memoization.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/baseline"
	"trade-promo-lab/internal/cache"
	"trade-promo-lab/internal/cannibalization"
	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/forwardbuy"
	"trade-promo-lab/internal/incremental"
	"trade-promo-lab/internal/observability"
	"trade-promo-lab/internal/storage"
)

// Service runs the full analysis suite for promotions. Every operation is
// a pure function of repository reads; results are memoized per
// (tenant, promotion) for the configured TTL.
type Service struct {
	sales      storage.SalesStore
	products   storage.ProductStore
	promotions storage.PromotionStore

	estimator   *baseline.Estimator
	incremental *incremental.Calculator
	cann        *cannibalization.Analyzer
	fb          *forwardbuy.Detector

	reports *cache.TTL[string, *domain.PromotionReport]
	cfg     config.AnalysisConfig
	log     zerolog.Logger
	clock   func() time.Time
}

// NewService wires the engine together. The cache is owned here, not
// process-wide.
func NewService(
	sales storage.SalesStore,
	products storage.ProductStore,
	promotions storage.PromotionStore,
	cfg config.AnalysisConfig,
	log zerolog.Logger,
) (*Service, error) {
	reports, err := cache.NewTTL[string, *domain.PromotionReport](cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create report cache: %w", err)
	}

	estimator := baseline.NewEstimator(sales, cfg)
	return &Service{
		sales:       sales,
		products:    products,
		promotions:  promotions,
		estimator:   estimator,
		incremental: incremental.NewCalculator(sales),
		cann:        cannibalization.NewAnalyzer(products, promotions, sales, estimator, cfg, log),
		fb:          forwardbuy.NewDetector(sales, promotions, products, estimator, cfg, log),
		reports:     reports,
		cfg:         cfg,
		log:         log,
		clock:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock sets a custom clock for deterministic output.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

// Estimator exposes the shared baseline estimator.
func (s *Service) Estimator() *baseline.Estimator { return s.estimator }

// Cannibalization exposes the cannibalization analyzer.
func (s *Service) Cannibalization() *cannibalization.Analyzer { return s.cann }

// ForwardBuy exposes the forward-buy detector.
func (s *Service) ForwardBuy() *forwardbuy.Detector { return s.fb }

// CalculateBaseline runs the auto selector for a window.
func (s *Service) CalculateBaseline(ctx context.Context, w domain.PromotionWindow) (*domain.AutoBaselineResult, error) {
	return s.estimator.Auto(ctx, w)
}

// CalculateIncrementalVolume diffs actuals against the recommended
// baseline for a window.
func (s *Service) CalculateIncrementalVolume(ctx context.Context, w domain.PromotionWindow) (*domain.IncrementalAnalysis, error) {
	auto, err := s.estimator.Auto(ctx, w)
	if err != nil {
		return nil, err
	}
	return s.incremental.Calculate(ctx, w, auto.Recommended)
}

// AnalyzePromotionByID runs the full suite for every product of a stored
// promotion. Results are served from the cache when fresh.
func (s *Service) AnalyzePromotionByID(ctx context.Context, tenantID, promotionID string) (*domain.PromotionReport, error) {
	key := reportKey(tenantID, promotionID, "full")
	if report, ok := s.reports.Get(key); ok {
		observability.RecordCacheLookup(true)
		return report, nil
	}
	observability.RecordCacheLookup(false)

	promo, err := s.promotions.GetByID(ctx, tenantID, promotionID)
	if err != nil {
		return nil, fmt.Errorf("load promotion %s: %w", promotionID, err)
	}

	started := s.clock()
	report := &domain.PromotionReport{
		GeneratedAt: started,
		TenantID:    tenantID,
		PromotionID: promotionID,
		CustomerID:  promo.CustomerID,
		Dates:       promo.Dates,
	}

	for _, productID := range promo.ProductIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		product, err := s.analyzeProduct(ctx, promo.Window(productID))
		if err != nil {
			return nil, err
		}
		report.Products = append(report.Products, product)
	}

	observability.RecordAnalysis("promotion_report", "ok", s.clock().Sub(started).Seconds())
	s.reports.Set(key, report)
	return report, nil
}

// analyzeProduct runs every analysis for one promoted product. A product
// with no estimable baseline yields an analysis tagged with the baseline
// failure instead of failing the promotion.
func (s *Service) analyzeProduct(ctx context.Context, w domain.PromotionWindow) (*domain.ProductPromotionAnalysis, error) {
	result := &domain.ProductPromotionAnalysis{ProductID: w.ProductID}

	auto, err := s.estimator.Auto(ctx, w)
	if err != nil {
		if errors.Is(err, baseline.ErrNoBaselineAvailable) {
			s.log.Warn().Str("product", w.ProductID).Msg("no baseline available for promoted product")
			return result, nil
		}
		return nil, err
	}
	result.Baseline = auto

	if result.Incremental, err = s.incremental.Calculate(ctx, w, auto.Recommended); err != nil {
		return nil, err
	}
	if result.Cannibalization, err = s.cann.AnalyzePromotion(ctx, w); err != nil {
		return nil, err
	}
	if result.NetIncremental, err = s.cann.NetIncremental(ctx, w); err != nil {
		return nil, err
	}

	// Forward-buy analysis needs post-window history; a promotion that
	// ended too recently simply has none yet.
	fb, err := s.fb.Detect(ctx, w)
	if err != nil {
		if errors.Is(err, baseline.ErrNoBaselineAvailable) {
			s.log.Warn().Str("product", w.ProductID).Msg("no post-promotion baseline; skipping forward-buy analysis")
			return result, nil
		}
		return nil, err
	}
	result.ForwardBuy = fb

	if result.NetImpact, err = s.fb.NetPromotionImpact(ctx, w); err != nil {
		return nil, err
	}
	return result, nil
}
