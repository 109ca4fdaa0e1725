// Package cannibalization detects volume shifted from related products
// onto a promoted product, with category-level and cross-promotion
// (substitution-matrix) variants.
package cannibalization

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/baseline"
	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/incremental"
	"trade-promo-lab/internal/observability"
	"trade-promo-lab/internal/storage"
)

// Analyzer detects cannibalization around a promoted product.
type Analyzer struct {
	products    storage.ProductStore
	promotions  storage.PromotionStore
	sales       storage.SalesStore
	estimator   *baseline.Estimator
	incremental *incremental.Calculator
	cfg         config.AnalysisConfig
	log         zerolog.Logger
}

// NewAnalyzer creates a cannibalization analyzer.
func NewAnalyzer(
	products storage.ProductStore,
	promotions storage.PromotionStore,
	sales storage.SalesStore,
	estimator *baseline.Estimator,
	cfg config.AnalysisConfig,
	log zerolog.Logger,
) *Analyzer {
	return &Analyzer{
		products:    products,
		promotions:  promotions,
		sales:       sales,
		estimator:   estimator,
		incremental: incremental.NewCalculator(sales),
		cfg:         cfg,
		log:         log,
	}
}

// AnalyzePromotion finds related products whose baseline exceeded their
// actual sales during the promotion window by more than the configured
// rate threshold. Candidates for which no baseline can be estimated are
// skipped, never failed.
func (a *Analyzer) AnalyzePromotion(ctx context.Context, w domain.PromotionWindow) (*domain.CannibalizationAnalysis, error) {
	promoted, err := a.products.GetByID(ctx, w.TenantID, w.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load promoted product %s: %w", w.ProductID, err)
	}

	candidates, err := a.products.GetRelated(ctx, w.TenantID, promoted, a.cfg.RelatedCandidateCap)
	if err != nil {
		return nil, fmt.Errorf("find related products: %w", err)
	}

	analysis := &domain.CannibalizationAnalysis{Window: w}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, ok, err := a.analyzeCandidate(ctx, w, promoted, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			analysis.Entries = append(analysis.Entries, entry)
		}
	}

	sort.Slice(analysis.Entries, func(i, j int) bool {
		if analysis.Entries[i].CannibalizationRatePct != analysis.Entries[j].CannibalizationRatePct {
			return analysis.Entries[i].CannibalizationRatePct > analysis.Entries[j].CannibalizationRatePct
		}
		return analysis.Entries[i].RelatedProductID < analysis.Entries[j].RelatedProductID
	})

	analysis.Summary = summarize(analysis.Entries)
	return analysis, nil
}

// analyzeCandidate evaluates one related product. Returns ok=false when
// the candidate is filtered out or its baseline cannot be estimated.
func (a *Analyzer) analyzeCandidate(ctx context.Context, w domain.PromotionWindow, promoted, candidate *domain.Product) (domain.CannibalizationEntry, bool, error) {
	var entry domain.CannibalizationEntry

	hasSales, err := a.sales.HasSales(ctx, w.TenantID, candidate.ProductID, w.CustomerID)
	if err != nil {
		return entry, false, fmt.Errorf("check sales for %s: %w", candidate.ProductID, err)
	}
	if !hasSales {
		return entry, false, nil
	}

	candidateWindow := domain.PromotionWindow{
		TenantID:   w.TenantID,
		ProductID:  candidate.ProductID,
		CustomerID: w.CustomerID,
		Dates:      w.Dates,
	}
	auto, err := a.estimator.Auto(ctx, candidateWindow)
	if err != nil {
		if errors.Is(err, baseline.ErrNoBaselineAvailable) {
			a.log.Warn().Str("product", candidate.ProductID).Msg("skipping related product without baseline")
			observability.RecordSkippedCandidate("no_baseline")
			return entry, false, nil
		}
		return entry, false, err
	}

	actuals, err := a.sales.QuerySales(ctx, w.TenantID, candidate.ProductID, w.CustomerID, w.Dates)
	if err != nil {
		return entry, false, fmt.Errorf("query actuals for %s: %w", candidate.ProductID, err)
	}
	var actualVolume float64
	for _, rec := range actuals {
		actualVolume += rec.Quantity
	}

	baselineVolume := auto.Recommended.TotalQuantity()
	cannibalized := baselineVolume - actualVolume

	var rate float64
	if baselineVolume > 0 {
		rate = cannibalized / baselineVolume * 100
	}
	if rate <= a.cfg.CannibalizationRatePct {
		return entry, false, nil
	}

	entry = domain.CannibalizationEntry{
		RelatedProductID:       candidate.ProductID,
		RelatedProductName:     candidate.Name,
		BaselineVolume:         baselineVolume,
		ActualVolume:           actualVolume,
		CannibalizedVolume:     cannibalized,
		CannibalizationRatePct: rate,
		RevenueImpact:          cannibalized * candidate.Price,
		RelationshipTier:       domain.ClassifyRelationship(promoted, candidate),
	}
	return entry, true, nil
}

func summarize(entries []domain.CannibalizationEntry) domain.CannibalizationSummary {
	summary := domain.CannibalizationSummary{Count: len(entries)}
	if len(entries) == 0 {
		return summary
	}

	var rateSum float64
	for _, e := range entries {
		summary.TotalCannibalizedVolume += e.CannibalizedVolume
		summary.TotalRevenueImpact += e.RevenueImpact
		rateSum += e.CannibalizationRatePct
	}
	summary.AverageRatePct = rateSum / float64(len(entries))
	return summary
}
