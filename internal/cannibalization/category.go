package cannibalization

import (
	"context"
	"errors"
	"fmt"
	"math"

	"trade-promo-lab/internal/baseline"
	"trade-promo-lab/internal/domain"
)

// CategoryImpact compares baseline against actual volume for every
// category other than the promoted one over the window. Categories whose
// absolute impact rate clears the configured threshold are reported as
// cannibalization (volume lost) or halo_effect (volume gained).
func (a *Analyzer) CategoryImpact(ctx context.Context, tenantID, promotedCategory, customerID string, r domain.DateRange) ([]domain.CategoryImpactEntry, error) {
	categories, err := a.products.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var entries []domain.CategoryImpactEntry
	for _, category := range categories {
		if category == promotedCategory {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, ok, err := a.categoryTotals(ctx, tenantID, category, customerID, r)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// categoryTotals sums baseline and actual volume across a category's
// products. Products without a baseline are skipped.
func (a *Analyzer) categoryTotals(ctx context.Context, tenantID, category, customerID string, r domain.DateRange) (domain.CategoryImpactEntry, bool, error) {
	var entry domain.CategoryImpactEntry

	products, err := a.products.GetByCategory(ctx, tenantID, category)
	if err != nil {
		return entry, false, fmt.Errorf("load category %s: %w", category, err)
	}

	var baselineTotal, actualTotal float64
	for _, p := range products {
		w := domain.PromotionWindow{
			TenantID:   tenantID,
			ProductID:  p.ProductID,
			CustomerID: customerID,
			Dates:      r,
		}

		auto, err := a.estimator.Auto(ctx, w)
		if err != nil {
			if errors.Is(err, baseline.ErrNoBaselineAvailable) {
				continue
			}
			return entry, false, err
		}
		baselineTotal += auto.Recommended.TotalQuantity()

		actuals, err := a.sales.QuerySales(ctx, tenantID, p.ProductID, customerID, r)
		if err != nil {
			return entry, false, fmt.Errorf("query actuals for %s: %w", p.ProductID, err)
		}
		for _, rec := range actuals {
			actualTotal += rec.Quantity
		}
	}

	var impactRate float64
	if baselineTotal > 0 {
		impactRate = (baselineTotal - actualTotal) / baselineTotal * 100
	}
	if math.Abs(impactRate) <= a.cfg.CategoryImpactPct {
		return entry, false, nil
	}

	effect := domain.EffectCannibalization
	if impactRate < 0 {
		effect = domain.EffectHalo
	}
	entry = domain.CategoryImpactEntry{
		Category:       category,
		BaselineVolume: baselineTotal,
		ActualVolume:   actualTotal,
		ImpactRatePct:  impactRate,
		Effect:         effect,
	}
	return entry, true, nil
}
