package cannibalization

import (
	"context"
	"fmt"
	"sort"

	"trade-promo-lab/internal/domain"
)

// PredictCannibalization forecasts the cannibalization a planned
// promotion would cause by averaging the product's recent completed
// promotions. This is a deterministic heuristic over history, not a
// learned model.
func (a *Analyzer) PredictCannibalization(ctx context.Context, tenantID, productID, customerID string) (*domain.CannibalizationForecast, error) {
	history, err := a.promotions.GetCompletedByProduct(ctx, tenantID, productID, a.cfg.HistoryPromotionLimit)
	if err != nil {
		return nil, fmt.Errorf("load promotion history: %w", err)
	}

	forecast := &domain.CannibalizationForecast{
		HistoricalPromotions: len(history),
	}
	if len(history) == 0 {
		forecast.Confidence = domain.ConfidenceInsufficientData
		return forecast, nil
	}

	var rateSum, impactSum float64
	analyzed := 0
	affectedCounts := make(map[string]int)
	for _, promo := range history {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		customer := promo.CustomerID
		if customerID != "" {
			customer = customerID
		}
		w := domain.PromotionWindow{
			TenantID:   tenantID,
			ProductID:  productID,
			CustomerID: customer,
			Dates:      promo.Dates,
		}

		analysis, err := a.AnalyzePromotion(ctx, w)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			a.log.Warn().Err(err).
				Str("promotion", promo.PromotionID).
				Msg("skipping historical promotion in cannibalization forecast")
			continue
		}

		rateSum += analysis.Summary.AverageRatePct
		impactSum += analysis.Summary.TotalRevenueImpact
		for _, entry := range analysis.Entries {
			affectedCounts[entry.RelatedProductID]++
		}
		analyzed++
	}

	if analyzed == 0 {
		forecast.Confidence = domain.ConfidenceInsufficientData
		return forecast, nil
	}

	forecast.AverageRatePct = rateSum / float64(analyzed)
	forecast.AverageRevenueImpact = impactSum / float64(analyzed)

	// Products cannibalized in at least the configured share of the
	// analyzed promotions are likely to be affected again.
	minCount := int(float64(analyzed)*a.cfg.RecurrencePct/100 + 0.5)
	if minCount < 1 {
		minCount = 1
	}
	for id, count := range affectedCounts {
		if count >= minCount {
			forecast.LikelyAffectedProducts = append(forecast.LikelyAffectedProducts, id)
		}
	}
	sort.Strings(forecast.LikelyAffectedProducts)

	if len(history) >= 3 {
		forecast.Confidence = domain.ConfidenceHigh
	} else {
		forecast.Confidence = domain.ConfidenceMedium
	}
	return forecast, nil
}
