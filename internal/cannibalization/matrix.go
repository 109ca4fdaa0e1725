package cannibalization

import (
	"context"
	"fmt"

	"trade-promo-lab/internal/domain"
)

// SubstitutionMatrix runs AnalyzePromotion for every promotion touching
// the category's products within the date range and flattens the observed
// substitution pairs. A per-promotion failure skips that promotion; the
// batch never aborts.
func (a *Analyzer) SubstitutionMatrix(ctx context.Context, tenantID, category, customerID string, r domain.DateRange) (*domain.SubstitutionMatrix, error) {
	products, err := a.products.GetByCategory(ctx, tenantID, category)
	if err != nil {
		return nil, fmt.Errorf("load category %s: %w", category, err)
	}

	productIDs := make([]string, len(products))
	inCategory := make(map[string]struct{}, len(products))
	for i, p := range products {
		productIDs[i] = p.ProductID
		inCategory[p.ProductID] = struct{}{}
	}

	promotions, err := a.promotions.GetByProductsInRange(ctx, tenantID, productIDs, r)
	if err != nil {
		return nil, fmt.Errorf("load promotions for category %s: %w", category, err)
	}

	matrix := &domain.SubstitutionMatrix{Category: category}
	for _, promo := range promotions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		customer := promo.CustomerID
		if customerID != "" {
			customer = customerID
		}

		for _, productID := range promo.ProductIDs {
			if _, ok := inCategory[productID]; !ok {
				continue
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
					Str("product", productID).
					Msg("skipping promotion in substitution matrix")
				continue
			}

			for _, entry := range analysis.Entries {
				matrix.Pairs = append(matrix.Pairs, domain.SubstitutionPair{
					FromProductID: entry.RelatedProductID,
					ToProductID:   productID,
					RatePct:       entry.CannibalizationRatePct,
					Volume:        entry.CannibalizedVolume,
					RevenueImpact: entry.RevenueImpact,
					PromotionID:   promo.PromotionID,
					PromotionDate: promo.Dates.Start,
				})
			}
		}
	}

	return matrix, nil
}
