package forwardbuy

import (
	"context"
	"fmt"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/observability"
)

// CategoryScan runs forward-buy detection for every completed promotion
// touching the category's products within the date range and buckets the
// flagged results by severity. Per-candidate failures are skipped; the
// scan aborts only on context cancellation.
func (d *Detector) CategoryScan(ctx context.Context, tenantID, category string, r domain.DateRange) (*domain.CategoryForwardBuy, error) {
	products, err := d.products.GetByCategory(ctx, tenantID, category)
	if err != nil {
		return nil, fmt.Errorf("load category %s: %w", category, err)
	}

	productIDs := make([]string, len(products))
	inCategory := make(map[string]struct{}, len(products))
	for i, p := range products {
		productIDs[i] = p.ProductID
		inCategory[p.ProductID] = struct{}{}
	}

	promotions, err := d.promotions.GetByProductsInRange(ctx, tenantID, productIDs, r)
	if err != nil {
		return nil, fmt.Errorf("load promotions for category %s: %w", category, err)
	}

	result := &domain.CategoryForwardBuy{
		Category:       category,
		SeverityCounts: make(map[domain.ForwardBuySeverity]int),
	}

	for _, promo := range promotions {
		if promo.Status != domain.PromotionCompleted {
			continue
		}
		for _, productID := range promo.ProductIDs {
			if _, ok := inCategory[productID]; !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			analysis, err := d.Detect(ctx, promo.Window(productID))
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				d.log.Warn().Err(err).
					Str("promotion", promo.PromotionID).
					Str("product", productID).
					Msg("skipping promotion in category forward-buy scan")
				observability.RecordSkippedCandidate("detect_failed")
				continue
			}
			result.Scanned++

			if !analysis.Detected {
				continue
			}
			result.Flagged = append(result.Flagged, domain.CategoryForwardBuyEntry{
				ProductID:   productID,
				PromotionID: promo.PromotionID,
				DipPct:      analysis.DipPct,
				Severity:    analysis.Severity,
			})
			result.SeverityCounts[analysis.Severity]++
		}
	}

	return result, nil
}
