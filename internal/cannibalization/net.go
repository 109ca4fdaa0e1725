package cannibalization

import (
	"context"
	"fmt"

	"trade-promo-lab/internal/domain"
)

// NetIncremental nets the promoted product's gross incremental volume
// against the volume cannibalized from related products. Margin impact
// uses the configured assumed margin.
func (a *Analyzer) NetIncremental(ctx context.Context, w domain.PromotionWindow) (*domain.NetIncrementalResult, error) {
	auto, err := a.estimator.Auto(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("baseline for promoted product: %w", err)
	}

	lift, err := a.incremental.Calculate(ctx, w, auto.Recommended)
	if err != nil {
		return nil, fmt.Errorf("incremental volume: %w", err)
	}

	cann, err := a.AnalyzePromotion(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("cannibalization: %w", err)
	}

	result := &domain.NetIncrementalResult{
		GrossIncrementalQty:     lift.Summary.TotalIncrementalQty,
		CannibalizedVolume:      cann.Summary.TotalCannibalizedVolume,
		NetIncrementalQty:       lift.Summary.TotalIncrementalQty - cann.Summary.TotalCannibalizedVolume,
		GrossIncrementalRevenue: lift.Summary.TotalIncrementalRevenue,
		CannibalizedRevenue:     cann.Summary.TotalRevenueImpact,
		NetRevenueImpact:        lift.Summary.TotalIncrementalRevenue - cann.Summary.TotalRevenueImpact,
	}
	result.NetMarginImpact = result.NetRevenueImpact * a.cfg.AssumedMarginPct / 100
	return result, nil
}
