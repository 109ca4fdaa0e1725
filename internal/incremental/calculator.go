// Package incremental diffs actual sales against a baseline over a
// promotion window to quantify lift.
package incremental

import (
	"context"
	"fmt"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// Calculator computes incremental volume from a baseline and actuals.
type Calculator struct {
	sales storage.SalesStore
}

// NewCalculator creates an incremental volume calculator.
func NewCalculator(sales storage.SalesStore) *Calculator {
	return &Calculator{sales: sales}
}

// Calculate aligns the baseline with actual sales by date (a missing
// actual counts as zero) and produces per-day lift plus summary totals.
// All percentages are 0 when the corresponding baseline total is 0.
func (c *Calculator) Calculate(ctx context.Context, w domain.PromotionWindow, baseline domain.BaselineResult) (*domain.IncrementalAnalysis, error) {
	actuals, err := c.sales.QuerySales(ctx, w.TenantID, w.ProductID, w.CustomerID, w.Dates)
	if err != nil {
		return nil, fmt.Errorf("query actual sales: %w", err)
	}

	actualByDate := make(map[int64]*domain.SalesRecord, len(actuals))
	for _, rec := range actuals {
		actualByDate[domain.Day(rec.Date).Unix()] = rec
	}

	analysis := &domain.IncrementalAnalysis{
		Method: baseline.Method,
		Days:   make([]domain.IncrementalDay, 0, len(baseline.Points)),
	}

	var totalBaselineQty, totalActualQty, totalBaselineRev, totalActualRev float64
	for _, point := range baseline.Points {
		var actualQty, actualRev float64
		if rec, ok := actualByDate[point.Date.Unix()]; ok {
			actualQty = rec.Quantity
			actualRev = rec.Revenue
		}

		day := domain.IncrementalDay{
			Date:           point.Date,
			BaselineQty:    point.Quantity,
			ActualQty:      actualQty,
			IncrementalQty: actualQty - point.Quantity,
		}
		if point.Quantity > 0 {
			day.LiftPct = day.IncrementalQty / point.Quantity * 100
		}
		analysis.Days = append(analysis.Days, day)

		totalBaselineQty += point.Quantity
		totalActualQty += actualQty
		totalBaselineRev += point.Revenue
		totalActualRev += actualRev
	}

	summary := domain.IncrementalSummary{
		TotalBaselineQty:        totalBaselineQty,
		TotalActualQty:          totalActualQty,
		TotalIncrementalQty:     totalActualQty - totalBaselineQty,
		TotalIncrementalRevenue: totalActualRev - totalBaselineRev,
	}
	if totalBaselineQty > 0 {
		summary.OverallLiftPct = summary.TotalIncrementalQty / totalBaselineQty * 100
	}
	analysis.Summary = summary

	return analysis, nil
}
