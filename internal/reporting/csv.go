package reporting

import (
	"fmt"
	"strings"

	"trade-promo-lab/internal/domain"
)

// RenderIncrementalCSV renders the per-day incremental analysis of every
// product in the report as CSV.
func RenderIncrementalCSV(report *domain.PromotionReport) string {
	var sb strings.Builder

	sb.WriteString("product_id,date,baseline_qty,actual_qty,incremental_qty,lift_pct\n")
	for _, product := range report.Products {
		if product.Incremental == nil {
			continue
		}
		for _, day := range product.Incremental.Days {
			sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%.6f,%.6f\n",
				product.ProductID,
				day.Date.Format(dateLayout),
				day.BaselineQty,
				day.ActualQty,
				day.IncrementalQty,
				day.LiftPct,
			))
		}
	}
	return sb.String()
}

// RenderCannibalizationCSV renders every cannibalization entry in the
// report as CSV.
func RenderCannibalizationCSV(report *domain.PromotionReport) string {
	var sb strings.Builder

	sb.WriteString("product_id,related_product,tier,baseline_volume,actual_volume,cannibalized_volume,rate_pct,revenue_impact\n")
	for _, product := range report.Products {
		if product.Cannibalization == nil {
			continue
		}
		for _, e := range product.Cannibalization.Entries {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f\n",
				product.ProductID,
				e.RelatedProductID,
				e.RelationshipTier,
				e.BaselineVolume,
				e.ActualVolume,
				e.CannibalizedVolume,
				e.CannibalizationRatePct,
				e.RevenueImpact,
			))
		}
	}
	return sb.String()
}
