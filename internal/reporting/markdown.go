// Package reporting renders promotion-analysis results as markdown and
// CSV for account-team review.
package reporting

import (
	"fmt"
	"strings"

	"trade-promo-lab/internal/domain"
)

const dateLayout = "2006-01-02"

// RenderMarkdown renders a full promotion report as a markdown document.
func RenderMarkdown(report *domain.PromotionReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Promotion Analysis: %s\n\n", report.PromotionID))
	sb.WriteString(fmt.Sprintf("- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString(fmt.Sprintf("- Tenant: %s\n", report.TenantID))
	sb.WriteString(fmt.Sprintf("- Customer: %s\n", report.CustomerID))
	sb.WriteString(fmt.Sprintf("- Window: %s to %s\n\n",
		report.Dates.Start.Format(dateLayout), report.Dates.End.Format(dateLayout)))

	for _, product := range report.Products {
		writeProductSection(&sb, product)
	}
	return sb.String()
}

func writeProductSection(sb *strings.Builder, p *domain.ProductPromotionAnalysis) {
	sb.WriteString(fmt.Sprintf("## Product %s\n\n", p.ProductID))

	if p.Baseline == nil {
		sb.WriteString("No baseline could be estimated; insufficient sales history.\n\n")
		return
	}

	sb.WriteString("### Baseline\n\n")
	sb.WriteString("| Method | Days | Total Qty | Status |\n")
	sb.WriteString("|--------|------|-----------|--------|\n")
	writeBaselineRow(sb, p.Baseline.Recommended, "recommended")
	for _, alt := range p.Baseline.Alternatives {
		writeBaselineRow(sb, alt, "alternative")
	}
	sb.WriteString("\n")

	if p.Incremental != nil {
		s := p.Incremental.Summary
		sb.WriteString("### Incremental Volume\n\n")
		sb.WriteString(fmt.Sprintf("- Baseline quantity: %.2f\n", s.TotalBaselineQty))
		sb.WriteString(fmt.Sprintf("- Actual quantity: %.2f\n", s.TotalActualQty))
		sb.WriteString(fmt.Sprintf("- Incremental quantity: %.2f\n", s.TotalIncrementalQty))
		sb.WriteString(fmt.Sprintf("- Overall lift: %.1f%%\n\n", s.OverallLiftPct))
	}

	if p.Cannibalization != nil && len(p.Cannibalization.Entries) > 0 {
		sb.WriteString("### Cannibalization\n\n")
		sb.WriteString("| Related Product | Tier | Rate | Volume | Revenue Impact |\n")
		sb.WriteString("|-----------------|------|------|--------|----------------|\n")
		for _, e := range p.Cannibalization.Entries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f%% | %.2f | %.2f |\n",
				e.RelatedProductID, e.RelationshipTier, e.CannibalizationRatePct,
				e.CannibalizedVolume, e.RevenueImpact))
		}
		s := p.Cannibalization.Summary
		sb.WriteString(fmt.Sprintf("\nTotal cannibalized volume: %.2f (avg rate %.1f%%, revenue impact %.2f)\n\n",
			s.TotalCannibalizedVolume, s.AverageRatePct, s.TotalRevenueImpact))
	} else if p.Cannibalization != nil {
		sb.WriteString("### Cannibalization\n\nNo related products crossed the cannibalization threshold.\n\n")
	}

	if p.ForwardBuy != nil {
		sb.WriteString("### Forward Buying\n\n")
		sb.WriteString(fmt.Sprintf("- Severity: %s (dip %.1f%%)\n", p.ForwardBuy.Severity, p.ForwardBuy.DipPct))
		if p.ForwardBuy.RecoveryWeek != nil {
			sb.WriteString(fmt.Sprintf("- Recovery week: %d\n", *p.ForwardBuy.RecoveryWeek))
		} else {
			sb.WriteString("- Recovery week: not recovered\n")
		}
		sb.WriteString(fmt.Sprintf("- %s\n\n", p.ForwardBuy.Interpretation))
	}

	if p.NetImpact != nil {
		sb.WriteString("### Net Promotion Impact\n\n")
		sb.WriteString(fmt.Sprintf("- Gross incremental: %.2f\n", p.NetImpact.GrossIncrementalQty))
		sb.WriteString(fmt.Sprintf("- Forward-buy volume: %.2f\n", p.NetImpact.ForwardBuyVolume))
		sb.WriteString(fmt.Sprintf("- Net incremental: %.2f\n", p.NetImpact.NetIncrementalQty))
		sb.WriteString(fmt.Sprintf("- Verdict: %s\n", p.NetImpact.Verdict))
		sb.WriteString(fmt.Sprintf("- %s\n\n", p.NetImpact.Interpretation))
	}
}

func writeBaselineRow(sb *strings.Builder, r domain.BaselineResult, role string) {
	sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %s |\n",
		r.Method, len(r.Points), r.TotalQuantity(), role))
}
