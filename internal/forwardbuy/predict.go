package forwardbuy

import (
	"context"
	"fmt"
	"math"

	"trade-promo-lab/internal/domain"
)

// PredictRisk forecasts the post-promotion dip a planned promotion would
// cause at the given discount depth, from the product's recent completed
// promotions. Promotions with a similar discount are preferred for the
// average; confidence degrades when none are similar.
func (d *Detector) PredictRisk(ctx context.Context, tenantID, productID, customerID string, plannedDiscountPct float64) (*domain.ForwardBuyRisk, error) {
	history, err := d.promotions.GetCompletedByProduct(ctx, tenantID, productID, d.cfg.HistoryPromotionLimit)
	if err != nil {
		return nil, fmt.Errorf("load promotion history: %w", err)
	}

	risk := &domain.ForwardBuyRisk{
		HistoricalPromotions: len(history),
	}
	if len(history) == 0 {
		risk.Confidence = domain.ConfidenceInsufficientData
		return risk, nil
	}

	type observation struct {
		dipPct   float64
		discount float64
	}
	var observations []observation
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

		analysis, err := d.Detect(ctx, w)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			d.log.Warn().Err(err).
				Str("promotion", promo.PromotionID).
				Msg("skipping historical promotion in risk forecast")
			continue
		}
		observations = append(observations, observation{
			dipPct:   analysis.DipPct,
			discount: promo.DiscountPercent,
		})
	}

	if len(observations) == 0 {
		risk.Confidence = domain.ConfidenceInsufficientData
		return risk, nil
	}

	// Prefer promotions within the similarity band of the planned
	// discount; fall back to all history when none qualify.
	var similar []observation
	for _, obs := range observations {
		if math.Abs(obs.discount-plannedDiscountPct) <= d.cfg.DiscountSimilarityPts {
			similar = append(similar, obs)
		}
	}
	risk.SimilarPromotions = len(similar)

	sample := similar
	switch {
	case len(similar) >= 3:
		risk.Confidence = domain.ConfidenceHigh
	case len(similar) > 0:
		risk.Confidence = domain.ConfidenceMedium
	default:
		sample = observations
		risk.Confidence = domain.ConfidenceLow
	}

	var dipSum float64
	for _, obs := range sample {
		dipSum += obs.dipPct
	}
	predictedDip := dipSum / float64(len(sample))

	// Deeper discounts pull more volume forward.
	switch {
	case plannedDiscountPct > d.cfg.DeepDiscountPct:
		predictedDip *= d.cfg.DeepDiscountMultiplier
		risk.Risk = domain.RiskHigh
	case plannedDiscountPct > d.cfg.MediumDiscountPct:
		predictedDip *= d.cfg.MediumDiscountMult
		risk.Risk = domain.RiskMedium
	default:
		risk.Risk = domain.RiskLow
	}

	risk.PredictedDipPct = predictedDip
	risk.PredictedSeverity = d.classifySeverity(predictedDip)
	return risk, nil
}
