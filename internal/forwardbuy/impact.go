package forwardbuy

import (
	"context"
	"fmt"

	"trade-promo-lab/internal/domain"
)

// NetPromotionImpact nets the promotion's gross incremental volume
// against the forward-buy volume detected in the post-window.
func (d *Detector) NetPromotionImpact(ctx context.Context, w domain.PromotionWindow) (*domain.NetPromotionImpact, error) {
	auto, err := d.estimator.Auto(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("promotion baseline: %w", err)
	}

	lift, err := d.incremental.Calculate(ctx, w, auto.Recommended)
	if err != nil {
		return nil, fmt.Errorf("incremental volume: %w", err)
	}

	fb, err := d.Detect(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("forward-buy detection: %w", err)
	}

	impact := &domain.NetPromotionImpact{
		GrossIncrementalQty: lift.Summary.TotalIncrementalQty,
		ForwardBuyVolume:    fb.ForwardBuyVolume,
		NetIncrementalQty:   lift.Summary.TotalIncrementalQty - fb.ForwardBuyVolume,
	}
	if impact.GrossIncrementalQty > 0 {
		impact.ForwardBuyRatePct = impact.ForwardBuyVolume / impact.GrossIncrementalQty * 100
	}
	impact.Verdict, impact.Interpretation = classifyImpact(impact.NetIncrementalQty, impact.ForwardBuyRatePct)

	return impact, nil
}

// classifyImpact tiers the verdict on the forward-buy rate. A net
// incremental at or below zero always yields the discontinue verdict,
// regardless of the rate.
func classifyImpact(netIncremental, forwardBuyRatePct float64) (string, string) {
	switch {
	case netIncremental <= 0:
		return domain.VerdictDiscontinue,
			"The promotion generated no true incremental volume: all lift was borrowed from future periods. Discontinue this promotion structure."
	case forwardBuyRatePct > 75:
		return domain.VerdictPoor,
			"Poor: most of the promotion's lift was forward buying rather than new demand."
	case forwardBuyRatePct > 50:
		return domain.VerdictBelowTarget,
			"Below target: over half of the promotion's lift was pulled forward from future periods."
	case forwardBuyRatePct > 25:
		return domain.VerdictAcceptable,
			"Acceptable: a moderate share of the promotion's lift was forward buying."
	default:
		return domain.VerdictExcellent,
			"Excellent: the promotion's lift was almost entirely true incremental volume."
	}
}
