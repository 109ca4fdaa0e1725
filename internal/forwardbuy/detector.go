// Package forwardbuy detects post-promotion sales dips caused by pantry
// loading, nets them against promotion lift, and predicts forward-buy
// risk for planned promotions.
package forwardbuy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/baseline"
	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/incremental"
	"trade-promo-lab/internal/storage"
)

// Detector analyzes post-promotion windows for forward buying.
type Detector struct {
	sales       storage.SalesStore
	promotions  storage.PromotionStore
	products    storage.ProductStore
	estimator   *baseline.Estimator
	incremental *incremental.Calculator
	cfg         config.AnalysisConfig
	log         zerolog.Logger
}

// NewDetector creates a forward-buy detector.
func NewDetector(
	sales storage.SalesStore,
	promotions storage.PromotionStore,
	products storage.ProductStore,
	estimator *baseline.Estimator,
	cfg config.AnalysisConfig,
	log zerolog.Logger,
) *Detector {
	return &Detector{
		sales:       sales,
		promotions:  promotions,
		products:    products,
		estimator:   estimator,
		incremental: incremental.NewCalculator(sales),
		cfg:         cfg,
		log:         log,
	}
}

// Detect compares the post-promotion window against a pre-period baseline
// whose lookback excludes the promotion period itself, so promoted-period
// sales are never counted as normal history.
func (d *Detector) Detect(ctx context.Context, w domain.PromotionWindow) (*domain.ForwardBuyAnalysis, error) {
	postStart := w.Dates.End.AddDate(0, 0, 1)
	postWindow := domain.DateRange{
		Start: postStart,
		End:   postStart.AddDate(0, 0, d.cfg.PostPromoPeriodWeeks*7-1),
	}

	postW := domain.PromotionWindow{
		TenantID:   w.TenantID,
		ProductID:  w.ProductID,
		CustomerID: w.CustomerID,
		Dates:      postWindow,
	}
	exclude := w.Dates
	base, err := d.estimator.PrePeriod(ctx, postW, baseline.PrePeriodOptions{
		LookbackWeeks: d.cfg.ForwardBuyLookbackWeeks,
		Exclude:       &exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("post-promotion baseline: %w", err)
	}
	if !base.OK() {
		return nil, fmt.Errorf("product %s customer %s: %w", w.ProductID, w.CustomerID, baseline.ErrNoBaselineAvailable)
	}

	actuals, err := d.sales.QuerySales(ctx, w.TenantID, w.ProductID, w.CustomerID, postWindow)
	if err != nil {
		return nil, fmt.Errorf("query post-promotion sales: %w", err)
	}
	actualByDate := make(map[int64]*domain.SalesRecord, len(actuals))
	for _, rec := range actuals {
		actualByDate[domain.Day(rec.Date).Unix()] = rec
	}

	analysis := &domain.ForwardBuyAnalysis{
		Window:     w,
		PostWindow: postWindow,
	}

	for _, point := range base.Points {
		var actualQty float64
		if rec, ok := actualByDate[point.Date.Unix()]; ok {
			actualQty = rec.Quantity
		}

		dip := domain.DayDip{
			Date:        point.Date,
			BaselineQty: point.Quantity,
			ActualQty:   actualQty,
			Dip:         point.Quantity - actualQty,
		}
		if point.Quantity > 0 {
			dip.DipPct = dip.Dip / point.Quantity * 100
		}
		dip.SignificantDip = dip.DipPct > d.cfg.SignificantDipPct
		analysis.DailyAnalysis = append(analysis.DailyAnalysis, dip)

		analysis.BaselineTotal += point.Quantity
		analysis.ActualTotal += actualQty
	}

	analysis.ForwardBuyVolume = analysis.BaselineTotal - analysis.ActualTotal
	if analysis.BaselineTotal > 0 {
		analysis.DipPct = analysis.ForwardBuyVolume / analysis.BaselineTotal * 100
	}
	analysis.Severity = d.classifySeverity(analysis.DipPct)
	analysis.Detected = analysis.Severity != domain.SeverityNone
	analysis.RecoveryWeek = d.recoveryWeek(analysis.DailyAnalysis)
	analysis.Interpretation = interpret(analysis.Severity, analysis.RecoveryWeek)

	return analysis, nil
}

// classifySeverity buckets the total post-window dip, first match wins.
func (d *Detector) classifySeverity(dipPct float64) domain.ForwardBuySeverity {
	switch {
	case dipPct > d.cfg.SeveritySeverePct:
		return domain.SeveritySevere
	case dipPct > d.cfg.SeverityHighPct:
		return domain.SeverityHigh
	case dipPct > d.cfg.SeverityModeratePct:
		return domain.SeverityModerate
	case dipPct > d.cfg.SeverityLowPct:
		return domain.SeverityLow
	default:
		return domain.SeverityNone
	}
}

// recoveryWeek buckets the post-window into 7-day weeks and returns the
// 1-based index of the first week whose dip fell below the recovery
// threshold, or nil if sales never recovered within the window.
func (d *Detector) recoveryWeek(days []domain.DayDip) *int {
	for week := 0; week*7 < len(days); week++ {
		end := (week + 1) * 7
		if end > len(days) {
			end = len(days)
		}

		var baselineQty, actualQty float64
		for _, dip := range days[week*7 : end] {
			baselineQty += dip.BaselineQty
			actualQty += dip.ActualQty
		}

		var weekDipPct float64
		if baselineQty > 0 {
			weekDipPct = (baselineQty - actualQty) / baselineQty * 100
		}
		if weekDipPct < d.cfg.RecoveryDipPct {
			w := week + 1
			return &w
		}
	}
	return nil
}

// interpret renders the deterministic verdict text for a severity tier,
// appending a recovery note when one is known.
func interpret(severity domain.ForwardBuySeverity, recoveryWeek *int) string {
	var text string
	switch severity {
	case domain.SeveritySevere:
		text = "Severe forward buying detected: post-promotion demand collapsed well below baseline, indicating heavy pantry loading during the promotion."
	case domain.SeverityHigh:
		text = "High forward buying detected: a large share of promotion volume was pulled forward from future periods."
	case domain.SeverityModerate:
		text = "Moderate forward buying detected: some promotion volume was pulled forward rather than truly incremental."
	case domain.SeverityLow:
		text = "Low forward buying detected: a small post-promotion dip suggests limited pantry loading."
	default:
		text = "No forward buying detected: post-promotion sales held at baseline levels."
	}

	if recoveryWeek != nil {
		text += fmt.Sprintf(" Sales recovered to baseline in week %d after the promotion.", *recoveryWeek)
	} else if severity != domain.SeverityNone {
		text += " Sales had not recovered to baseline by the end of the analysis window."
	}
	return text
}
