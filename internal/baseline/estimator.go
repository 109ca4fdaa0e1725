// Package baseline implements the four baseline estimation methods and
// the auto selector. A baseline is the sales a product would have seen
// without the promotion; every derived metric in the engine diffs actuals
// against one.
//
// Individual methods never fail through the error return for data
// reasons. They tag the result (BaselineResult.Error) so the auto
// selector and batch scans can skip them; the Go error return carries
// only repository failures. Only Auto returns ErrNoBaselineAvailable,
// and only when every method failed.
package baseline

import (
	"context"
	"errors"
	"fmt"

	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/observability"
	"trade-promo-lab/internal/seasonality"
	"trade-promo-lab/internal/storage"
)

// ErrNoBaselineAvailable is returned by Auto when all methods failed.
var ErrNoBaselineAvailable = errors.New("no baseline method produced a usable result")

// PrePeriodOptions tunes the pre_period method for one call.
type PrePeriodOptions struct {
	// LookbackWeeks overrides the configured lookback when positive.
	LookbackWeeks int

	// Exclude drops any lookback date falling inside the range from the
	// sample. Used by forward-buy detection so promoted-period sales are
	// not counted as normal history.
	Exclude *domain.DateRange
}

// Estimator computes baselines from the sales-history store.
type Estimator struct {
	sales       storage.SalesStore
	seasonality *seasonality.Indexer
	cfg         config.AnalysisConfig
}

// NewEstimator creates a baseline estimator.
func NewEstimator(sales storage.SalesStore, cfg config.AnalysisConfig) *Estimator {
	return &Estimator{
		sales:       sales,
		seasonality: seasonality.NewIndexer(sales, cfg.SeasonalityMonths),
		cfg:         cfg,
	}
}

// ControlStore averages daily quantity/revenue across the listed
// reference customers for each date in the window. An empty control list
// yields a tagged empty result, not an error: there is no baseline
// signal, but nothing went wrong.
func (e *Estimator) ControlStore(ctx context.Context, w domain.PromotionWindow, controlStores []string) (domain.BaselineResult, error) {
	result := domain.BaselineResult{Method: domain.MethodControlStore}

	if len(controlStores) == 0 {
		result.Error = domain.FailNoControlStores
		return result, nil
	}

	averages, err := e.sales.QueryAverageByDate(ctx, w.TenantID, []string{w.ProductID}, controlStores, w.Dates)
	if err != nil {
		return result, fmt.Errorf("query control store averages: %w", err)
	}
	if len(averages) == 0 {
		result.Error = domain.FailNoControlData
		return result, nil
	}

	byDate := make(map[int64]domain.DayPoint, len(averages))
	for _, p := range averages {
		byDate[domain.Day(p.Date).Unix()] = p
	}

	days := w.Dates.Days()
	result.Points = make([]domain.BaselinePoint, len(days))
	for i, day := range days {
		point := domain.BaselinePoint{Date: day}
		if avg, ok := byDate[day.Unix()]; ok {
			point.Quantity = avg.Quantity
			point.Revenue = avg.Revenue
		}
		result.Points[i] = point
	}
	result.Diagnostics = domain.BaselineDiagnostics{
		Lookback:       w.Dates,
		HistoryRecords: len(averages),
	}
	return result, nil
}

// PrePeriod averages daily sales over the lookback window before the
// promotion start and shapes the flat average with the weekday
// seasonality index.
func (e *Estimator) PrePeriod(ctx context.Context, w domain.PromotionWindow, opts PrePeriodOptions) (domain.BaselineResult, error) {
	result := domain.BaselineResult{Method: domain.MethodPrePeriod}

	weeks := opts.LookbackWeeks
	if weeks <= 0 {
		weeks = e.cfg.PrePeriodLookbackWeeks
	}

	lookback := domain.DateRange{
		Start: w.Dates.Start.AddDate(0, 0, -weeks*7),
		End:   w.Dates.Start.AddDate(0, 0, -1),
	}
	records, err := e.sales.QuerySales(ctx, w.TenantID, w.ProductID, w.CustomerID, lookback)
	if err != nil {
		return result, fmt.Errorf("query pre-period history: %w", err)
	}

	if opts.Exclude != nil {
		filtered := records[:0]
		for _, rec := range records {
			if !opts.Exclude.Contains(rec.Date) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	result.Diagnostics = domain.BaselineDiagnostics{
		Lookback:       lookback,
		HistoryRecords: len(records),
	}
	if len(records) == 0 {
		result.Error = domain.FailInsufficientHistory
		return result, nil
	}

	var totalQty, totalRev float64
	for _, rec := range records {
		totalQty += rec.Quantity
		totalRev += rec.Revenue
	}
	avgQty := totalQty / float64(len(records))
	avgRev := totalRev / float64(len(records))
	result.Diagnostics.FlatValue = avgQty

	index, err := e.seasonality.Compute(ctx, w.TenantID, w.ProductID, w.CustomerID, w.Dates.Start, opts.Exclude)
	if err != nil {
		return result, fmt.Errorf("compute seasonality index: %w", err)
	}

	days := w.Dates.Days()
	result.Points = make([]domain.BaselinePoint, len(days))
	for i, day := range days {
		factor := index.Factor(day)
		f := factor
		result.Points[i] = domain.BaselinePoint{
			Date:           day,
			Quantity:       avgQty * factor,
			Revenue:        avgRev * factor,
			SeasonalFactor: &f,
		}
	}
	return result, nil
}

// MovingAverage computes a trailing moving average over the most recent
// windowWeeks*7 history records and uses that single flat value for every
// day in the promotion window.
func (e *Estimator) MovingAverage(ctx context.Context, w domain.PromotionWindow) (domain.BaselineResult, error) {
	result := domain.BaselineResult{Method: domain.MethodMovingAverage}

	windowDays := e.cfg.MovingAverageWindowWeeks * 7
	lookback := domain.DateRange{
		Start: w.Dates.Start.AddDate(0, 0, -2*windowDays),
		End:   w.Dates.Start.AddDate(0, 0, -1),
	}
	records, err := e.sales.QuerySales(ctx, w.TenantID, w.ProductID, w.CustomerID, lookback)
	if err != nil {
		return result, fmt.Errorf("query moving-average history: %w", err)
	}

	result.Diagnostics = domain.BaselineDiagnostics{
		Lookback:       lookback,
		HistoryRecords: len(records),
	}
	if len(records) < windowDays {
		result.Error = domain.FailInsufficientHistory
		return result, nil
	}

	// Trailing window ending at the last available day.
	tail := records[len(records)-windowDays:]
	var totalQty, totalRev float64
	for _, rec := range tail {
		totalQty += rec.Quantity
		totalRev += rec.Revenue
	}
	flatQty := totalQty / float64(windowDays)
	flatRev := totalRev / float64(windowDays)
	result.Diagnostics.FlatValue = flatQty

	days := w.Dates.Days()
	result.Points = make([]domain.BaselinePoint, len(days))
	for i, day := range days {
		result.Points[i] = domain.BaselinePoint{
			Date:     day,
			Quantity: flatQty,
			Revenue:  flatRev,
		}
	}
	return result, nil
}

// ExponentialSmoothing smooths the last three months of history and uses
// the final smoothed value flat across the promotion window.
func (e *Estimator) ExponentialSmoothing(ctx context.Context, w domain.PromotionWindow) (domain.BaselineResult, error) {
	result := domain.BaselineResult{Method: domain.MethodExpSmoothing}

	lookback := domain.DateRange{
		Start: w.Dates.Start.AddDate(0, -e.cfg.SeasonalityMonths, 0),
		End:   w.Dates.Start.AddDate(0, 0, -1),
	}
	records, err := e.sales.QuerySales(ctx, w.TenantID, w.ProductID, w.CustomerID, lookback)
	if err != nil {
		return result, fmt.Errorf("query smoothing history: %w", err)
	}

	result.Diagnostics = domain.BaselineDiagnostics{
		Lookback:       lookback,
		HistoryRecords: len(records),
	}
	if len(records) < e.cfg.SmoothingMinRecords {
		result.Error = domain.FailInsufficientHistory
		return result, nil
	}

	alpha := e.cfg.SmoothingAlpha
	smoothedQty := records[0].Quantity
	smoothedRev := records[0].Revenue
	for _, rec := range records[1:] {
		smoothedQty = alpha*rec.Quantity + (1-alpha)*smoothedQty
		smoothedRev = alpha*rec.Revenue + (1-alpha)*smoothedRev
	}
	result.Diagnostics.FlatValue = smoothedQty

	days := w.Dates.Days()
	result.Points = make([]domain.BaselinePoint, len(days))
	for i, day := range days {
		result.Points[i] = domain.BaselinePoint{
			Date:     day,
			Quantity: smoothedQty,
			Revenue:  smoothedRev,
		}
	}
	return result, nil
}

// Auto runs pre_period, moving_average, and exponential_smoothing in that
// fixed priority order and recommends the first that succeeded. The
// control-store method runs only when explicitly requested since it needs
// reference customers the caller must supply.
func (e *Estimator) Auto(ctx context.Context, w domain.PromotionWindow) (*domain.AutoBaselineResult, error) {
	return e.AutoWithOptions(ctx, w, PrePeriodOptions{})
}

// AutoWithOptions is Auto with pre_period tuning applied.
func (e *Estimator) AutoWithOptions(ctx context.Context, w domain.PromotionWindow, opts PrePeriodOptions) (*domain.AutoBaselineResult, error) {
	type attempt func(context.Context, domain.PromotionWindow) (domain.BaselineResult, error)

	attempts := []attempt{
		func(ctx context.Context, w domain.PromotionWindow) (domain.BaselineResult, error) {
			return e.PrePeriod(ctx, w, opts)
		},
		e.MovingAverage,
		e.ExponentialSmoothing,
	}

	var succeeded []domain.BaselineResult
	for _, run := range attempts {
		result, err := run(ctx, w)
		if err != nil {
			return nil, err
		}
		observability.RecordBaseline(string(result.Method), result.OK())
		if result.OK() {
			succeeded = append(succeeded, result)
		}
	}

	if len(succeeded) == 0 {
		return nil, fmt.Errorf("product %s customer %s: %w", w.ProductID, w.CustomerID, ErrNoBaselineAvailable)
	}
	observability.RecordAutoSelection(string(succeeded[0].Method))

	return &domain.AutoBaselineResult{
		Recommended:  succeeded[0],
		Alternatives: succeeded[1:],
	}, nil
}
