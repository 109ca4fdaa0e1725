package domain

import "time"

// BaselineMethod identifies one of the four estimation methods.
type BaselineMethod string

const (
	MethodControlStore    BaselineMethod = "control_store"
	MethodPrePeriod       BaselineMethod = "pre_period"
	MethodMovingAverage   BaselineMethod = "moving_average"
	MethodExpSmoothing    BaselineMethod = "exponential_smoothing"
)

// Baseline failure tags. Methods never fail through the error return for
// data reasons; they tag the result so the auto selector and batch scans
// can skip them.
const (
	FailInsufficientHistory = "insufficient_history"
	FailNoControlStores     = "no_control_stores"
	FailNoControlData       = "no_control_data"
)

// BaselinePoint is one estimated day. SeasonalFactor is set only by the
// pre_period method.
type BaselinePoint struct {
	Date           time.Time `json:"date"`
	Quantity       float64   `json:"baselineQuantity"`
	Revenue        float64   `json:"baselineRevenue"`
	SeasonalFactor *float64  `json:"seasonalFactor,omitempty"`
}

// BaselineDiagnostics describes the history a method was derived from.
type BaselineDiagnostics struct {
	Lookback       DateRange `json:"lookback"`
	HistoryRecords int       `json:"historyRecords"`
	FlatValue      float64   `json:"flatValue,omitempty"`
}

// BaselineResult is the tagged output of a single method. A failed method
// has empty Points and a non-empty Error tag; it is never a Go error.
type BaselineResult struct {
	Method      BaselineMethod      `json:"method"`
	Points      []BaselinePoint     `json:"points"`
	Diagnostics BaselineDiagnostics `json:"diagnostics"`
	Error       string              `json:"error,omitempty"`
}

// OK reports whether the method produced a usable baseline.
func (r BaselineResult) OK() bool {
	return r.Error == "" && len(r.Points) > 0
}

// TotalQuantity sums the baseline quantity across all points.
func (r BaselineResult) TotalQuantity() float64 {
	var total float64
	for _, p := range r.Points {
		total += p.Quantity
	}
	return total
}

// TotalRevenue sums the baseline revenue across all points.
func (r BaselineResult) TotalRevenue() float64 {
	var total float64
	for _, p := range r.Points {
		total += p.Revenue
	}
	return total
}

// AutoBaselineResult is the auto selector's output: the first successful
// method in priority order plus every other method that succeeded.
type AutoBaselineResult struct {
	Recommended  BaselineResult   `json:"recommended"`
	Alternatives []BaselineResult `json:"alternatives"`
}
