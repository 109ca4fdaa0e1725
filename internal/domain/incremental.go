package domain

import "time"

// IncrementalDay is the per-day diff of actual sales against the baseline.
type IncrementalDay struct {
	Date           time.Time `json:"date"`
	BaselineQty    float64   `json:"baselineQty"`
	ActualQty      float64   `json:"actualQty"`
	IncrementalQty float64   `json:"incrementalQty"`
	LiftPct        float64   `json:"liftPct"`
}

// IncrementalSummary aggregates the daily diffs over the whole window.
type IncrementalSummary struct {
	TotalBaselineQty        float64 `json:"totalBaselineQty"`
	TotalActualQty          float64 `json:"totalActualQty"`
	TotalIncrementalQty     float64 `json:"totalIncrementalQty"`
	TotalIncrementalRevenue float64 `json:"totalIncrementalRevenue"`
	OverallLiftPct          float64 `json:"overallLiftPct"`
}

// IncrementalAnalysis is the full lift calculation for a promotion window.
type IncrementalAnalysis struct {
	Method  BaselineMethod     `json:"method"`
	Days    []IncrementalDay   `json:"days"`
	Summary IncrementalSummary `json:"summary"`
}
