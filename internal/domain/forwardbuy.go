package domain

import "time"

// ForwardBuySeverity buckets the total post-promotion dip.
type ForwardBuySeverity string

const (
	SeverityNone     ForwardBuySeverity = "none"
	SeverityLow      ForwardBuySeverity = "low"
	SeverityModerate ForwardBuySeverity = "moderate"
	SeverityHigh     ForwardBuySeverity = "high"
	SeveritySevere   ForwardBuySeverity = "severe"
)

// DayDip is one post-promotion day compared against its baseline.
type DayDip struct {
	Date           time.Time `json:"date"`
	BaselineQty    float64   `json:"baselineQty"`
	ActualQty      float64   `json:"actualQty"`
	Dip            float64   `json:"dip"`
	DipPct         float64   `json:"dipPct"`
	SignificantDip bool      `json:"isSignificantDip"`
}

// ForwardBuyAnalysis is the full pantry-loading detection result for one
// promotion's post-window.
type ForwardBuyAnalysis struct {
	Window           PromotionWindow    `json:"window"`
	PostWindow       DateRange          `json:"postWindow"`
	DailyAnalysis    []DayDip           `json:"dailyAnalysis"`
	BaselineTotal    float64            `json:"baselineTotal"`
	ActualTotal      float64            `json:"actualTotal"`
	ForwardBuyVolume float64            `json:"forwardBuyVolume"`
	DipPct           float64            `json:"dipPct"`
	Severity         ForwardBuySeverity `json:"severity"`
	Detected         bool               `json:"forwardBuyDetected"`
	RecoveryWeek     *int               `json:"recoveryWeek,omitempty"`
	Interpretation   string             `json:"interpretation"`
}

// Net-promotion-impact verdicts, tiered on the forward-buy rate.
const (
	VerdictDiscontinue = "discontinue"
	VerdictPoor        = "poor"
	VerdictBelowTarget = "below_target"
	VerdictAcceptable  = "acceptable"
	VerdictExcellent   = "excellent"
)

// NetPromotionImpact nets gross incremental volume against the post-
// promotion forward-buy dip.
type NetPromotionImpact struct {
	GrossIncrementalQty float64 `json:"grossIncrementalQty"`
	ForwardBuyVolume    float64 `json:"forwardBuyVolume"`
	NetIncrementalQty   float64 `json:"netIncrementalQty"`
	ForwardBuyRatePct   float64 `json:"forwardBuyRatePct"`
	Verdict             string  `json:"verdict"`
	Interpretation      string  `json:"interpretation"`
}

// Forward-buy risk levels keyed to planned discount depth.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// ForwardBuyRisk predicts post-promotion dip for a planned promotion from
// the product's recent completed promotions.
type ForwardBuyRisk struct {
	PredictedDipPct      float64            `json:"predictedDipPct"`
	PredictedSeverity    ForwardBuySeverity `json:"predictedSeverity"`
	Risk                 string             `json:"risk"`
	Confidence           string             `json:"confidence"`
	SimilarPromotions    int                `json:"similarPromotions"`
	HistoricalPromotions int                `json:"historicalPromotions"`
}

// CategoryForwardBuyEntry is one flagged product/promotion pair from a
// category scan.
type CategoryForwardBuyEntry struct {
	ProductID   string             `json:"productId"`
	PromotionID string             `json:"promotionId"`
	DipPct      float64            `json:"dipPct"`
	Severity    ForwardBuySeverity `json:"severity"`
}

// CategoryForwardBuy aggregates forward-buy detections across a category.
type CategoryForwardBuy struct {
	Category       string                        `json:"category"`
	Flagged        []CategoryForwardBuyEntry     `json:"flagged"`
	SeverityCounts map[ForwardBuySeverity]int    `json:"severityCounts"`
	Scanned        int                           `json:"scanned"`
}
