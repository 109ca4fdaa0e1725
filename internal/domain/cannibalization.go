package domain

import "time"

// Confidence levels for the heuristic forecasts. These are deterministic
// heuristics over recent history, not learned models.
const (
	ConfidenceHigh             = "high"
	ConfidenceMedium           = "medium"
	ConfidenceLow              = "low"
	ConfidenceInsufficientData = "insufficient_data"
)

// CannibalizationEntry is one related product whose volume shifted onto
// the promoted product during the promotion window.
type CannibalizationEntry struct {
	RelatedProductID       string           `json:"relatedProduct"`
	RelatedProductName     string           `json:"relatedProductName"`
	BaselineVolume         float64          `json:"baselineVolume"`
	ActualVolume           float64          `json:"actualVolume"`
	CannibalizedVolume     float64          `json:"cannibalizedVolume"`
	CannibalizationRatePct float64          `json:"cannibalizationRatePct"`
	RevenueImpact          float64          `json:"revenueImpact"`
	RelationshipTier       RelationshipTier `json:"relationshipTier"`
}

// CannibalizationSummary aggregates all reported entries.
type CannibalizationSummary struct {
	Count                   int     `json:"count"`
	TotalCannibalizedVolume float64 `json:"totalCannibalizedVolume"`
	TotalRevenueImpact      float64 `json:"totalRevenueImpact"`
	AverageRatePct          float64 `json:"averageRatePct"`
}

// CannibalizationAnalysis is the full result for one promoted product.
type CannibalizationAnalysis struct {
	Window  PromotionWindow        `json:"window"`
	Entries []CannibalizationEntry `json:"entries"`
	Summary CannibalizationSummary `json:"summary"`
}

// SubstitutionPair records volume moving between two products during a
// specific promotion.
type SubstitutionPair struct {
	FromProductID string    `json:"fromProduct"`
	ToProductID   string    `json:"toProduct"`
	RatePct       float64   `json:"ratePct"`
	Volume        float64   `json:"volume"`
	RevenueImpact float64   `json:"revenueImpact"`
	PromotionID   string    `json:"promotionId"`
	PromotionDate time.Time `json:"promotionDate"`
}

// SubstitutionMatrix flattens all substitution pairs observed across a
// category's promotions within a date range.
type SubstitutionMatrix struct {
	Category string             `json:"category"`
	Pairs    []SubstitutionPair `json:"pairs"`
}

// Category-level effect classifications.
const (
	EffectCannibalization = "cannibalization"
	EffectHalo            = "halo_effect"
)

// CategoryImpactEntry is one non-promoted category's aggregate shift
// during a promotion window.
type CategoryImpactEntry struct {
	Category       string  `json:"category"`
	BaselineVolume float64 `json:"baselineVolume"`
	ActualVolume   float64 `json:"actualVolume"`
	ImpactRatePct  float64 `json:"impactRatePct"`
	Effect         string  `json:"effect"`
}

// NetIncrementalResult nets gross incremental volume against volume
// cannibalized from related products.
type NetIncrementalResult struct {
	GrossIncrementalQty     float64 `json:"grossIncrementalQty"`
	CannibalizedVolume      float64 `json:"cannibalizedVolume"`
	NetIncrementalQty       float64 `json:"netIncrementalQty"`
	GrossIncrementalRevenue float64 `json:"grossIncrementalRevenue"`
	CannibalizedRevenue     float64 `json:"cannibalizedRevenue"`
	NetRevenueImpact        float64 `json:"netRevenueImpact"`
	NetMarginImpact         float64 `json:"netMarginImpact"`
}

// CannibalizationForecast predicts the cannibalization a planned promotion
// would cause, averaged over the product's recent completed promotions.
type CannibalizationForecast struct {
	AverageRatePct         float64  `json:"averageRatePct"`
	AverageRevenueImpact   float64  `json:"averageRevenueImpact"`
	LikelyAffectedProducts []string `json:"likelyAffectedProducts"`
	Confidence             string   `json:"confidence"`
	HistoricalPromotions   int      `json:"historicalPromotions"`
}
