package domain

import "time"

// ProductPromotionAnalysis bundles every analysis the engine runs for one
// product within a promotion.
type ProductPromotionAnalysis struct {
	ProductID       string                   `json:"productId"`
	Baseline        *AutoBaselineResult      `json:"baseline"`
	Incremental     *IncrementalAnalysis     `json:"incremental"`
	Cannibalization *CannibalizationAnalysis `json:"cannibalization"`
	ForwardBuy      *ForwardBuyAnalysis      `json:"forwardBuy"`
	NetImpact       *NetPromotionImpact      `json:"netImpact"`
	NetIncremental  *NetIncrementalResult    `json:"netIncremental"`
}

// PromotionReport is the combined result for one promotion, one entry per
// promoted product. Derived and ephemeral; recomputed on every call unless
// served from the short-TTL cache.
type PromotionReport struct {
	GeneratedAt time.Time                   `json:"generatedAt"`
	TenantID    string                      `json:"tenantId"`
	PromotionID string                      `json:"promotionId"`
	CustomerID  string                      `json:"customerId"`
	Dates       DateRange                   `json:"dates"`
	Products    []*ProductPromotionAnalysis `json:"products"`
}
