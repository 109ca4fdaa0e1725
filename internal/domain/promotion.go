package domain

// PromotionStatus is the lifecycle state of a promotion.
type PromotionStatus string

const (
	PromotionPlanned   PromotionStatus = "planned"
	PromotionActive    PromotionStatus = "active"
	PromotionCompleted PromotionStatus = "completed"
	PromotionCancelled PromotionStatus = "cancelled"
)

// Promotion is the metadata the engine needs about a trade promotion.
// Owned by the surrounding application; the engine only reads it.
type Promotion struct {
	PromotionID     string          `json:"promotionId"`
	TenantID        string          `json:"tenantId"`
	CustomerID      string          `json:"customerId"`
	ProductIDs      []string        `json:"productIds"`
	Dates           DateRange       `json:"dates"`
	DiscountPercent float64         `json:"discountPercent"`
	Status          PromotionStatus `json:"status"`
}

// Window returns the analysis window for one of the promotion's products.
func (p *Promotion) Window(productID string) PromotionWindow {
	return PromotionWindow{
		TenantID:   p.TenantID,
		ProductID:  productID,
		CustomerID: p.CustomerID,
		Dates:      p.Dates,
	}
}
