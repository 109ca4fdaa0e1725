package domain

import "time"

// SalesRecord is one day of observed sales for a product/customer pair.
// Corresponds to the sales_history table. Records are immutable facts;
// the engine only reads them.
type SalesRecord struct {
	Date       time.Time // calendar day, midnight UTC
	ProductID  string
	CustomerID string
	TenantID   string
	Quantity   float64
	Revenue    float64
}

// DayPoint is the unit the engine operates on: one point per calendar day
// within a window, zero-filled where no actuals exist.
type DayPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Revenue  float64   `json:"revenue"`
}

// PromotionWindow identifies the product/customer pair and date span an
// analysis runs over. Callers must reject windows with End before Start
// before invoking the engine.
type PromotionWindow struct {
	TenantID   string    `json:"tenantId"`
	ProductID  string    `json:"productId"`
	CustomerID string    `json:"customerId"`
	Dates      DateRange `json:"dates"`
}
