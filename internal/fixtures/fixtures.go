// Package fixtures populates stores with a deterministic demo dataset:
// a small beverage/snack catalog, six months of weekday-shaped sales for
// two customers, and three completed promotions with visible lift,
// cannibalization, and post-promotion dips.
package fixtures

import (
	"context"
	"fmt"
	"math"
	"time"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

const (
	// TenantID is the tenant all fixture data belongs to.
	TenantID = "tenant-demo"

	// PromotedCustomerID is the customer whose sales carry promotion
	// effects. ControlCustomerID never runs promotions and serves as a
	// control store.
	PromotedCustomerID = "cust-north"
	ControlCustomerID  = "cust-south"

	// HeadlinePromotionID is the most recent completed promotion, the
	// natural target for a full analysis run.
	HeadlinePromotionID = "promo-summer"

	// PromotedProductID is the product every fixture promotion discounts.
	PromotedProductID = "sku-cola-1"
)

var (
	historyStart = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	historyEnd   = time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	// Saturday and Sunday sell noticeably more than midweek.
	weekdayShape = [7]float64{1.25, 0.85, 0.90, 0.95, 1.00, 1.05, 1.30}
)

// Load inserts the full demo dataset into the given stores.
func Load(ctx context.Context, products storage.ProductStore, promotions storage.PromotionStore, sales storage.SalesStore) error {
	for _, p := range Catalog() {
		if err := products.Insert(ctx, p); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ProductID, err)
		}
	}
	for _, p := range Promotions() {
		if err := promotions.Insert(ctx, p); err != nil {
			return fmt.Errorf("insert promotion %s: %w", p.PromotionID, err)
		}
	}
	records := SalesHistory()
	if err := sales.InsertBulk(ctx, records); err != nil {
		return fmt.Errorf("insert sales history: %w", err)
	}
	return nil
}

// Catalog returns the fixture product catalog.
func Catalog() []*domain.Product {
	return []*domain.Product{
		{ProductID: "sku-cola-1", TenantID: TenantID, Name: "Acme Cola 1L", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "AcmeCola", Price: 1.99},
		{ProductID: "sku-cola-2", TenantID: TenantID, Name: "Acme Cola Zero 1L", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "AcmeCola", Price: 1.99},
		{ProductID: "sku-cola-3", TenantID: TenantID, Name: "Rival Cola 1L", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "RivalCola", Price: 1.89},
		{ProductID: "sku-juice-1", TenantID: TenantID, Name: "SunPress Orange Juice", Category: "Beverages", Subcategory: "Juice", Brand: "SunPress", Price: 2.49},
		{ProductID: "sku-chips-1", TenantID: TenantID, Name: "CrispCo Salted Chips", Category: "Snacks", Subcategory: "Chips", Brand: "CrispCo", Price: 2.99},
		{ProductID: "sku-chips-2", TenantID: TenantID, Name: "CrispCo Paprika Chips", Category: "Snacks", Subcategory: "Chips", Brand: "CrispCo", Price: 3.49},
	}
}

// Promotions returns three completed one-week promotions on the same
// product and customer, most recent last. The repeated pattern gives the
// prediction heuristics real history to work with.
func Promotions() []*domain.Promotion {
	return []*domain.Promotion{
		{
			PromotionID:     "promo-spring",
			TenantID:        TenantID,
			CustomerID:      PromotedCustomerID,
			ProductIDs:      []string{PromotedProductID},
			Dates:           dateRange(2025, time.March, 10, 2025, time.March, 16),
			DiscountPercent: 20,
			Status:          domain.PromotionCompleted,
		},
		{
			PromotionID:     "promo-april",
			TenantID:        TenantID,
			CustomerID:      PromotedCustomerID,
			ProductIDs:      []string{PromotedProductID},
			Dates:           dateRange(2025, time.April, 14, 2025, time.April, 20),
			DiscountPercent: 25,
			Status:          domain.PromotionCompleted,
		},
		{
			PromotionID:     HeadlinePromotionID,
			TenantID:        TenantID,
			CustomerID:      PromotedCustomerID,
			ProductIDs:      []string{PromotedProductID},
			Dates:           dateRange(2025, time.June, 9, 2025, time.June, 15),
			DiscountPercent: 25,
			Status:          domain.PromotionCompleted,
		},
	}
}

// effect scales a product's quantity for one customer over a date range.
type effect struct {
	productID  string
	customerID string
	dates      domain.DateRange
	factor     float64
}

// promotionEffects encodes what each promotion did to demand: lift on the
// promoted product, cannibalized siblings during the window, and a
// pantry-loading dip after the window ends.
func promotionEffects() []effect {
	var effects []effect
	for _, promo := range Promotions() {
		lift := 1.6 + promo.DiscountPercent/100.0
		effects = append(effects,
			effect{PromotedProductID, PromotedCustomerID, promo.Dates, lift},
			effect{"sku-cola-2", PromotedCustomerID, promo.Dates, 0.82},
			effect{"sku-cola-3", PromotedCustomerID, promo.Dates, 0.90},
		)
		dip := domain.DateRange{
			Start: promo.Dates.End.AddDate(0, 0, 1),
			End:   promo.Dates.End.AddDate(0, 0, 14),
		}
		effects = append(effects, effect{PromotedProductID, PromotedCustomerID, dip, 0.72})
	}
	return effects
}

// SalesHistory generates daily records for every product and both
// customers from January through June 2025. Demand is a per-product base
// shaped by weekday, a slow seasonal drift, and the promotion effects.
// The generator is fully deterministic.
func SalesHistory() []*domain.SalesRecord {
	base := map[string]float64{
		"sku-cola-1":  20,
		"sku-cola-2":  14,
		"sku-cola-3":  12,
		"sku-juice-1": 9,
		"sku-chips-1": 11,
		"sku-chips-2": 7,
	}
	effects := promotionEffects()
	prices := make(map[string]float64)
	for _, p := range Catalog() {
		prices[p.ProductID] = p.Price
	}

	var records []*domain.SalesRecord
	for _, p := range Catalog() {
		for _, customerID := range []string{PromotedCustomerID, ControlCustomerID} {
			day := 0
			for d := historyStart; !d.After(historyEnd); d = d.AddDate(0, 0, 1) {
				qty := base[p.ProductID] * weekdayShape[d.Weekday()]
				// Mild drift so history is not perfectly flat.
				qty *= 1 + 0.05*math.Sin(float64(day)/28.0)
				for _, e := range effects {
					if e.productID == p.ProductID && e.customerID == customerID && e.dates.Contains(d) {
						qty *= e.factor
					}
				}
				qty = math.Round(qty)
				records = append(records, &domain.SalesRecord{
					Date:       d,
					ProductID:  p.ProductID,
					CustomerID: customerID,
					TenantID:   TenantID,
					Quantity:   qty,
					Revenue:    qty * prices[p.ProductID],
				})
				day++
			}
		}
	}
	return records
}

func dateRange(y1 int, m1 time.Month, d1, y2 int, m2 time.Month, d2 int) domain.DateRange {
	return domain.NewDateRange(
		time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC),
		time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC),
	)
}
