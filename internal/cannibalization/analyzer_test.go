package cannibalization

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trade-promo-lab/internal/baseline"
	"trade-promo-lab/internal/config"
	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage/memory"
)

const (
	tenantID   = "t1"
	customerID = "c1"
)

type fixture struct {
	products   *memory.ProductStore
	promotions *memory.PromotionStore
	sales      *memory.SalesStore
	analyzer   *Analyzer
	window     domain.PromotionWindow
}

// newFixture builds a beverage catalog around promoted product p1 with
// four weeks of flat history and window actuals chosen per product:
//
//	p1 promoted   10 -> 15  (+50% lift)
//	p2 same brand 10 ->  8  (20% cannibalized, reported)
//	p3 rival      10 -> 9.5 (5%, under threshold)
//	p4 juice      10 ->  7  (30% cannibalized, reported)
//	p5 no sales at all      (skipped)
//	p6 snacks     10 ->  8  (other category)
//	p7 dairy      10 -> 12  (other category, halo)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		products:   memory.NewProductStore(),
		promotions: memory.NewPromotionStore(),
		sales:      memory.NewSalesStore(),
	}
	f.window = domain.PromotionWindow{
		TenantID:   tenantID,
		ProductID:  "p1",
		CustomerID: customerID,
		Dates: domain.NewDateRange(
			time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		),
	}

	catalog := []*domain.Product{
		{ProductID: "p1", TenantID: tenantID, Name: "Acme Cola", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "Acme", Price: 2},
		{ProductID: "p2", TenantID: tenantID, Name: "Acme Cola Zero", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "Acme", Price: 2},
		{ProductID: "p3", TenantID: tenantID, Name: "Rival Cola", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "Rival", Price: 3},
		{ProductID: "p4", TenantID: tenantID, Name: "Sun Juice", Category: "Beverages", Subcategory: "Juice", Brand: "Sun", Price: 4},
		{ProductID: "p5", TenantID: tenantID, Name: "Rival Lemonade", Category: "Beverages", Subcategory: "Soft Drinks", Brand: "Rival", Price: 2},
		{ProductID: "p6", TenantID: tenantID, Name: "Crisp Chips", Category: "Snacks", Subcategory: "Chips", Brand: "Crisp", Price: 3},
		{ProductID: "p7", TenantID: tenantID, Name: "Farm Milk", Category: "Dairy", Subcategory: "Milk", Brand: "Farm", Price: 1.5},
	}
	for _, p := range catalog {
		if err := f.products.Insert(ctx, p); err != nil {
			t.Fatalf("insert product %s: %v", p.ProductID, err)
		}
	}

	windowQty := map[string]float64{
		"p1": 15, "p2": 8, "p3": 9.5, "p4": 7, "p6": 8, "p7": 12,
	}
	for productID, qty := range windowQty {
		f.seed(t, productID, f.window.Dates.Start.AddDate(0, 0, -28), f.window.Dates.Start.AddDate(0, 0, -1), 10)
		f.seed(t, productID, f.window.Dates.Start, f.window.Dates.End, qty)
	}

	f.analyzer = NewAnalyzer(
		f.products, f.promotions, f.sales,
		baseline.NewEstimator(f.sales, config.Default()),
		config.Default(), zerolog.Nop(),
	)
	return f
}

func (f *fixture) seed(t *testing.T, productID string, start, end time.Time, qty float64) {
	t.Helper()
	var records []*domain.SalesRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		records = append(records, &domain.SalesRecord{
			Date:       d,
			ProductID:  productID,
			CustomerID: customerID,
			TenantID:   tenantID,
			Quantity:   qty,
			Revenue:    qty * 2,
		})
	}
	if err := f.sales.InsertBulk(context.Background(), records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
}

func TestAnalyzePromotion(t *testing.T) {
	f := newFixture(t)

	analysis, err := f.analyzer.AnalyzePromotion(context.Background(), f.window)
	if err != nil {
		t.Fatalf("AnalyzePromotion failed: %v", err)
	}

	if len(analysis.Entries) != 2 {
		t.Fatalf("got %d entries, want 2 (p4 and p2): %+v", len(analysis.Entries), analysis.Entries)
	}

	// Sorted by rate descending.
	first, second := analysis.Entries[0], analysis.Entries[1]
	if first.RelatedProductID != "p4" || second.RelatedProductID != "p2" {
		t.Fatalf("entry order = %s, %s; want p4, p2", first.RelatedProductID, second.RelatedProductID)
	}

	if math.Abs(first.CannibalizationRatePct-30) > 1e-9 {
		t.Errorf("p4 rate = %v, want 30", first.CannibalizationRatePct)
	}
	if first.RelationshipTier != domain.TierSameCategoryDifferentSubcat {
		t.Errorf("p4 tier = %q, want same_category_different_subcategory", first.RelationshipTier)
	}
	if math.Abs(first.RevenueImpact-84) > 1e-9 {
		t.Errorf("p4 revenue impact = %v, want 84 (21 units at price 4)", first.RevenueImpact)
	}

	if math.Abs(second.CannibalizationRatePct-20) > 1e-9 {
		t.Errorf("p2 rate = %v, want 20", second.CannibalizationRatePct)
	}
	if second.RelationshipTier != domain.TierSameBrandSameCategory {
		t.Errorf("p2 tier = %q, want same_brand_same_category", second.RelationshipTier)
	}

	summary := analysis.Summary
	if summary.Count != 2 {
		t.Errorf("summary count = %d, want 2", summary.Count)
	}
	if math.Abs(summary.TotalCannibalizedVolume-35) > 1e-9 {
		t.Errorf("total cannibalized = %v, want 35", summary.TotalCannibalizedVolume)
	}
	if math.Abs(summary.AverageRatePct-25) > 1e-9 {
		t.Errorf("average rate = %v, want 25", summary.AverageRatePct)
	}
}

func TestAnalyzePromotion_BelowThresholdExcluded(t *testing.T) {
	f := newFixture(t)

	analysis, err := f.analyzer.AnalyzePromotion(context.Background(), f.window)
	if err != nil {
		t.Fatalf("AnalyzePromotion failed: %v", err)
	}
	for _, entry := range analysis.Entries {
		if entry.RelatedProductID == "p3" {
			t.Error("p3 at 5% should be under the 10% threshold")
		}
		if entry.RelatedProductID == "p5" {
			t.Error("p5 has no sales and should have been skipped")
		}
	}
}

func TestNetIncremental(t *testing.T) {
	f := newFixture(t)

	result, err := f.analyzer.NetIncremental(context.Background(), f.window)
	if err != nil {
		t.Fatalf("NetIncremental failed: %v", err)
	}

	// Promoted product: 10 -> 15 over 7 days.
	if math.Abs(result.GrossIncrementalQty-35) > 1e-9 {
		t.Errorf("GrossIncrementalQty = %v, want 35", result.GrossIncrementalQty)
	}
	if math.Abs(result.CannibalizedVolume-35) > 1e-9 {
		t.Errorf("CannibalizedVolume = %v, want 35", result.CannibalizedVolume)
	}
	if math.Abs(result.NetIncrementalQty) > 1e-9 {
		t.Errorf("NetIncrementalQty = %v, want 0", result.NetIncrementalQty)
	}

	// Gross revenue lift 70, cannibalized revenue 112 (price-weighted).
	if math.Abs(result.NetRevenueImpact-(-42)) > 1e-9 {
		t.Errorf("NetRevenueImpact = %v, want -42", result.NetRevenueImpact)
	}
	if math.Abs(result.NetMarginImpact-(-12.6)) > 1e-9 {
		t.Errorf("NetMarginImpact = %v, want -12.6 at 30%% margin", result.NetMarginImpact)
	}
}

func TestCategoryImpact(t *testing.T) {
	f := newFixture(t)

	entries, err := f.analyzer.CategoryImpact(context.Background(), tenantID, "Beverages", customerID, f.window.Dates)
	if err != nil {
		t.Fatalf("CategoryImpact failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (Dairy and Snacks): %+v", len(entries), entries)
	}

	byCategory := make(map[string]domain.CategoryImpactEntry)
	for _, e := range entries {
		byCategory[e.Category] = e
	}

	snacks, ok := byCategory["Snacks"]
	if !ok {
		t.Fatal("Snacks entry missing")
	}
	if snacks.Effect != domain.EffectCannibalization {
		t.Errorf("Snacks effect = %q, want cannibalization", snacks.Effect)
	}
	if math.Abs(snacks.ImpactRatePct-20) > 1e-9 {
		t.Errorf("Snacks impact rate = %v, want 20", snacks.ImpactRatePct)
	}

	dairy, ok := byCategory["Dairy"]
	if !ok {
		t.Fatal("Dairy entry missing")
	}
	if dairy.Effect != domain.EffectHalo {
		t.Errorf("Dairy effect = %q, want halo_effect", dairy.Effect)
	}
	if dairy.ImpactRatePct >= 0 {
		t.Errorf("Dairy impact rate = %v, want negative (gain)", dairy.ImpactRatePct)
	}
}

func TestPredictCannibalization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.promotions.Insert(ctx, &domain.Promotion{
		PromotionID:     "promo-1",
		TenantID:        tenantID,
		CustomerID:      customerID,
		ProductIDs:      []string{"p1"},
		Dates:           f.window.Dates,
		DiscountPercent: 20,
		Status:          domain.PromotionCompleted,
	}); err != nil {
		t.Fatalf("insert promotion: %v", err)
	}

	forecast, err := f.analyzer.PredictCannibalization(ctx, tenantID, "p1", "")
	if err != nil {
		t.Fatalf("PredictCannibalization failed: %v", err)
	}

	if forecast.HistoricalPromotions != 1 {
		t.Errorf("HistoricalPromotions = %d, want 1", forecast.HistoricalPromotions)
	}
	if forecast.Confidence != domain.ConfidenceMedium {
		t.Errorf("Confidence = %q, want medium with fewer than 3 promotions", forecast.Confidence)
	}
	if math.Abs(forecast.AverageRatePct-25) > 1e-9 {
		t.Errorf("AverageRatePct = %v, want 25", forecast.AverageRatePct)
	}
	want := []string{"p2", "p4"}
	if len(forecast.LikelyAffectedProducts) != len(want) {
		t.Fatalf("LikelyAffectedProducts = %v, want %v", forecast.LikelyAffectedProducts, want)
	}
	for i, id := range want {
		if forecast.LikelyAffectedProducts[i] != id {
			t.Errorf("LikelyAffectedProducts[%d] = %s, want %s", i, forecast.LikelyAffectedProducts[i], id)
		}
	}
}

func TestPredictCannibalization_NoHistory(t *testing.T) {
	f := newFixture(t)

	forecast, err := f.analyzer.PredictCannibalization(context.Background(), tenantID, "p1", "")
	if err != nil {
		t.Fatalf("PredictCannibalization failed: %v", err)
	}
	if forecast.Confidence != domain.ConfidenceInsufficientData {
		t.Errorf("Confidence = %q, want insufficient_data", forecast.Confidence)
	}
	if forecast.HistoricalPromotions != 0 {
		t.Errorf("HistoricalPromotions = %d, want 0", forecast.HistoricalPromotions)
	}
}

func TestSubstitutionMatrix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.promotions.Insert(ctx, &domain.Promotion{
		PromotionID:     "promo-1",
		TenantID:        tenantID,
		CustomerID:      customerID,
		ProductIDs:      []string{"p1"},
		Dates:           f.window.Dates,
		DiscountPercent: 20,
		Status:          domain.PromotionCompleted,
	}); err != nil {
		t.Fatalf("insert promotion: %v", err)
	}

	scanRange := domain.NewDateRange(
		f.window.Dates.Start.AddDate(0, 0, -7),
		f.window.Dates.End.AddDate(0, 0, 7),
	)
	matrix, err := f.analyzer.SubstitutionMatrix(ctx, tenantID, "Beverages", "", scanRange)
	if err != nil {
		t.Fatalf("SubstitutionMatrix failed: %v", err)
	}

	if matrix.Category != "Beverages" {
		t.Errorf("Category = %q, want Beverages", matrix.Category)
	}
	if len(matrix.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(matrix.Pairs), matrix.Pairs)
	}
	for _, pair := range matrix.Pairs {
		if pair.ToProductID != "p1" {
			t.Errorf("pair target = %s, want promoted product p1", pair.ToProductID)
		}
		if pair.PromotionID != "promo-1" {
			t.Errorf("pair promotion = %s, want promo-1", pair.PromotionID)
		}
	}
}
