package forwardbuy

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
	productID  = "p1"
	customerID = "c1"
)

type fixture struct {
	sales      *memory.SalesStore
	products   *memory.ProductStore
	promotions *memory.PromotionStore
	detector   *Detector
	window     domain.PromotionWindow
}

// newFixture seeds a one-week promotion with eight weeks of flat history
// at 10 units/day before it, elevated promoted-week sales, and a
// caller-chosen post-window shape.
func newFixture(t *testing.T, promoQty float64, postQty func(dayIdx int) float64) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		sales:      memory.NewSalesStore(),
		products:   memory.NewProductStore(),
		promotions: memory.NewPromotionStore(),
	}
	f.window = domain.PromotionWindow{
		TenantID:   tenantID,
		ProductID:  productID,
		CustomerID: customerID,
		Dates: domain.NewDateRange(
			time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		),
	}

	if err := f.products.Insert(ctx, &domain.Product{
		ProductID: productID, TenantID: tenantID, Name: "Acme Cola",
		Category: "Beverages", Subcategory: "Soft Drinks", Brand: "Acme", Price: 2,
	}); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	var records []*domain.SalesRecord
	add := func(d time.Time, qty float64) {
		records = append(records, &domain.SalesRecord{
			Date:       d,
			ProductID:  productID,
			CustomerID: customerID,
			TenantID:   tenantID,
			Quantity:   qty,
			Revenue:    qty * 2,
		})
	}

	for d := f.window.Dates.Start.AddDate(0, 0, -56); d.Before(f.window.Dates.Start); d = d.AddDate(0, 0, 1) {
		add(d, 10)
	}
	for _, d := range f.window.Dates.Days() {
		add(d, promoQty)
	}
	postStart := f.window.Dates.End.AddDate(0, 0, 1)
	for i := 0; i < 28; i++ {
		add(postStart.AddDate(0, 0, i), postQty(i))
	}
	if err := f.sales.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	f.detector = NewDetector(
		f.sales, f.promotions, f.products,
		baseline.NewEstimator(f.sales, config.Default()),
		config.Default(), zerolog.Nop(),
	)
	return f
}

func TestDetect_SevereDipWithoutRecovery(t *testing.T) {
	// Post-window demand collapses to 6/day against a baseline of 10.
	f := newFixture(t, 25, func(int) float64 { return 6 })

	analysis, err := f.detector.Detect(context.Background(), f.window)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if got := analysis.PostWindow.NumDays(); got != 28 {
		t.Errorf("post window length = %d days, want 28", got)
	}
	if !analysis.PostWindow.Start.Equal(f.window.Dates.End.AddDate(0, 0, 1)) {
		t.Errorf("post window starts at %v, want day after promotion end", analysis.PostWindow.Start)
	}

	if math.Abs(analysis.DipPct-40) > 1e-9 {
		t.Errorf("DipPct = %v, want 40", analysis.DipPct)
	}
	if analysis.Severity != domain.SeveritySevere {
		t.Errorf("Severity = %q, want severe", analysis.Severity)
	}
	if !analysis.Detected {
		t.Error("Detected = false, want true")
	}
	if analysis.RecoveryWeek != nil {
		t.Errorf("RecoveryWeek = %v, want nil (never recovered)", *analysis.RecoveryWeek)
	}

	for i, dip := range analysis.DailyAnalysis {
		if !dip.SignificantDip {
			t.Errorf("day %d at 40%% dip should be significant", i)
		}
	}
}

func TestDetect_RecoveryWeek(t *testing.T) {
	// First post week dips to 6/day, after that demand returns to 10.
	f := newFixture(t, 25, func(i int) float64 {
		if i < 7 {
			return 6
		}
		return 10
	})

	analysis, err := f.detector.Detect(context.Background(), f.window)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if analysis.RecoveryWeek == nil {
		t.Fatal("RecoveryWeek = nil, want week 2")
	}
	if *analysis.RecoveryWeek != 2 {
		t.Errorf("RecoveryWeek = %d, want 2", *analysis.RecoveryWeek)
	}
	if analysis.Severity != domain.SeverityLow {
		t.Errorf("Severity = %q, want low (10%% overall dip)", analysis.Severity)
	}
}

func TestDetect_NoDip(t *testing.T) {
	f := newFixture(t, 25, func(int) float64 { return 10 })

	analysis, err := f.detector.Detect(context.Background(), f.window)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if analysis.Detected {
		t.Error("Detected = true for flat post-window")
	}
	if analysis.Severity != domain.SeverityNone {
		t.Errorf("Severity = %q, want none", analysis.Severity)
	}
}

func TestDetect_BaselineExcludesPromotedDays(t *testing.T) {
	// The promoted week sells 25/day. If those days leaked into the
	// lookback the post-window baseline would exceed 10.
	f := newFixture(t, 25, func(int) float64 { return 10 })

	analysis, err := f.detector.Detect(context.Background(), f.window)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	perDay := analysis.BaselineTotal / float64(len(analysis.DailyAnalysis))
	if math.Abs(perDay-10) > 1e-9 {
		t.Errorf("post-window baseline = %v/day, want 10 (promo days excluded)", perDay)
	}
}

func TestDetect_PartialWeekPromotionDoesNotSkewBaseline(t *testing.T) {
	// A Mon-Thu promotion only spikes four weekdays. Those days must be
	// excluded from the weekday seasonality sample too, or the post-window
	// baseline picks up an inflated Mon-Thu shape and a deflated Friday.
	ctx := context.Background()
	sales := memory.NewSalesStore()
	window := domain.PromotionWindow{
		TenantID:   tenantID,
		ProductID:  productID,
		CustomerID: customerID,
		Dates: domain.NewDateRange(
			time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC),
		),
	}

	var records []*domain.SalesRecord
	add := func(d time.Time, qty float64) {
		records = append(records, &domain.SalesRecord{
			Date:       d,
			ProductID:  productID,
			CustomerID: customerID,
			TenantID:   tenantID,
			Quantity:   qty,
			Revenue:    qty * 2,
		})
	}
	for d := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC); d.Before(window.Dates.Start); d = d.AddDate(0, 0, 1) {
		add(d, 10)
	}
	for _, d := range window.Dates.Days() {
		add(d, 50)
	}
	postStart := window.Dates.End.AddDate(0, 0, 1)
	for i := 0; i < 28; i++ {
		add(postStart.AddDate(0, 0, i), 10)
	}
	if err := sales.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	detector := NewDetector(
		sales, memory.NewPromotionStore(), memory.NewProductStore(),
		baseline.NewEstimator(sales, config.Default()),
		config.Default(), zerolog.Nop(),
	)

	analysis, err := detector.Detect(ctx, window)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	for _, day := range analysis.DailyAnalysis {
		if math.Abs(day.BaselineQty-10) > 1e-9 {
			t.Errorf("%s baseline = %v, want exactly 10", day.Date.Format("2006-01-02 Mon"), day.BaselineQty)
		}
		if day.SignificantDip {
			t.Errorf("%s flagged as a significant dip on flat sales", day.Date.Format("2006-01-02"))
		}
	}
	if math.Abs(analysis.DipPct) > 1e-9 {
		t.Errorf("DipPct = %v, want 0", analysis.DipPct)
	}
	if analysis.Detected {
		t.Error("Detected = true with post-window sales matching history")
	}
}

func TestClassifySeverity(t *testing.T) {
	d := NewDetector(
		memory.NewSalesStore(), memory.NewPromotionStore(), memory.NewProductStore(),
		baseline.NewEstimator(memory.NewSalesStore(), config.Default()),
		config.Default(), zerolog.Nop(),
	)

	tests := []struct {
		dipPct float64
		want   domain.ForwardBuySeverity
	}{
		{50, domain.SeveritySevere},
		{30.01, domain.SeveritySevere},
		{30, domain.SeverityHigh},
		{20.5, domain.SeverityHigh},
		{20, domain.SeverityModerate},
		{10.5, domain.SeverityModerate},
		{10, domain.SeverityLow},
		{5.5, domain.SeverityLow},
		{5, domain.SeverityNone},
		{0, domain.SeverityNone},
		{-10, domain.SeverityNone},
	}

	for _, tt := range tests {
		if got := d.classifySeverity(tt.dipPct); got != tt.want {
			t.Errorf("classifySeverity(%v) = %q, want %q", tt.dipPct, got, tt.want)
		}
	}
}

func TestNetPromotionImpact_AllLiftBorrowed(t *testing.T) {
	// Gross lift (25-10)*7 = 105; forward buy (10-6)*28 = 112. Net is
	// negative, so the verdict is discontinue regardless of rate.
	f := newFixture(t, 25, func(int) float64 { return 6 })

	impact, err := f.detector.NetPromotionImpact(context.Background(), f.window)
	if err != nil {
		t.Fatalf("NetPromotionImpact failed: %v", err)
	}

	if math.Abs(impact.GrossIncrementalQty-105) > 1e-9 {
		t.Errorf("GrossIncrementalQty = %v, want 105", impact.GrossIncrementalQty)
	}
	if math.Abs(impact.ForwardBuyVolume-112) > 1e-9 {
		t.Errorf("ForwardBuyVolume = %v, want 112", impact.ForwardBuyVolume)
	}
	if impact.NetIncrementalQty >= 0 {
		t.Errorf("NetIncrementalQty = %v, want negative", impact.NetIncrementalQty)
	}
	if impact.Verdict != domain.VerdictDiscontinue {
		t.Errorf("Verdict = %q, want discontinue", impact.Verdict)
	}
}

func TestNetPromotionImpact_MostlyIncremental(t *testing.T) {
	// Gross lift 105; forward buy (10-9)*28 = 28; rate ~26.7%.
	f := newFixture(t, 25, func(int) float64 { return 9 })

	impact, err := f.detector.NetPromotionImpact(context.Background(), f.window)
	if err != nil {
		t.Fatalf("NetPromotionImpact failed: %v", err)
	}
	if impact.Verdict != domain.VerdictAcceptable {
		t.Errorf("Verdict = %q, want acceptable at ~27%% rate", impact.Verdict)
	}
}

func TestClassifyImpact_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		net     float64
		ratePct float64
		want    string
	}{
		{"negative net", -1, 10, domain.VerdictDiscontinue},
		{"zero net", 0, 10, domain.VerdictDiscontinue},
		{"rate above 75", 10, 80, domain.VerdictPoor},
		{"rate above 50", 10, 60, domain.VerdictBelowTarget},
		{"rate above 25", 10, 30, domain.VerdictAcceptable},
		{"low rate", 10, 10, domain.VerdictExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, _ := classifyImpact(tt.net, tt.ratePct)
			if verdict != tt.want {
				t.Errorf("classifyImpact(%v, %v) = %q, want %q", tt.net, tt.ratePct, verdict, tt.want)
			}
		})
	}
}

func TestPredictRisk(t *testing.T) {
	f := newFixture(t, 25, func(int) float64 { return 6 })
	ctx := context.Background()

	if err := f.promotions.Insert(ctx, &domain.Promotion{
		PromotionID:     "promo-1",
		TenantID:        tenantID,
		CustomerID:      customerID,
		ProductIDs:      []string{productID},
		Dates:           f.window.Dates,
		DiscountPercent: 20,
		Status:          domain.PromotionCompleted,
	}); err != nil {
		t.Fatalf("insert promotion: %v", err)
	}

	// Planned discount within 10 points of history: similar promotion,
	// medium confidence, 1.2x multiplier on the observed 40% dip.
	risk, err := f.detector.PredictRisk(ctx, tenantID, productID, "", 25)
	if err != nil {
		t.Fatalf("PredictRisk failed: %v", err)
	}
	if risk.SimilarPromotions != 1 {
		t.Errorf("SimilarPromotions = %d, want 1", risk.SimilarPromotions)
	}
	if risk.Confidence != domain.ConfidenceMedium {
		t.Errorf("Confidence = %q, want medium", risk.Confidence)
	}
	if risk.Risk != domain.RiskMedium {
		t.Errorf("Risk = %q, want medium at 25%% discount", risk.Risk)
	}
	if math.Abs(risk.PredictedDipPct-48) > 1e-9 {
		t.Errorf("PredictedDipPct = %v, want 48 (40 * 1.2)", risk.PredictedDipPct)
	}
	if risk.PredictedSeverity != domain.SeveritySevere {
		t.Errorf("PredictedSeverity = %q, want severe", risk.PredictedSeverity)
	}

	// Deep discount far from history: falls back to all observations
	// with low confidence and the 1.5x multiplier.
	risk, err = f.detector.PredictRisk(ctx, tenantID, productID, "", 35)
	if err != nil {
		t.Fatalf("PredictRisk failed: %v", err)
	}
	if risk.SimilarPromotions != 0 {
		t.Errorf("SimilarPromotions = %d, want 0", risk.SimilarPromotions)
	}
	if risk.Confidence != domain.ConfidenceLow {
		t.Errorf("Confidence = %q, want low", risk.Confidence)
	}
	if risk.Risk != domain.RiskHigh {
		t.Errorf("Risk = %q, want high at 35%% discount", risk.Risk)
	}
	if math.Abs(risk.PredictedDipPct-60) > 1e-9 {
		t.Errorf("PredictedDipPct = %v, want 60 (40 * 1.5)", risk.PredictedDipPct)
	}
}

func TestPredictRisk_NoHistory(t *testing.T) {
	f := newFixture(t, 25, func(int) float64 { return 6 })

	risk, err := f.detector.PredictRisk(context.Background(), tenantID, productID, "", 20)
	if err != nil {
		t.Fatalf("PredictRisk failed: %v", err)
	}
	if risk.Confidence != domain.ConfidenceInsufficientData {
		t.Errorf("Confidence = %q, want insufficient_data", risk.Confidence)
	}
}

func TestCategoryScan(t *testing.T) {
	f := newFixture(t, 25, func(int) float64 { return 6 })
	ctx := context.Background()

	completed := &domain.Promotion{
		PromotionID:     "promo-1",
		TenantID:        tenantID,
		CustomerID:      customerID,
		ProductIDs:      []string{productID},
		Dates:           f.window.Dates,
		DiscountPercent: 20,
		Status:          domain.PromotionCompleted,
	}
	planned := &domain.Promotion{
		PromotionID:     "promo-2",
		TenantID:        tenantID,
		CustomerID:      customerID,
		ProductIDs:      []string{productID},
		Dates:           f.window.Dates,
		DiscountPercent: 20,
		Status:          domain.PromotionPlanned,
	}
	for _, p := range []*domain.Promotion{completed, planned} {
		if err := f.promotions.Insert(ctx, p); err != nil {
			t.Fatalf("insert promotion %s: %v", p.PromotionID, err)
		}
	}

	scanRange := domain.NewDateRange(
		f.window.Dates.Start.AddDate(0, 0, -7),
		f.window.Dates.End.AddDate(0, 0, 7),
	)
	result, err := f.detector.CategoryScan(ctx, tenantID, "Beverages", scanRange)
	if err != nil {
		t.Fatalf("CategoryScan failed: %v", err)
	}

	if result.Scanned != 1 {
		t.Errorf("Scanned = %d, want 1 (planned promotion skipped)", result.Scanned)
	}
	if len(result.Flagged) != 1 {
		t.Fatalf("got %d flagged, want 1", len(result.Flagged))
	}
	flagged := result.Flagged[0]
	if flagged.PromotionID != "promo-1" || flagged.ProductID != productID {
		t.Errorf("flagged %s/%s, want promo-1/%s", flagged.PromotionID, flagged.ProductID, productID)
	}
	if flagged.Severity != domain.SeveritySevere {
		t.Errorf("flagged severity = %q, want severe", flagged.Severity)
	}
	if result.SeverityCounts[domain.SeveritySevere] != 1 {
		t.Errorf("SeverityCounts[severe] = %d, want 1", result.SeverityCounts[domain.SeveritySevere])
	}
}
