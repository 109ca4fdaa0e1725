// Package seasonality computes per-weekday demand multipliers from
// recent sales history. The index is consumed by the pre_period baseline
// method to shape its flat daily average into a weekly pattern.
package seasonality

import (
	"context"
	"fmt"
	"time"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// Index holds one multiplier per weekday, indexed by time.Weekday
// (Sunday = 0). A weekday with no observations carries 1.0.
type Index [7]float64

// Factor returns the multiplier for the weekday of t.
func (ix Index) Factor(t time.Time) float64 {
	return ix[int(t.UTC().Weekday())]
}

// Flat reports whether every weekday multiplier is 1.0.
func (ix Index) Flat() bool {
	for _, f := range ix {
		if f != 1.0 {
			return false
		}
	}
	return true
}

// Indexer derives seasonality indexes from the sales-history store.
type Indexer struct {
	sales  storage.SalesStore
	months int
}

// NewIndexer creates an indexer reading the given number of months of
// history before the reference date.
func NewIndexer(sales storage.SalesStore, months int) *Indexer {
	if months <= 0 {
		months = 3
	}
	return &Indexer{sales: sales, months: months}
}

// Compute builds the weekday index for a product/customer pair from the
// history preceding referenceDate. seasonalFactor[weekday] is the weekday
// mean quantity divided by the overall mean, defaulting to 1.0 for
// weekdays with zero observations. Records inside exclude are dropped
// from the sample so promoted-period sales never shape the index.
func (ix *Indexer) Compute(ctx context.Context, tenantID, productID, customerID string, referenceDate time.Time, exclude *domain.DateRange) (Index, error) {
	var index Index
	for i := range index {
		index[i] = 1.0
	}

	ref := domain.Day(referenceDate)
	lookback := domain.DateRange{
		Start: ref.AddDate(0, -ix.months, 0),
		End:   ref.AddDate(0, 0, -1),
	}

	records, err := ix.sales.QuerySales(ctx, tenantID, productID, customerID, lookback)
	if err != nil {
		return index, fmt.Errorf("query seasonality history: %w", err)
	}
	if exclude != nil {
		filtered := records[:0]
		for _, rec := range records {
			if !exclude.Contains(rec.Date) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if len(records) == 0 {
		return index, nil
	}

	var sums [7]float64
	var counts [7]int
	var totalQty float64
	for _, rec := range records {
		wd := int(rec.Date.UTC().Weekday())
		sums[wd] += rec.Quantity
		counts[wd]++
		totalQty += rec.Quantity
	}

	// Overall mean weighted by point count.
	overallMean := totalQty / float64(len(records))
	if overallMean == 0 {
		return index, nil
	}

	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 {
			continue
		}
		weekdayMean := sums[wd] / float64(counts[wd])
		index[wd] = weekdayMean / overallMean
	}
	return index, nil
}
