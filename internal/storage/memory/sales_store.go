package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

func timeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// SalesStore is an in-memory implementation of storage.SalesStore.
type SalesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SalesRecord // keyed by composite key
}

// NewSalesStore creates a new in-memory sales store.
func NewSalesStore() *SalesStore {
	return &SalesStore{
		data: make(map[string]*domain.SalesRecord),
	}
}

// Compile-time interface check.
var _ storage.SalesStore = (*SalesStore)(nil)

// salesKey generates a unique key for a daily sales record.
func salesKey(tenantID, productID, customerID string, dateUnix int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", tenantID, productID, customerID, dateUnix)
}

// QuerySales retrieves daily sales for a pair within [r.Start, r.End], date ASC.
func (s *SalesStore) QuerySales(_ context.Context, tenantID, productID, customerID string, r domain.DateRange) ([]*domain.SalesRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SalesRecord
	for _, rec := range s.data {
		if rec.TenantID != tenantID || rec.ProductID != productID || rec.CustomerID != customerID {
			continue
		}
		if !r.Contains(rec.Date) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// HasSales reports whether any sale exists for the pair.
func (s *SalesStore) HasSales(_ context.Context, tenantID, productID, customerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.data {
		if rec.TenantID == tenantID && rec.ProductID == productID && rec.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

// QueryAverageByDate averages quantity/revenue per date across the given
// product/customer combinations.
func (s *SalesStore) QueryAverageByDate(_ context.Context, tenantID string, productIDs, customerIDs []string, r domain.DateRange) ([]domain.DayPoint, error) {
	products := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		products[id] = struct{}{}
	}
	customers := make(map[string]struct{}, len(customerIDs))
	for _, id := range customerIDs {
		customers[id] = struct{}{}
	}

	type acc struct {
		qty, rev float64
		count    int
	}

	s.mu.RLock()
	byDate := make(map[int64]*acc)
	for _, rec := range s.data {
		if rec.TenantID != tenantID {
			continue
		}
		if _, ok := products[rec.ProductID]; !ok {
			continue
		}
		if _, ok := customers[rec.CustomerID]; !ok {
			continue
		}
		if !r.Contains(rec.Date) {
			continue
		}
		key := rec.Date.Unix()
		a, ok := byDate[key]
		if !ok {
			a = &acc{}
			byDate[key] = a
		}
		a.qty += rec.Quantity
		a.rev += rec.Revenue
		a.count++
	}
	s.mu.RUnlock()

	result := make([]domain.DayPoint, 0, len(byDate))
	for unix, a := range byDate {
		result = append(result, domain.DayPoint{
			Date:     domain.Day(timeFromUnix(unix)),
			Quantity: a.qty / float64(a.count),
			Revenue:  a.rev / float64(a.count),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// InsertBulk adds sales records. Fails entire batch on any duplicate.
func (s *SalesStore) InsertBulk(_ context.Context, records []*domain.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec == nil || rec.TenantID == "" || rec.ProductID == "" {
			return storage.ErrInvalidInput
		}
		key := salesKey(rec.TenantID, rec.ProductID, rec.CustomerID, domain.Day(rec.Date).Unix())
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, rec := range records {
		cp := *rec
		cp.Date = domain.Day(rec.Date)
		s.data[salesKey(cp.TenantID, cp.ProductID, cp.CustomerID, cp.Date.Unix())] = &cp
	}
	return nil
}
