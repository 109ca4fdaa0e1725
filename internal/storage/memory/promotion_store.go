package memory

import (
	"context"
	"sort"
	"sync"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// PromotionStore is an in-memory implementation of storage.PromotionStore.
type PromotionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Promotion // keyed by tenant|promotion
}

// NewPromotionStore creates a new in-memory promotion store.
func NewPromotionStore() *PromotionStore {
	return &PromotionStore{
		data: make(map[string]*domain.Promotion),
	}
}

// Compile-time interface check.
var _ storage.PromotionStore = (*PromotionStore)(nil)

func promotionKey(tenantID, promotionID string) string {
	return tenantID + "|" + promotionID
}

func copyPromotion(p *domain.Promotion) *domain.Promotion {
	cp := *p
	cp.ProductIDs = append([]string(nil), p.ProductIDs...)
	return &cp
}

// GetByID retrieves a promotion. Returns ErrNotFound if absent.
func (s *PromotionStore) GetByID(_ context.Context, tenantID, promotionID string) (*domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[promotionKey(tenantID, promotionID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPromotion(p), nil
}

// GetCompletedByProduct retrieves up to limit completed promotions that
// include the product, most recent start date first.
func (s *PromotionStore) GetCompletedByProduct(_ context.Context, tenantID, productID string, limit int) ([]*domain.Promotion, error) {
	s.mu.RLock()
	var result []*domain.Promotion
	for _, p := range s.data {
		if p.TenantID != tenantID || p.Status != domain.PromotionCompleted {
			continue
		}
		if !includesProduct(p, productID) {
			continue
		}
		result = append(result, copyPromotion(p))
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Dates.Start.Equal(result[j].Dates.Start) {
			return result[i].Dates.Start.After(result[j].Dates.Start)
		}
		return result[i].PromotionID < result[j].PromotionID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func includesProduct(p *domain.Promotion, productID string) bool {
	for _, id := range p.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// GetByProductsInRange retrieves promotions touching any of the given
// products whose window overlaps the range, start date ASC.
func (s *PromotionStore) GetByProductsInRange(_ context.Context, tenantID string, productIDs []string, r domain.DateRange) ([]*domain.Promotion, error) {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	var result []*domain.Promotion
	for _, p := range s.data {
		if p.TenantID != tenantID || !storage.OverlapsRange(p, r) {
			continue
		}
		match := false
		for _, id := range p.ProductIDs {
			if _, ok := wanted[id]; ok {
				match = true
				break
			}
		}
		if match {
			result = append(result, copyPromotion(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Dates.Start.Equal(result[j].Dates.Start) {
			return result[i].Dates.Start.Before(result[j].Dates.Start)
		}
		return result[i].PromotionID < result[j].PromotionID
	})
	return result, nil
}

// Insert adds a promotion. Returns ErrDuplicateKey if the ID exists.
func (s *PromotionStore) Insert(_ context.Context, p *domain.Promotion) error {
	if p == nil || p.TenantID == "" || p.PromotionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := promotionKey(p.TenantID, p.PromotionID)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = copyPromotion(p)
	return nil
}
