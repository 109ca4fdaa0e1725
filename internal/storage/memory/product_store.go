package memory

import (
	"context"
	"sort"
	"sync"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// ProductStore is an in-memory implementation of storage.ProductStore.
type ProductStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Product // keyed by tenant|product
}

// NewProductStore creates a new in-memory product store.
func NewProductStore() *ProductStore {
	return &ProductStore{
		data: make(map[string]*domain.Product),
	}
}

// Compile-time interface check.
var _ storage.ProductStore = (*ProductStore)(nil)

func productKey(tenantID, productID string) string {
	return tenantID + "|" + productID
}

// GetByID retrieves a product. Returns ErrNotFound if absent.
func (s *ProductStore) GetByID(_ context.Context, tenantID, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[productKey(tenantID, productID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetRelated retrieves up to limit products sharing category, subcategory,
// or brand with p, excluding p itself and soft-deleted products.
func (s *ProductStore) GetRelated(_ context.Context, tenantID string, p *domain.Product, limit int) ([]*domain.Product, error) {
	if p == nil {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	var result []*domain.Product
	for _, candidate := range s.data {
		if candidate.TenantID != tenantID || candidate.Deleted || candidate.ProductID == p.ProductID {
			continue
		}
		if !sharesAttribute(p, candidate) {
			continue
		}
		cp := *candidate
		result = append(result, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func sharesAttribute(a, b *domain.Product) bool {
	if a.Category != "" && a.Category == b.Category {
		return true
	}
	if a.Subcategory != "" && a.Subcategory == b.Subcategory {
		return true
	}
	if a.Brand != "" && a.Brand == b.Brand {
		return true
	}
	return false
}

// GetByCategory retrieves all non-deleted products in a category.
func (s *ProductStore) GetByCategory(_ context.Context, tenantID, category string) ([]*domain.Product, error) {
	s.mu.RLock()
	var result []*domain.Product
	for _, p := range s.data {
		if p.TenantID == tenantID && !p.Deleted && p.Category == category {
			cp := *p
			result = append(result, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

// ListCategories returns distinct categories of non-deleted products.
func (s *ProductStore) ListCategories(_ context.Context, tenantID string) ([]string, error) {
	s.mu.RLock()
	set := make(map[string]struct{})
	for _, p := range s.data {
		if p.TenantID == tenantID && !p.Deleted && p.Category != "" {
			set[p.Category] = struct{}{}
		}
	}
	s.mu.RUnlock()

	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// Insert adds a product. Returns ErrDuplicateKey if the ID exists.
func (s *ProductStore) Insert(_ context.Context, p *domain.Product) error {
	if p == nil || p.TenantID == "" || p.ProductID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := productKey(p.TenantID, p.ProductID)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *p
	s.data[key] = &cp
	return nil
}
