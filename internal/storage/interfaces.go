package storage

import (
	"context"

	"trade-promo-lab/internal/domain"
)

// SalesStore provides read access to the sales-history facts the engine
// operates on, plus bulk insert for seeding.
type SalesStore interface {
	// QuerySales retrieves daily sales for a product/customer pair within
	// [r.Start, r.End] (inclusive), ordered by date ASC.
	QuerySales(ctx context.Context, tenantID, productID, customerID string, r domain.DateRange) ([]*domain.SalesRecord, error)

	// HasSales reports whether any sale exists for the pair.
	HasSales(ctx context.Context, tenantID, productID, customerID string) (bool, error)

	// QueryAverageByDate averages daily quantity/revenue across the given
	// product/customer combinations, one point per date with data, ordered
	// by date ASC. Used by the control-store baseline method.
	QueryAverageByDate(ctx context.Context, tenantID string, productIDs, customerIDs []string, r domain.DateRange) ([]domain.DayPoint, error)

	// InsertBulk adds sales records. Returns ErrDuplicateKey on an existing
	// (tenant, product, customer, date) key.
	InsertBulk(ctx context.Context, records []*domain.SalesRecord) error
}

// ProductStore provides catalog metadata lookups.
type ProductStore interface {
	// GetByID retrieves a product. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, tenantID, productID string) (*domain.Product, error)

	// GetRelated retrieves up to limit products sharing category,
	// subcategory, or brand with p, excluding p itself and soft-deleted
	// products. Order is deterministic (product ID ASC).
	GetRelated(ctx context.Context, tenantID string, p *domain.Product, limit int) ([]*domain.Product, error)

	// GetByCategory retrieves all non-deleted products in a category,
	// ordered by product ID ASC.
	GetByCategory(ctx context.Context, tenantID, category string) ([]*domain.Product, error)

	// ListCategories returns the distinct categories of non-deleted
	// products, sorted ASC.
	ListCategories(ctx context.Context, tenantID string) ([]string, error)

	// Insert adds a product. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.Product) error
}

// PromotionStore provides promotion metadata lookups.
type PromotionStore interface {
	// GetByID retrieves a promotion. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, tenantID, promotionID string) (*domain.Promotion, error)

	// GetCompletedByProduct retrieves up to limit completed promotions that
	// include the product, most recent start date first.
	GetCompletedByProduct(ctx context.Context, tenantID, productID string, limit int) ([]*domain.Promotion, error)

	// GetByProductsInRange retrieves promotions touching any of the given
	// products whose window overlaps [r.Start, r.End], ordered by start
	// date ASC.
	GetByProductsInRange(ctx context.Context, tenantID string, productIDs []string, r domain.DateRange) ([]*domain.Promotion, error)

	// Insert adds a promotion. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.Promotion) error
}

// OverlapsRange reports whether a promotion's window intersects r.
func OverlapsRange(p *domain.Promotion, r domain.DateRange) bool {
	return !p.Dates.End.Before(r.Start) && !p.Dates.Start.After(r.End)
}
