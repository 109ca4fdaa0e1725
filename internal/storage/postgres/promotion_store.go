package postgres

import (
	"context"
	"fmt"
	"time"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// PromotionStore implements storage.PromotionStore using PostgreSQL.
type PromotionStore struct {
	pool *Pool
}

// NewPromotionStore creates a new PromotionStore.
func NewPromotionStore(pool *Pool) *PromotionStore {
	return &PromotionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PromotionStore = (*PromotionStore)(nil)

const promotionColumns = `
	tenant_id, promotion_id, customer_id, product_ids,
	start_date, end_date, discount_percent, status
`

// GetByID retrieves a promotion. Returns ErrNotFound if absent.
func (s *PromotionStore) GetByID(ctx context.Context, tenantID, promotionID string) (promo *domain.Promotion, err error) {
	defer observeQuery("promotions", "get_by_id", time.Now(), &err)

	query := `
		SELECT ` + promotionColumns + `
		FROM promotions
		WHERE tenant_id = $1 AND promotion_id = $2
	`

	p, err := scanPromotionRow(s.pool.QueryRow(ctx, query, tenantID, promotionID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	return p, nil
}

// GetCompletedByProduct retrieves up to limit completed promotions that
// include the product, most recent start date first.
func (s *PromotionStore) GetCompletedByProduct(ctx context.Context, tenantID, productID string, limit int) (promos []*domain.Promotion, err error) {
	defer observeQuery("promotions", "get_completed_by_product", time.Now(), &err)

	query := `
		SELECT ` + promotionColumns + `
		FROM promotions
		WHERE tenant_id = $1 AND status = $2 AND $3 = ANY(product_ids)
		ORDER BY start_date DESC, promotion_id ASC
		LIMIT $4
	`

	rows, err := s.pool.Query(ctx, query, tenantID, string(domain.PromotionCompleted), productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query completed promotions: %w", err)
	}
	defer rows.Close()

	return scanPromotions(rows)
}

// GetByProductsInRange retrieves promotions touching any of the given
// products whose window overlaps the range, start date ASC.
func (s *PromotionStore) GetByProductsInRange(ctx context.Context, tenantID string, productIDs []string, r domain.DateRange) (promos []*domain.Promotion, err error) {
	defer observeQuery("promotions", "get_by_products_in_range", time.Now(), &err)

	query := `
		SELECT ` + promotionColumns + `
		FROM promotions
		WHERE tenant_id = $1
		  AND product_ids && $2
		  AND start_date <= $3
		  AND end_date >= $4
		ORDER BY start_date ASC, promotion_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tenantID, productIDs, r.End, r.Start)
	if err != nil {
		return nil, fmt.Errorf("query promotions in range: %w", err)
	}
	defer rows.Close()

	return scanPromotions(rows)
}

// Insert adds a promotion. Returns ErrDuplicateKey if the ID exists.
func (s *PromotionStore) Insert(ctx context.Context, p *domain.Promotion) (err error) {
	if p == nil || p.TenantID == "" || p.PromotionID == "" {
		return storage.ErrInvalidInput
	}
	defer observeQuery("promotions", "insert", time.Now(), &err)

	query := `
		INSERT INTO promotions (` + promotionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		p.TenantID, p.PromotionID, p.CustomerID, p.ProductIDs,
		p.Dates.Start, p.Dates.End, p.DiscountPercent, string(p.Status),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert promotion: %w", err)
	}
	return nil
}

type rowLike interface {
	Scan(dest ...any) error
}

func scanPromotionRow(row rowLike) (*domain.Promotion, error) {
	var p domain.Promotion
	var start, end time.Time
	var status string
	if err := row.Scan(
		&p.TenantID, &p.PromotionID, &p.CustomerID, &p.ProductIDs,
		&start, &end, &p.DiscountPercent, &status,
	); err != nil {
		return nil, err
	}
	p.Dates = domain.NewDateRange(start, end)
	p.Status = domain.PromotionStatus(status)
	return &p, nil
}

func scanPromotions(rows rowScanner) ([]*domain.Promotion, error) {
	var result []*domain.Promotion
	for rows.Next() {
		p, err := scanPromotionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
