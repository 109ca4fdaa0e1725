package postgres

import (
	"context"
	"fmt"
	"time"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// ProductStore implements storage.ProductStore using PostgreSQL.
type ProductStore struct {
	pool *Pool
}

// NewProductStore creates a new ProductStore.
func NewProductStore(pool *Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProductStore = (*ProductStore)(nil)

// GetByID retrieves a product. Returns ErrNotFound if absent.
func (s *ProductStore) GetByID(ctx context.Context, tenantID, productID string) (product *domain.Product, err error) {
	defer observeQuery("products", "get_by_id", time.Now(), &err)

	query := `
		SELECT tenant_id, product_id, name, category, subcategory, brand, price, deleted
		FROM products
		WHERE tenant_id = $1 AND product_id = $2
	`

	var p domain.Product
	err = s.pool.QueryRow(ctx, query, tenantID, productID).Scan(
		&p.TenantID, &p.ProductID, &p.Name, &p.Category, &p.Subcategory, &p.Brand, &p.Price, &p.Deleted,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetRelated retrieves up to limit products sharing category, subcategory,
// or brand with p, excluding p itself and soft-deleted products.
func (s *ProductStore) GetRelated(ctx context.Context, tenantID string, p *domain.Product, limit int) (related []*domain.Product, err error) {
	if p == nil {
		return nil, storage.ErrInvalidInput
	}
	defer observeQuery("products", "get_related", time.Now(), &err)

	query := `
		SELECT tenant_id, product_id, name, category, subcategory, brand, price, deleted
		FROM products
		WHERE tenant_id = $1
		  AND deleted = FALSE
		  AND product_id <> $2
		  AND (
		          (category <> '' AND category = $3)
		       OR (subcategory <> '' AND subcategory = $4)
		       OR (brand <> '' AND brand = $5)
		  )
		ORDER BY product_id ASC
		LIMIT $6
	`

	rows, err := s.pool.Query(ctx, query, tenantID, p.ProductID, p.Category, p.Subcategory, p.Brand, limit)
	if err != nil {
		return nil, fmt.Errorf("query related products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByCategory retrieves all non-deleted products in a category.
func (s *ProductStore) GetByCategory(ctx context.Context, tenantID, category string) (products []*domain.Product, err error) {
	defer observeQuery("products", "get_by_category", time.Now(), &err)

	query := `
		SELECT tenant_id, product_id, name, category, subcategory, brand, price, deleted
		FROM products
		WHERE tenant_id = $1 AND deleted = FALSE AND category = $2
		ORDER BY product_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tenantID, category)
	if err != nil {
		return nil, fmt.Errorf("query category products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListCategories returns distinct categories of non-deleted products.
func (s *ProductStore) ListCategories(ctx context.Context, tenantID string) (categories []string, err error) {
	defer observeQuery("products", "list_categories", time.Now(), &err)

	query := `
		SELECT DISTINCT category
		FROM products
		WHERE tenant_id = $1 AND deleted = FALSE AND category <> ''
		ORDER BY category ASC
	`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Insert adds a product. Returns ErrDuplicateKey if the ID exists.
func (s *ProductStore) Insert(ctx context.Context, p *domain.Product) (err error) {
	if p == nil || p.TenantID == "" || p.ProductID == "" {
		return storage.ErrInvalidInput
	}
	defer observeQuery("products", "insert", time.Now(), &err)

	query := `
		INSERT INTO products (tenant_id, product_id, name, category, subcategory, brand, price, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		p.TenantID, p.ProductID, p.Name, p.Category, p.Subcategory, p.Brand, p.Price, p.Deleted,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanProducts(rows rowScanner) ([]*domain.Product, error) {
	var result []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.TenantID, &p.ProductID, &p.Name, &p.Category, &p.Subcategory, &p.Brand, &p.Price, &p.Deleted,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}
