package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/storage"
)

// SalesStore implements storage.SalesStore using ClickHouse. Sales
// history is daily-grained and append-only, a natural MergeTree fit.
type SalesStore struct {
	conn *Conn
}

// NewSalesStore creates a new SalesStore.
func NewSalesStore(conn *Conn) *SalesStore {
	return &SalesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SalesStore = (*SalesStore)(nil)

// QuerySales retrieves daily sales for a pair within [r.Start, r.End], date ASC.
func (s *SalesStore) QuerySales(ctx context.Context, tenantID, productID, customerID string, r domain.DateRange) (records []*domain.SalesRecord, err error) {
	defer observeQuery("sales_history", "query_sales", time.Now(), &err)

	query := `
		SELECT date, quantity, revenue
		FROM sales_history
		WHERE tenant_id = ? AND product_id = ? AND customer_id = ?
		  AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, tenantID, productID, customerID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var result []*domain.SalesRecord
	for rows.Next() {
		rec := &domain.SalesRecord{
			TenantID:   tenantID,
			ProductID:  productID,
			CustomerID: customerID,
		}
		var date time.Time
		if err := rows.Scan(&date, &rec.Quantity, &rec.Revenue); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		rec.Date = domain.Day(date)
		result = append(result, rec)
	}
	return result, rows.Err()
}

// HasSales reports whether any sale exists for the pair.
func (s *SalesStore) HasSales(ctx context.Context, tenantID, productID, customerID string) (has bool, err error) {
	defer observeQuery("sales_history", "has_sales", time.Now(), &err)

	query := `
		SELECT count()
		FROM sales_history
		WHERE tenant_id = ? AND product_id = ? AND customer_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, tenantID, productID, customerID).Scan(&count); err != nil {
		return false, fmt.Errorf("count sales: %w", err)
	}
	return count > 0, nil
}

// QueryAverageByDate averages quantity/revenue per date across the given
// product/customer combinations.
func (s *SalesStore) QueryAverageByDate(ctx context.Context, tenantID string, productIDs, customerIDs []string, r domain.DateRange) (points []domain.DayPoint, err error) {
	if len(productIDs) == 0 || len(customerIDs) == 0 {
		return nil, nil
	}
	defer observeQuery("sales_history", "query_average_by_date", time.Now(), &err)

	query := `
		SELECT date, avg(quantity), avg(revenue)
		FROM sales_history
		WHERE tenant_id = ? AND product_id IN (?) AND customer_id IN (?)
		  AND date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, tenantID, productIDs, customerIDs, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query averages by date: %w", err)
	}
	defer rows.Close()

	var result []domain.DayPoint
	for rows.Next() {
		var point domain.DayPoint
		var date time.Time
		if err := rows.Scan(&date, &point.Quantity, &point.Revenue); err != nil {
			return nil, fmt.Errorf("scan average point: %w", err)
		}
		point.Date = domain.Day(date)
		result = append(result, point)
	}
	return result, rows.Err()
}

// InsertBulk adds sales records. Fails the batch on an intra-batch
// duplicate (tenant, product, customer, date) key; re-ingesting existing
// days is absorbed by the ReplacingMergeTree sorting key on merge.
func (s *SalesStore) InsertBulk(ctx context.Context, records []*domain.SalesRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer observeQuery("sales_history", "insert_bulk", time.Now(), &err)

	type key struct {
		tenant, product, customer string
		day                       int64
	}
	seen := make(map[key]struct{}, len(records))
	for _, rec := range records {
		if rec == nil || rec.TenantID == "" || rec.ProductID == "" {
			return storage.ErrInvalidInput
		}
		k := key{rec.TenantID, rec.ProductID, rec.CustomerID, domain.Day(rec.Date).Unix()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sales_history (tenant_id, product_id, customer_id, date, quantity, revenue)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, rec := range records {
		err = batch.Append(
			rec.TenantID, rec.ProductID, rec.CustomerID,
			domain.Day(rec.Date), rec.Quantity, rec.Revenue,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
