package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-promo-lab/internal/domain"
	"trade-promo-lab/internal/observability"
	"trade-promo-lab/internal/storage"
)

func testDay(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func testRecord(productID, customerID string, day int, qty float64) *domain.SalesRecord {
	return &domain.SalesRecord{
		TenantID:   "t1",
		ProductID:  productID,
		CustomerID: customerID,
		Date:       testDay(day),
		Quantity:   qty,
		Revenue:    qty * 2,
	}
}

func TestSalesStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)
	ctx := context.Background()

	records := []*domain.SalesRecord{
		testRecord("sku-1", "cust-1", 3, 12),
		testRecord("sku-1", "cust-1", 1, 10),
		testRecord("sku-1", "cust-1", 2, 11),
		testRecord("sku-1", "cust-2", 2, 99),
		testRecord("sku-2", "cust-1", 2, 50),
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.QuerySales(ctx, "t1", "sku-1", "cust-1", domain.NewDateRange(testDay(1), testDay(3)))
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Date ASC, only the requested pair.
	assert.True(t, got[0].Date.Equal(testDay(1)))
	assert.True(t, got[1].Date.Equal(testDay(2)))
	assert.True(t, got[2].Date.Equal(testDay(3)))
	assert.Equal(t, 10.0, got[0].Quantity)
	assert.Equal(t, 20.0, got[0].Revenue)
	assert.Equal(t, "sku-1", got[0].ProductID)
	assert.Equal(t, "cust-1", got[0].CustomerID)

	// Store calls feed the query-duration metric.
	assert.Greater(t, testutil.CollectAndCount(observability.DefaultMetrics.StoreQueryDuration), 0)
}

func TestSalesStore_QueryRangeBounds(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesRecord{
		testRecord("sku-1", "cust-1", 1, 10),
		testRecord("sku-1", "cust-1", 2, 11),
		testRecord("sku-1", "cust-1", 3, 12),
		testRecord("sku-1", "cust-1", 4, 13),
	}))

	got, err := store.QuerySales(ctx, "t1", "sku-1", "cust-1", domain.NewDateRange(testDay(2), testDay(3)))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(testDay(2)))
	assert.True(t, got[1].Date.Equal(testDay(3)))
}

func TestSalesStore_HasSales(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesRecord{
		testRecord("sku-1", "cust-1", 1, 10),
	}))

	has, err := store.HasSales(ctx, "t1", "sku-1", "cust-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasSales(ctx, "t1", "sku-1", "cust-2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSalesStore_QueryAverageByDate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.SalesRecord{
		testRecord("sku-1", "cust-1", 1, 10),
		testRecord("sku-1", "cust-2", 1, 20),
		testRecord("sku-1", "cust-1", 2, 30),
		testRecord("sku-1", "cust-3", 1, 99),
	}))

	points, err := store.QueryAverageByDate(ctx, "t1",
		[]string{"sku-1"}, []string{"cust-1", "cust-2"},
		domain.NewDateRange(testDay(1), testDay(2)))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.True(t, points[0].Date.Equal(testDay(1)))
	assert.Equal(t, 15.0, points[0].Quantity)
	assert.True(t, points[1].Date.Equal(testDay(2)))
	assert.Equal(t, 30.0, points[1].Quantity)
}

func TestSalesStore_QueryAverageByDateEmptyIDs(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)

	points, err := store.QueryAverageByDate(context.Background(), "t1",
		nil, []string{"cust-1"}, domain.NewDateRange(testDay(1), testDay(2)))
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestSalesStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.SalesRecord{
		testRecord("sku-1", "cust-1", 1, 10),
		testRecord("sku-1", "cust-1", 1, 12),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSalesStore_InsertBulkInvalidRecord(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)

	err := store.InsertBulk(context.Background(), []*domain.SalesRecord{
		{TenantID: "", ProductID: "sku-1", CustomerID: "cust-1", Date: testDay(1)},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSalesStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}
