package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&orderdomain.Order{}, &orderdomain.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, id, storeID int64, status orderdomain.Status, createdAt time.Time, price string, qty int64) {
	t.Helper()
	order := orderdomain.Order{
		ID:        id,
		StoreID:   storeID,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Items: []orderdomain.OrderItem{{
			ID:          id * 10,
			ProductID:   7,
			ProductName: "Americano",
			UnitPrice:   decimal.RequireFromString(price),
			Quantity:    qty,
		}},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order %d: %v", id, err)
	}
}

func TestListOrdersFiltersWindowStatusAndDeletion(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)

	seedOrder(t, db, 1, 42, orderdomain.StatusPending, day, "5000", 2)
	seedOrder(t, db, 2, 42, orderdomain.StatusPending, day.Add(23*time.Hour+59*time.Minute), "30000", 3)
	seedOrder(t, db, 3, 42, orderdomain.StatusCanceled, day.Add(time.Hour), "999", 1)
	seedOrder(t, db, 4, 42, orderdomain.StatusPending, day.AddDate(0, 0, 1), "777", 1)
	seedOrder(t, db, 5, 43, orderdomain.StatusPending, day.Add(time.Hour), "111", 1)
	seedOrder(t, db, 6, 42, orderdomain.StatusPending, day.Add(2*time.Hour), "123", 1)
	require.NoError(t, db.Delete(&orderdomain.Order{}, 6).Error)

	orders, err := repo.ListOrders(ctx, 42, []orderdomain.Status{orderdomain.StatusPending}, day, end)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, int64(1), orders[0].ID)
	require.Equal(t, int64(2), orders[1].ID)
	require.Len(t, orders[1].Items, 1)

	total := orders[0].Total().Add(orders[1].Total())
	if !total.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected total 100000, got %s", total)
	}
}

func TestListOrdersWithoutStatuses(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)

	orders, err := repo.ListOrders(context.Background(), 42, nil, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestListStoreIDs(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository(db)

	day := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	seedOrder(t, db, 1, 43, orderdomain.StatusPending, day.Add(time.Hour), "10", 1)
	seedOrder(t, db, 2, 42, orderdomain.StatusPending, day.Add(2*time.Hour), "10", 1)
	seedOrder(t, db, 3, 42, orderdomain.StatusPending, day.Add(3*time.Hour), "10", 1)
	seedOrder(t, db, 4, 44, orderdomain.StatusDelivered, day.Add(time.Hour), "10", 1)

	ids, err := repo.ListStoreIDs(context.Background(), []orderdomain.Status{orderdomain.StatusPending}, day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
	require.NoError(t, err)
	require.Equal(t, []int64{42, 43}, ids)
}
