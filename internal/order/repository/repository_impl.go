package repository

import (
	"context"
	"time"

	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) orderdomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListOrders(ctx context.Context, storeID int64, statuses []orderdomain.Status, start, end time.Time) ([]orderdomain.Order, error) {
	if len(statuses) == 0 {
		return []orderdomain.Order{}, nil
	}

	var orders []orderdomain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		Where("store_id = ?", storeID).
		Where("status IN ?", statuses).
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListStoreIDs(ctx context.Context, statuses []orderdomain.Status, start, end time.Time) ([]int64, error) {
	if len(statuses) == 0 {
		return []int64{}, nil
	}

	var ids []int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT DISTINCT store_id
		 FROM orders
		 WHERE status IN ?
		   AND created_at BETWEEN ? AND ?
		   AND deleted_at IS NULL
		 ORDER BY store_id ASC`,
		statuses,
		start,
		end,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
