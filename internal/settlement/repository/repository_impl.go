package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"github.com/smallbiznis/settlement/pkg/db"
	"gorm.io/gorm"
)

const settlementColumns = `id, store_id, settlement_date, order_count,
	total_settlement_amount, supply_amount, tax_amount, commission_amount, settlement_amount,
	status, payout_date, receipt_url, created_at, updated_at`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) settlementdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	var s settlementdomain.Settlement
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+settlementColumns+`
		 FROM settlements
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repository) FindByStoreAndDate(ctx context.Context, storeID int64, date time.Time) (*settlementdomain.Settlement, error) {
	var s settlementdomain.Settlement
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+settlementColumns+`
		 FROM settlements
		 WHERE store_id = ? AND settlement_date = ? AND deleted_at IS NULL`,
		storeID,
		date,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repository) ListByStoreAndRange(ctx context.Context, storeID int64, start, end time.Time) ([]settlementdomain.Settlement, error) {
	var items []settlementdomain.Settlement
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+settlementColumns+`
		 FROM settlements
		 WHERE store_id = ?
		   AND settlement_date BETWEEN ? AND ?
		   AND deleted_at IS NULL
		 ORDER BY settlement_date ASC`,
		storeID,
		start,
		end,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByStore(ctx context.Context, storeID int64) ([]settlementdomain.Settlement, error) {
	var items []settlementdomain.Settlement
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+settlementColumns+`
		 FROM settlements
		 WHERE store_id = ? AND deleted_at IS NULL
		 ORDER BY settlement_date DESC`,
		storeID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListExistingStores(ctx context.Context, date time.Time, storeIDs []int64) ([]int64, error) {
	if len(storeIDs) == 0 {
		return []int64{}, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT store_id
		 FROM settlements
		 WHERE settlement_date = ? AND store_id IN ? AND deleted_at IS NULL`,
		date,
		storeIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) SumOrderCount(ctx context.Context, storeID int64, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(order_count), 0)
		 FROM settlements
		 WHERE store_id = ?
		   AND settlement_date BETWEEN ? AND ?
		   AND deleted_at IS NULL`,
		storeID,
		start,
		end,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) Create(ctx context.Context, s *settlementdomain.Settlement) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if db.IsDuplicateKeyErr(err) {
		return settlementdomain.ErrDuplicateSettlement
	}
	return err
}

// BulkInsert writes all items in one transaction; any duplicate key rolls
// back the whole batch.
func (r *repository) BulkInsert(ctx context.Context, items []settlementdomain.Settlement, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(items)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&items, batchSize).Error
	})
	if db.IsDuplicateKeyErr(err) {
		return settlementdomain.ErrDuplicateSettlement
	}
	return err
}

func (r *repository) UpdateReceipt(ctx context.Context, id snowflake.ID, receiptURL string, updatedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE settlements
		 SET receipt_url = ?, updated_at = ?
		 WHERE id = ?`,
		receiptURL,
		updatedAt,
		id,
	).Error
}

// UpdateStatus applies the transition only while the row still holds from.
func (r *repository) UpdateStatus(ctx context.Context, id snowflake.ID, from, to settlementdomain.Status, payoutDate *time.Time, updatedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE settlements
		 SET status = ?, payout_date = COALESCE(?, payout_date), updated_at = ?
		 WHERE id = ? AND status = ?`,
		to,
		payoutDate,
		updatedAt,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
