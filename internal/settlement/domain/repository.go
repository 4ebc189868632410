package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository persists settlements. Date bounds are inclusive calendar
// dates. Create and BulkInsert return ErrDuplicateSettlement when the
// (store, date) key already exists.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Settlement, error)
	FindByStoreAndDate(ctx context.Context, storeID int64, date time.Time) (*Settlement, error)
	ListByStoreAndRange(ctx context.Context, storeID int64, start, end time.Time) ([]Settlement, error)
	ListByStore(ctx context.Context, storeID int64) ([]Settlement, error)
	ListExistingStores(ctx context.Context, date time.Time, storeIDs []int64) ([]int64, error)
	SumOrderCount(ctx context.Context, storeID int64, start, end time.Time) (int64, error)
	Create(ctx context.Context, s *Settlement) error
	BulkInsert(ctx context.Context, items []Settlement, batchSize int) error
	UpdateReceipt(ctx context.Context, id snowflake.ID, receiptURL string, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id snowflake.ID, from, to Status, payoutDate *time.Time, updatedAt time.Time) (bool, error)
}
