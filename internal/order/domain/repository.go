package domain

import (
	"context"
	"time"
)

// Repository reads eligible orders. start and end are inclusive instants.
type Repository interface {
	ListOrders(ctx context.Context, storeID int64, statuses []Status, start, end time.Time) ([]Order, error)
	ListStoreIDs(ctx context.Context, statuses []Status, start, end time.Time) ([]int64, error)
}
