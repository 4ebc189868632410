package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/settlement/internal/order/domain"
)

// Generator creates settlements from eligible orders.
//
// Receipt export runs after the record is committed and never fails
// creation; a settlement without ReceiptURL can be retried through
// RegenerateReceipt.
type Generator interface {
	CreateSettlement(ctx context.Context, storeID int64, date time.Time) (*Settlement, error)
	CreateSettlements(ctx context.Context, date time.Time, storeIDs []int64) (*BulkResult, error)
	RegenerateReceipt(ctx context.Context, id snowflake.ID) (*Settlement, error)
}

type Query interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Settlement, error)
	GetDaily(ctx context.Context, storeID int64, date time.Time) (*DailyView, error)
	GetMonthly(ctx context.Context, storeID int64, period string) (*MonthlyView, error)
	GetStats(ctx context.Context, storeID int64, start, end time.Time) ([]Settlement, error)
	GetList(ctx context.Context, storeID int64) ([]Settlement, error)
	GetOrderCountInTerm(ctx context.Context, storeID int64, termDays int) (int64, error)
	GetOrdersBySettlementDate(ctx context.Context, storeID int64, date time.Time) ([]orderdomain.Order, error)
	OpenReceipt(ctx context.Context, id snowflake.ID) ([]byte, string, error)
}

type Lifecycle interface {
	MarkPaid(ctx context.Context, id snowflake.ID, payoutDate *time.Time) (*Settlement, error)
	MarkCompleted(ctx context.Context, id snowflake.ID) (*Settlement, error)
	MarkFailed(ctx context.Context, id snowflake.ID) (*Settlement, error)
}

type Service interface {
	Generator
	Query
	Lifecycle
}

// ReceiptExporter renders and stores receipts. References returned by
// Store are opaque and only meaningful to Open.
type ReceiptExporter interface {
	Render(ctx context.Context, doc ReceiptDocument) ([]byte, error)
	Store(ctx context.Context, data []byte, fileNameHint string) (string, error)
	Open(ctx context.Context, ref string) ([]byte, error)
}

// Locker serializes generation of one (store, date) key across replicas.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
