package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status is the payout lifecycle state of a settlement.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo allows PENDING -> PAID -> COMPLETED, and any
// non-terminal state -> FAILED.
func (s Status) CanTransitionTo(next Status) bool {
	switch {
	case s.Terminal():
		return false
	case next == StatusFailed:
		return true
	case s == StatusPending && next == StatusPaid:
		return true
	case s == StatusPaid && next == StatusCompleted:
		return true
	default:
		return false
	}
}

type Audit struct {
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Settlement is the persisted daily aggregate for one store.
//
// Amounts are write-once: only Status, PayoutDate and ReceiptURL change
// after creation. (StoreID, SettlementDate) is unique.
type Settlement struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	StoreID        int64        `gorm:"column:store_id;not null;uniqueIndex:ux_settlements_store_date,priority:1" json:"store_id"`
	SettlementDate time.Time    `gorm:"column:settlement_date;type:date;not null;uniqueIndex:ux_settlements_store_date,priority:2" json:"settlement_date"`
	OrderCount     int64        `gorm:"column:order_count;not null" json:"order_count"`

	TotalSettlementAmount decimal.Decimal `gorm:"column:total_settlement_amount;type:numeric(15,2);not null" json:"total_settlement_amount"`
	SupplyAmount          decimal.Decimal `gorm:"column:supply_amount;type:numeric(15,2);not null" json:"supply_amount"`
	TaxAmount             decimal.Decimal `gorm:"column:tax_amount;type:numeric(15,2);not null" json:"tax_amount"`
	CommissionAmount      decimal.Decimal `gorm:"column:commission_amount;type:numeric(15,2);not null" json:"commission_amount"`
	SettlementAmount      decimal.Decimal `gorm:"column:settlement_amount;type:numeric(15,2);not null" json:"settlement_amount"`

	Status     Status     `gorm:"type:varchar(16);not null" json:"status"`
	PayoutDate *time.Time `gorm:"column:payout_date;type:date" json:"payout_date,omitempty"`
	ReceiptURL *string    `gorm:"column:receipt_url;type:text" json:"receipt_url,omitempty"`

	Audit `gorm:"embedded"`
}

func (Settlement) TableName() string { return "settlements" }

// SettlementItem is one line on a receipt or monthly statement.
type SettlementItem struct {
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// DailyView is a single settlement plus its month-to-date accumulation.
type DailyView struct {
	Settlement
	MonthlyAccumulatedAmount decimal.Decimal  `json:"monthly_accumulated_amount"`
	Items                    []SettlementItem `json:"items"`
}

// MonthlyView aggregates every settlement of a calendar month. Status and
// PayoutDate come from the latest-dated record and are nil for an empty
// month.
type MonthlyView struct {
	StoreID          int64            `json:"store_id"`
	Period           string           `json:"period"`
	OrderCount       int64            `json:"order_count"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	SupplyAmount     decimal.Decimal  `json:"supply_amount"`
	TaxAmount        decimal.Decimal  `json:"tax_amount"`
	CommissionAmount decimal.Decimal  `json:"commission_amount"`
	SettlementAmount decimal.Decimal  `json:"settlement_amount"`
	Status           *Status          `json:"status"`
	PayoutDate       *time.Time       `json:"payout_date"`
	Settlements      []Settlement     `json:"settlements"`
	Items            []SettlementItem `json:"items"`
}

// ReceiptDocument is what a receipt renderer draws.
type ReceiptDocument struct {
	StoreID          int64
	PeriodLabel      string
	OrderCount       int64
	TotalAmount      decimal.Decimal
	SupplyAmount     decimal.Decimal
	TaxAmount        decimal.Decimal
	CommissionAmount decimal.Decimal
	SettlementAmount decimal.Decimal
	Items            []SettlementItem
	GeneratedAt      time.Time
}

// BulkResult reports a multi-store generation run.
type BulkResult struct {
	Created        []Settlement           `json:"created"`
	Skipped        map[int64]error        `json:"-"`
	ExportFailures map[snowflake.ID]error `json:"-"`
}
