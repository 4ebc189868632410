package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/money"
	"gorm.io/gorm"
)

// Status is the upstream order lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusDelivered Status = "DELIVERED"
	StatusCanceled  Status = "CANCELED"
)

// Order is a read-only view of an order owned by the order service.
type Order struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	StoreID   int64          `gorm:"column:store_id;not null;index:idx_orders_store_created,priority:1" json:"store_id"`
	Status    Status         `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt time.Time      `gorm:"not null;index:idx_orders_store_created,priority:2" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string { return "orders" }

// Total is Σ unitPrice × quantity over the order's items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

type OrderItem struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	OrderID     int64           `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID   int64           `gorm:"column:product_id;not null" json:"product_id"`
	ProductName string          `gorm:"column:product_name;type:varchar(255)" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(15,2);not null" json:"unit_price"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i OrderItem) LineTotal() decimal.Decimal {
	return money.LineTotal(i.UnitPrice, i.Quantity)
}

// ParseStatuses converts configured status names, dropping blanks.
func ParseStatuses(values []string) []Status {
	out := make([]Status, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, Status(v))
	}
	return out
}
