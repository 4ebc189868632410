package domain

import (
	"context"
	"errors"
)

const (
	PrimaryTermDays    = 30
	FallbackTermDays   = 90
	DefaultReorderQty  = 50
	SafetyStockPercent = 120
)

var ErrInvalidStock = errors.New("invalid_stock")

// Recommendation tells whether a store should reorder and how much.
type Recommendation struct {
	StoreID             int64  `json:"store_id"`
	CurrentStock        int64  `json:"current_stock"`
	MinimumStock        int64  `json:"minimum_stock"`
	ReorderRequired     bool   `json:"reorder_required"`
	RecommendedQuantity int64  `json:"recommended_quantity"`
	BasisOrderCount     int64  `json:"basis_order_count"`
	BasisTermDays       int    `json:"basis_term_days"`
	Message             string `json:"message"`
}

// OrderCounter is satisfied by the settlement query service.
type OrderCounter interface {
	GetOrderCountInTerm(ctx context.Context, storeID int64, termDays int) (int64, error)
}

type Service interface {
	Recommend(ctx context.Context, storeID, currentStock, minimumStock int64) (*Recommendation, error)
}
