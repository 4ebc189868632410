package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	demanddomain "github.com/smallbiznis/settlement/internal/demandplan/domain"
	settlementdomain "github.com/smallbiznis/settlement/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Counter settlementdomain.Query
}

type Service struct {
	log     *zap.Logger
	counter demanddomain.OrderCounter
}

func NewService(p ServiceParam) demanddomain.Service {
	return New(p.Counter, p.Log)
}

func New(counter demanddomain.OrderCounter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:     log.Named("demandplan.service"),
		counter: counter,
	}
}

// Recommend suggests a reorder quantity once stock is at or below the
// minimum: 120% of the settled order count over the last 30 days, widening
// to 90 days when the shorter term is empty, and a fixed default when both
// are empty.
func (s *Service) Recommend(ctx context.Context, storeID, currentStock, minimumStock int64) (*demanddomain.Recommendation, error) {
	if storeID <= 0 {
		return nil, settlementdomain.ErrInvalidStore
	}
	if currentStock < 0 || minimumStock < 0 {
		return nil, demanddomain.ErrInvalidStock
	}

	rec := &demanddomain.Recommendation{
		StoreID:      storeID,
		CurrentStock: currentStock,
		MinimumStock: minimumStock,
	}
	if currentStock > minimumStock {
		return rec, nil
	}
	rec.ReorderRequired = true

	term := demanddomain.PrimaryTermDays
	count, err := s.counter.GetOrderCountInTerm(ctx, storeID, term)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		term = demanddomain.FallbackTermDays
		count, err = s.counter.GetOrderCountInTerm(ctx, storeID, term)
		if err != nil {
			return nil, err
		}
	}
	if count < 0 {
		count = 0
	}
	rec.BasisOrderCount = count
	rec.BasisTermDays = term

	if count == 0 {
		rec.RecommendedQuantity = demanddomain.DefaultReorderQty
		rec.Message = fmt.Sprintf("Current stock is %d. No recent orders; recommended reorder quantity is %d.",
			currentStock, rec.RecommendedQuantity)
	} else {
		rec.RecommendedQuantity = decimal.NewFromInt(count).
			Mul(decimal.NewFromInt(demanddomain.SafetyStockPercent)).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		rec.Message = fmt.Sprintf("Current stock is %d. Based on %d orders in the last %d days, recommended reorder quantity is %d.",
			currentStock, count, term, rec.RecommendedQuantity)
	}

	s.log.Debug("reorder recommended",
		zap.Int64("store_id", storeID),
		zap.Int64("basis_order_count", count),
		zap.Int("basis_term_days", term),
		zap.Int64("recommended_quantity", rec.RecommendedQuantity),
	)
	return rec, nil
}
