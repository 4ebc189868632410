package domain

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/money"
)

// Policy is the rate set a breakdown is computed with. Rates are fractions
// (0.10 for 10%).
type Policy struct {
	TaxRate        decimal.Decimal
	SupplyScale    int32
	CommissionRate decimal.Decimal
}

func (p Policy) Validate() error {
	if p.TaxRate.IsNegative() {
		return ErrInvalidTaxRate
	}
	if p.SupplyScale < 0 || p.SupplyScale > money.StorageScale {
		return ErrInvalidScale
	}
	if p.CommissionRate.IsNegative() || p.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidCommissionRate
	}
	return nil
}

// Breakdown splits a tax-inclusive total.
//
// Supply + Tax == Total and Commission + SettlementAmount == Total hold
// exactly for every breakdown the calculator returns.
type Breakdown struct {
	Total            decimal.Decimal
	Supply           decimal.Decimal
	Tax              decimal.Decimal
	Commission       decimal.Decimal
	SettlementAmount decimal.Decimal
}
