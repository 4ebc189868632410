package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/settlement/internal/config"
	"github.com/smallbiznis/settlement/internal/money"
	taxdomain "github.com/smallbiznis/settlement/internal/tax/domain"
	"go.uber.org/fx"
)

type CalculatorParam struct {
	fx.In

	Settings *config.SettlementConfigHolder
}

type calculator struct {
	settings *config.SettlementConfigHolder
}

// NewCalculator reads the rate set from the holder on every call so a
// reloaded settlement.yml applies to the next computation.
func NewCalculator(p CalculatorParam) taxdomain.Calculator {
	return &calculator{settings: p.Settings}
}

func (c *calculator) Policy() taxdomain.Policy {
	cfg := c.settings.Get()
	return taxdomain.Policy{
		TaxRate:        cfg.TaxRateDecimal(),
		SupplyScale:    cfg.SupplyScale,
		CommissionRate: cfg.CommissionRateDecimal(),
	}
}

func (c *calculator) Compute(lineTotals []decimal.Decimal) (taxdomain.Breakdown, error) {
	return Compute(c.Policy(), money.Sum(lineTotals...))
}

// Compute splits a tax-inclusive total under policy.
//
//	supply     = roundHalfUp(total / (1 + rate), supplyScale)
//	tax        = total - supply
//	commission = roundHalfUp(total * commissionRate, supplyScale)
func Compute(policy taxdomain.Policy, total decimal.Decimal) (taxdomain.Breakdown, error) {
	if err := policy.Validate(); err != nil {
		return taxdomain.Breakdown{}, err
	}
	if total.IsNegative() {
		return taxdomain.Breakdown{}, taxdomain.ErrNegativeAmount
	}

	supply := ComputeSupplyInclusive(total, policy.TaxRate, policy.SupplyScale)
	commission := ComputeCommission(total, policy.CommissionRate, policy.SupplyScale)

	return taxdomain.Breakdown{
		Total:            total,
		Supply:           supply,
		Tax:              total.Sub(supply),
		Commission:       commission,
		SettlementAmount: total.Sub(commission),
	}, nil
}

// ComputeSupplyInclusive returns the pre-tax portion of a tax-inclusive total.
func ComputeSupplyInclusive(total, rate decimal.Decimal, scale int32) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	if rate.Sign() <= 0 {
		return total
	}
	return money.DivHalfUp(total, decimal.NewFromInt(1).Add(rate), scale)
}

func ComputeCommission(total, rate decimal.Decimal, scale int32) decimal.Decimal {
	if total.Sign() <= 0 || rate.Sign() <= 0 {
		return decimal.Zero
	}
	return money.RoundHalfUp(total.Mul(rate), scale)
}
