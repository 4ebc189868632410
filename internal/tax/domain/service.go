package domain

import "github.com/shopspring/decimal"

// Calculator derives settlement amounts from order line totals.
type Calculator interface {
	Compute(lineTotals []decimal.Decimal) (Breakdown, error)
	Policy() Policy
}
